package goSpace

import "context"

type callerContextKey struct{}

// WithCaller attaches the verified identity of the calling plugin to ctx.
// Only the host transport should call it, after authenticating the caller.
func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerContextKey{}, caller)
}

// CallerFromContext returns the caller identity attached by WithCaller.
func CallerFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}

	caller, _ := ctx.Value(callerContextKey{}).(string)
	if caller == "" {
		return "", false
	}

	return caller, true
}
