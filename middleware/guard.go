package middleware

import (
	"context"
	"net/http"
	"strings"

	goSpace "github.com/MrEthical07/goSpace"
)

// CallerParser verifies a bearer token and returns the caller identity it
// was issued for. *callertoken.Manager implements it.
type CallerParser interface {
	ParseCaller(token string) (string, error)
}

// CallerFromContext returns the caller identity set by RequireCaller.
func CallerFromContext(ctx context.Context) (string, bool) {
	return goSpace.CallerFromContext(ctx)
}

// RequireCaller rejects requests without a valid caller token and attaches
// the verified caller identity to the request context.
func RequireCaller(parser CallerParser) func(http.Handler) http.Handler {
	return guard(parser, nil)
}

func guard(parser CallerParser, allow func(caller string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if parser == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			caller, err := parser.ParseCaller(token)
			if err != nil || caller == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if allow != nil && !allow(caller) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := goSpace.WithCaller(r.Context(), caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
