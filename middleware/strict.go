package middleware

import "net/http"

// RequireAllowedCaller is RequireCaller restricted to a fixed set of
// callers. Valid tokens for other callers get 403. An empty list allows every
// caller.
func RequireAllowedCaller(parser CallerParser, callers ...string) func(http.Handler) http.Handler {
	if len(callers) == 0 {
		return RequireCaller(parser)
	}
	allowed := make(map[string]struct{}, len(callers))
	for _, c := range callers {
		allowed[c] = struct{}{}
	}
	return guard(parser, func(caller string) bool {
		_, ok := allowed[caller]
		return ok
	})
}

// RequireHostCaller admits only the listed callers. Unlike
// RequireAllowedCaller an empty list rejects every caller with 403, so
// session-wide controls stay closed unless a host identity is configured.
func RequireHostCaller(parser CallerParser, callers ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(callers))
	for _, c := range callers {
		allowed[c] = struct{}{}
	}
	return guard(parser, func(caller string) bool {
		_, ok := allowed[caller]
		return ok
	})
}
