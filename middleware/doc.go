// Package middleware exposes HTTP middleware that authenticates the plugin
// behind a request and threads its identity into the request context.
//
// # Guards
//
//   - [RequireCaller]: any caller holding a valid caller token.
//   - [RequireAllowedCaller]: a valid caller token for one of a fixed set of callers.
//
// Each guard reads the Authorization header, parses the bearer token with a
// [CallerParser] and stores the caller identity with goSpace.WithCaller.
//
// # What this package must NOT do
//
//   - Read a caller identity from the request body or query.
//   - Call the Engine.
package middleware
