// Package host exposes a goSpace Engine to plugins over HTTP.
//
// # Endpoints
//
//   - POST /rpc: JSON-RPC 2.0 calls (login, isEnabled, getUserAddress,
//     isSpaceOpened, openSpace, closeSpace, getPrivateValue, setPrivateValue,
//     getPublicValue, setPublicValue, getPublicSpaceData).
//   - GET /events: newline-delimited JSON stream of lifecycle notifications.
//   - POST /loaded: fires the Engine load gate. Host callers only.
//   - POST /logout: ends the session for every plugin. Host callers only.
//
// Every endpoint sits behind a caller token guard. The caller identity handed
// to the Engine is the one proven by the token, never a request field. The
// session-wide controls answer 403 to any caller not listed in
// Config.HostCallers, and are closed when that list is empty.
//
// # Result mapping
//
// Guard violations (not loaded, not authenticated, namespace not open) and a
// missing wallet come back as the method's sentinel result: false for
// boolean methods, null for value methods. A failed openSpace returns false,
// as does a login whose automatic namespace open failed.
// Every other failure is a JSON-RPC error with one of the codes in this
// package.
package host
