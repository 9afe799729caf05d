// Package space provides the Redis-backed store backend for goSpace.
//
// # Key layout
//
// Every key starts with the configured prefix <p>:
//
//	<p>:box:<address>              hash   opened_at, created_at
//	<p>:box:<address>:spaces       set    namespace keys opened by the box
//	<p>:space:<address>:<ns>:private  hash  private values
//	<p>:space:<address>:<ns>:public   hash  public values
//
// Addresses are lower-cased before they enter a key.
//
// # Architecture boundaries
//
// This package implements [goSpace.StoreBackend], [goSpace.StoreBox],
// [goSpace.StoreSpace] and [goSpace.KeyValue]. It does NOT track sessions,
// guard calls or derive namespace keys; the Engine does.
//
// # What this package must NOT do
//
//   - Keep per-session state in memory beyond the handles it returns.
//   - Decide which caller may open which namespace.
package space
