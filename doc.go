// Package goSpace provides a per-user key/value namespace service fronted by
// a wallet-driven login state machine.
//
// A host transport builds one [Engine] with [Builder], fires the load gate with
// [Engine.MarkLoaded] and then forwards the calls of every external plugin,
// passing the plugin's identity explicitly. Each plugin owns exactly one
// namespace ("<prefix>-<caller>") with a private and a public half.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goSpace is the public surface. It exposes [Engine], [Builder], [Config], the
// collaborator interfaces ([WalletProvider], [StoreBackend], [StoreBox],
// [StoreSpace], [KeyValue]) and value types. Notification buffering, write
// rate limiting and per-key locking live under internal/. Concrete store
// backends and wallet providers live in the space and wallet packages, which
// import goSpace and never the other way around.
//
// # What this package must NOT do
//
//   - Let a caller choose a namespace key other than its own.
//   - Contact the wallet or the store before the load gate fired.
//   - Import space, wallet, host or any other sub-package that re-imports goSpace.
package goSpace
