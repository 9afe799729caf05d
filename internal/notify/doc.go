// Package notify implements async delivery of session and namespace lifecycle events.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, fan-out, no-op).
//   - [Dispatcher]: buffered async relay, drop-if-full or block-if-full.
//   - [Event]: one lifecycle record.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. The Engine decides
// which events to emit.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on session state.
//   - Import goSpace or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package notify
