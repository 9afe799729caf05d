// Package rate provides the Redis-backed fixed-window counter used to cap
// per-caller writes into namespaces.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Keys are
// "<prefix>:w:<caller>".
//
// # What this package must NOT do
//
//   - Decide which operations are limited (the Engine does).
//   - Be imported outside the goSpace module.
package rate
