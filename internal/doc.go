// Package internal contains helper utilities that are intentionally private to goSession:
// session id and nonce generation and the injectable clock.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: pure-function flow orchestrators for every Engine operation
//   - metrics: lock-free counters and latency histograms
//
// # What this package must NOT do
//
//   - Export types that appear in the public goSession API.
//   - Be imported by any package outside the goSession module.
package internal
