// Package audit dispatches session lifecycle events asynchronously to a sink.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON lines, zerolog, no-op).
//   - [Dispatcher]: buffered relay that either drops or blocks when full.
//   - [Event]: structured record of one create, validate, invalidate or renew outcome.
//
// The engine decides which events to emit. This package never filters them
// and never imports the root package.
package audit
