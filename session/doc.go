// Package session holds the session domain model and the Redis-backed
// distributed session store.
//
// # Binary encoding
//
// Sessions are stored in Redis in a compact versioned binary format. The
// leading byte is the format version; decoding rejects versions it does not
// know and any trailing bytes.
//
// # Key layout
//
// Records live at <prefix>:s:<session_id> with a TTL equal to the time left
// until the session's end time. A per-principal index set at
// <prefix>:u:<principal_id> lists session ids for logout-all; it is best
// effort and expires with the longest session it tracks. No command touches
// more than one key, so the store works unchanged against Redis Cluster.
//
// # Architecture boundaries
//
// This package owns the [Store] and the [Session] model. It does NOT
// interpret signed tokens, evaluate scopes, or decide validation policy.
//
// # What this package must NOT do
//
//   - Import goSession, jwt, or legacy (no upward imports).
//   - Overwrite an existing session record; renewal always creates a new id.
package session
