// Package legacy maps sessions onto the relational tapir tables shared with
// older components, and packs and unpacks their session cookie.
//
// # Cookie format
//
// The cookie is session_id:user_id:ip:issued_at:capabilities:hash, where hash
// is the standard base64 SHA-1 of the first five fields joined with "-" and
// the shared session hash, with its last character dropped. The format must
// stay byte-compatible with existing consumers.
//
// # Expiry
//
// Rows written by this package carry an explicit end_time. Rows written by
// older components may carry end_time = 0; those expire at start_time plus
// the configured session duration. Invalidation sets end_time to now - 1.
//
// # Databases
//
// [Open] selects PostgreSQL (pgdriver) for postgres://, postgresql:// and
// unix:// DSNs and SQLite (modernc.org/sqlite) for anything else.
package legacy
