// Package permission provides the authorization model carried by a session: the
// classic privilege flag set, exact-match scopes, and archive/subject endorsements
// with wildcard matching.
//
// # Matching rules
//
// Scopes are opaque, case-sensitive strings compared by exact membership. An
// endorsement entry matches a query when each of its fields equals the queried
// value or is the [Wildcard]. Advisory entries are metadata and never change the
// outcome of [Authorization.EndorsedFor].
//
// # Architecture boundaries
//
// This package is a pure in-memory data structure with no I/O. It provides the
// codec (EncodeAuthorization/DecodeAuthorization) used by the session binary encoder.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import goSession, jwt, legacy, or session.
//   - Infer a hierarchy between scope strings.
package permission
