// Package middleware exposes HTTP adapters over goSession.Engine: route
// guards, scope and endorsement checks, and the authorizer endpoint used by
// an edge proxy.
//
// # Guards
//
//   - [Guard] validates with an explicit route mode.
//   - [RequireStateless] trusts the token signature and expiry.
//   - [RequireStateful] also confirms the session with the store of record.
//   - [RequireScope] and [RequireEndorsement] run after a guard.
//
// A guard reads credentials in order: the Authorization bearer token, the
// session cookie, then the legacy cookie. The validated session is placed
// in the request context; see [SessionFromContext].
//
// A store outage answers 503; every other failure answers 401 with a fixed
// body so responses do not reveal which check failed. Failed scope and
// endorsement checks answer 403.
//
// This package makes no decisions of its own beyond pass or reject; it does
// not parse tokens or touch any store directly.
package middleware
