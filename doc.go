// Package goSession is a session and authorization engine that keeps a
// legacy relational session store and a distributed Redis session store in
// step behind one API.
//
// Sessions are created once, carried by an HS256 token (and, when the legacy
// store is written, the legacy cookie), and validated either statelessly from
// the signature alone or statefully against the store of record. Renewal
// always produces a new session id. Authorization (classic privileges,
// scopes, endorsements) is fixed at creation.
//
// The engine is built once through [Builder.Build] and is safe for
// concurrent use. It never touches HTTP requests; see the middleware package
// for that boundary.
//
// # Architecture boundaries
//
// goSession is the public surface: [Engine], [Builder], [Config] and the error
// kinds. Flow orchestration, audit dispatch and metric storage live under
// internal/. Store adapters live in session (Redis) and legacy (bun).
//
// # Errors
//
// Every failure maps to one kind: [ErrMalformedToken], [ErrSignatureInvalid],
// [ErrExpired], [ErrSessionNotFound], [ErrStoreUnavailable] or
// [ErrInconsistentWrite] (plus [ErrInvalidPrincipal] and friends for bad
// input). Use errors.Is; causes are wrapped but never change the kind.
// [IsRetryable] is true only for [ErrStoreUnavailable].
package goSession
