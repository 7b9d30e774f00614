package goSession

import (
	"errors"
	"strings"
)

var (
	// ErrMalformedToken reports a token or cookie that could not be decoded.
	ErrMalformedToken = errors.New("malformed session token")
	// ErrSignatureInvalid reports a signature or legacy hash mismatch.
	ErrSignatureInvalid = errors.New("session token signature invalid")
	// ErrExpired reports a session whose end time has passed.
	ErrExpired = errors.New("session expired")
	// ErrSessionNotFound reports that the store of record has no live session
	// for the id, either because it never existed or it was invalidated.
	ErrSessionNotFound = errors.New("session not found")
	// ErrStoreUnavailable reports a transient store failure. It is the only
	// retryable kind.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrInconsistentWrite reports a dual write that failed part way. See
	// [WriteError] for whether the earlier write was rolled back.
	ErrInconsistentWrite = errors.New("session write inconsistent across stores")
	// ErrInvalidPrincipal reports a create request without a usable identity.
	ErrInvalidPrincipal = errors.New("invalid session principal")
	// ErrInvalidRouteMode reports an unknown per-route validation mode.
	ErrInvalidRouteMode = errors.New("invalid route validation mode")
	// ErrPermissionDenied is returned by scope and endorsement checks.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrEngineNotReady is returned by a nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrSessionCreationFailed wraps non-store create failures (id
	// generation, encoding).
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrSessionInvalidationFailed is wrapped by [InvalidateError].
	ErrSessionInvalidationFailed = errors.New("session invalidation failed")
)

// IsRetryable reports whether err may succeed on retry. Only
// [ErrStoreUnavailable] is retryable, and never when it arrives inside an
// [ErrInconsistentWrite].
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrInconsistentWrite) {
		return false
	}
	return errors.Is(err, ErrStoreUnavailable)
}

// WriteError is returned by CreateSession when a store write fails. It
// unwraps to its kind: [ErrInconsistentWrite] when an earlier store had
// already accepted the session, else [ErrStoreUnavailable] or
// [ErrInvalidPrincipal] depending on the cause.
type WriteError struct {
	FailedStore string
	// RolledBack is true when no record of the session remains in any store.
	RolledBack bool
	// RollbackErr is set when the compensating delete itself failed.
	RollbackErr error
	Err         error
	kind        error
}

func (e *WriteError) Error() string {
	var b strings.Builder
	b.WriteString(e.kind.Error())
	b.WriteString(": ")
	b.WriteString(e.FailedStore)
	b.WriteString(" write failed")
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.RollbackErr != nil {
		b.WriteString("; rollback failed: ")
		b.WriteString(e.RollbackErr.Error())
	}
	return b.String()
}

func (e *WriteError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.Err}
}

// StoreError pairs a store name with the error it returned.
type StoreError struct {
	Store string
	Err   error
}

// InvalidateError lists the stores that failed to invalidate a session. The
// session may still be honored by those stores until they clear or expire.
type InvalidateError struct {
	SessionID string
	UserID    string
	Failed    []StoreError
}

func (e *InvalidateError) Error() string {
	var b strings.Builder
	b.WriteString(ErrSessionInvalidationFailed.Error())
	for i, f := range e.Failed {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(f.Store)
		b.WriteString(": ")
		b.WriteString(f.Err.Error())
	}
	return b.String()
}

func (e *InvalidateError) Unwrap() []error {
	out := make([]error, 0, len(e.Failed)+1)
	out = append(out, ErrSessionInvalidationFailed)
	for _, f := range e.Failed {
		out = append(out, f.Err)
	}
	return out
}

// Stores returns the names of the stores that failed.
func (e *InvalidateError) Stores() []string {
	out := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		out[i] = f.Store
	}
	return out
}
