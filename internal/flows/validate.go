package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/session"
)

// ModeResolverConfig allows host packages to resolve route/engine validation modes
// without importing host package-specific enums (avoids import cycles).
type ModeResolverConfig struct {
	ModeInherit   int
	ModeStateless int
	ModeStateful  int
}

// ResolveRouteMode resolves a route mode override against engine default mode.
func ResolveRouteMode(routeMode, engineMode int, cfg ModeResolverConfig) (int, bool) {
	switch routeMode {
	case cfg.ModeInherit:
		switch engineMode {
		case cfg.ModeStateless, cfg.ModeStateful:
			return engineMode, true
		default:
			return 0, false
		}
	case cfg.ModeStateless:
		return cfg.ModeStateless, true
	case cfg.ModeStateful:
		return cfg.ModeStateful, true
	default:
		return 0, false
	}
}

// ValidateFailureKind classifies validation failures for root-level mapping.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	// ValidateFailureDecode carries the codec error unchanged; no store was read.
	ValidateFailureDecode
	ValidateFailureInvalidRouteMode
	ValidateFailureStoreMiss
	ValidateFailureStoreUnavailable
	// ValidateFailureMismatch means the store of record holds a different
	// session under the same id (nonce or principal differ).
	ValidateFailureMismatch
)

// ValidateResult returns either the session or a classified failure. Mode is
// the resolved validation mode.
type ValidateResult struct {
	Failure ValidateFailureKind
	Err     error
	Mode    int
	Session *session.Session
}

// ValidateDeps captures stateless/stateful validation dependencies.
type ValidateDeps struct {
	DecodeToken      func(string) (*session.Session, error)
	ResolveRouteMode func(int) (int, error)
	ModeStateful     int
	// LoadRecord reads the store of record: the distributed store when the
	// deployment writes it, else the legacy store.
	LoadRecord    func(ctx context.Context, sessionID string) (*session.Session, error)
	IsUnavailable func(error) bool
}

// RunValidate decodes token and, in stateful mode, re-confirms it against the
// store of record. A store miss overrides a structurally valid token.
func RunValidate(ctx context.Context, token string, routeMode int, deps ValidateDeps) ValidateResult {
	sess, err := deps.DecodeToken(token)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureDecode, Err: err}
	}

	mode, err := deps.ResolveRouteMode(routeMode)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureInvalidRouteMode, Err: err}
	}
	if mode != deps.ModeStateful {
		return ValidateResult{Mode: mode, Session: sess}
	}

	if res, ok := confirmRecord(ctx, sess, deps.LoadRecord, deps.IsUnavailable); !ok {
		res.Mode = mode
		return res
	}
	return ValidateResult{Mode: mode, Session: sess}
}

func confirmRecord(
	ctx context.Context,
	sess *session.Session,
	load func(context.Context, string) (*session.Session, error),
	isUnavailable func(error) bool,
) (ValidateResult, bool) {
	if load == nil {
		return ValidateResult{Failure: ValidateFailureStoreUnavailable, Err: errNoStore}, false
	}
	rec, err := load(ctx, sess.SessionID)
	if err != nil {
		if isUnavailable != nil && isUnavailable(err) {
			return ValidateResult{Failure: ValidateFailureStoreUnavailable, Err: err}, false
		}
		return ValidateResult{Failure: ValidateFailureStoreMiss, Err: err}, false
	}
	if rec.PrincipalID() != sess.PrincipalID() {
		return ValidateResult{Failure: ValidateFailureMismatch, Err: errPrincipalMismatch}, false
	}
	if rec.Nonce != sess.Nonce {
		return ValidateResult{Failure: ValidateFailureMismatch, Err: errNonceMismatch}, false
	}
	return ValidateResult{}, true
}

var (
	errPrincipalMismatch = errors.New("stored session principal differs from token")
	errNonceMismatch     = errors.New("stored session nonce differs from token")
)

// CookieDeps captures legacy cookie validation dependencies.
type CookieDeps struct {
	DecodeCookie  func(string) (*session.Session, error)
	Now           func() time.Time
	Legacy        LegacyStore
	IsUnavailable func(error) bool
}

// RunValidateCookie validates a legacy cookie. The cookie's own expiry is
// checked first; the session is then always loaded from the legacy store,
// which is the only store the cookie format can name. The stored session is
// returned since the cookie carries only part of it.
func RunValidateCookie(ctx context.Context, cookie string, deps CookieDeps) ValidateResult {
	partial, err := deps.DecodeCookie(cookie)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureDecode, Err: err}
	}
	if partial.Expired(deps.Now().Unix()) {
		return ValidateResult{Failure: ValidateFailureDecode, Err: ErrCookieExpired}
	}
	if deps.Legacy == nil {
		return ValidateResult{Failure: ValidateFailureStoreUnavailable, Err: errNoStore}
	}

	rec, err := deps.Legacy.Load(ctx, partial.SessionID)
	if err != nil {
		if deps.IsUnavailable != nil && deps.IsUnavailable(err) {
			return ValidateResult{Failure: ValidateFailureStoreUnavailable, Err: err}
		}
		return ValidateResult{Failure: ValidateFailureStoreMiss, Err: err}
	}
	if legacyUserID(rec) != partial.PrincipalID() {
		return ValidateResult{Failure: ValidateFailureMismatch, Err: errPrincipalMismatch}
	}
	return ValidateResult{Session: rec}
}

// ErrCookieExpired is returned inside a decode failure when the cookie's
// issue time plus the session lifetime has passed.
var ErrCookieExpired = errors.New("legacy cookie expired")

// legacyUserID is the id the legacy cookie carries: the user, or the owning
// user of a client-only session.
func legacyUserID(s *session.Session) string {
	if s.User != nil {
		return s.User.UserID
	}
	if s.Client != nil {
		return s.Client.OwnerID
	}
	return ""
}
