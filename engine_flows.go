package goSession

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goSession/internal"
	internalflows "github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/legacy"
	"github.com/MrEthical07/goSession/session"
)

// buildFlows wires the flow dependencies once at Build time.
func (e *Engine) buildFlows() internalflows.Service {
	targets := e.flowTargets()

	create := internalflows.CreateDeps{
		Targets:      targets,
		NewSessionID: internal.NewSessionID,
		NewNonce: func() (string, error) {
			return internal.NewNonce(e.config.Session.NonceDigits)
		},
		Now:         e.clock.Now,
		Lifetime:    e.config.Session.Lifetime,
		EncodeToken: e.jwtManager.Encode,
		IsDuplicate: isDuplicateSession,
	}
	if e.cookies != nil {
		create.EncodeCookie = e.cookies.EncodeSession
	}

	validate := internalflows.ValidateDeps{
		DecodeToken: e.jwtManager.Decode,
		ResolveRouteMode: func(routeMode int) (int, error) {
			mode, err := e.resolveRouteMode(RouteMode(routeMode))
			return int(mode), err
		},
		ModeStateful:  int(ModeStateful),
		LoadRecord:    e.recordLoader(),
		IsUnavailable: isStoreUnavailable,
	}

	var cookie internalflows.CookieDeps
	if e.cookies != nil && e.legacyStore != nil {
		cookie = internalflows.CookieDeps{
			DecodeCookie:  e.cookies.DecodeSession,
			Now:           e.clock.Now,
			Legacy:        e.legacyStore,
			IsUnavailable: isStoreUnavailable,
		}
	}

	return internalflows.New(internalflows.Deps{
		Create:     create,
		Validate:   validate,
		Cookie:     cookie,
		Invalidate: internalflows.InvalidateDeps{Targets: targets},
	})
}

func (e *Engine) flowTargets() internalflows.Targets {
	t := internalflows.Targets{
		WriteLegacy:      e.config.Storage.WritesLegacy(),
		WriteDistributed: e.config.Storage.WritesDistributed(),
	}
	// Typed nil pointers must not become non-nil interfaces.
	if e.legacyStore != nil {
		t.Legacy = e.legacyStore
	}
	if e.sessionStore != nil {
		t.Distributed = e.sessionStore
	}
	return t
}

// recordLoader returns the Load of the store of record: the distributed
// store when it is written, else the legacy store.
func (e *Engine) recordLoader() func(ctx context.Context, sessionID string) (*session.Session, error) {
	switch {
	case e.config.Storage.WritesDistributed() && e.sessionStore != nil:
		return e.sessionStore.Load
	case e.legacyStore != nil:
		return e.legacyStore.Load
	default:
		return nil
	}
}

func (e *Engine) resolveRouteMode(routeMode RouteMode) (ValidationMode, error) {
	mode, ok := internalflows.ResolveRouteMode(int(routeMode), int(e.config.ValidationMode), internalflows.ModeResolverConfig{
		ModeInherit:   int(ModeInherit),
		ModeStateless: int(ModeStateless),
		ModeStateful:  int(ModeStateful),
	})
	if !ok {
		return 0, ErrInvalidRouteMode
	}
	return ValidationMode(mode), nil
}

func isStoreUnavailable(err error) bool {
	return errors.Is(err, session.ErrRedisUnavailable) || errors.Is(err, legacy.ErrUnavailable)
}

func isDuplicateSession(err error) bool {
	return errors.Is(err, session.ErrSessionExists) || errors.Is(err, legacy.ErrDuplicateSession)
}

// codecErrorKind maps token and cookie decode errors to their root kind.
func codecErrorKind(err error) error {
	switch {
	case errors.Is(err, jwt.ErrExpired), errors.Is(err, internalflows.ErrCookieExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrSignatureInvalid), errors.Is(err, legacy.ErrCookieHashMismatch):
		return ErrSignatureInvalid
	default:
		return ErrMalformedToken
	}
}

// storeErrorKind maps a store load or write error to its root kind.
func storeErrorKind(err error) error {
	switch {
	case isStoreUnavailable(err):
		return ErrStoreUnavailable
	case errors.Is(err, legacy.ErrUnsupportedPrincipal), errors.Is(err, session.ErrNoPrincipal):
		return ErrInvalidPrincipal
	case errors.Is(err, session.ErrSessionExpired):
		return ErrExpired
	case isDuplicateSession(err):
		return ErrSessionCreationFailed
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, legacy.ErrNotFound),
		errors.Is(err, session.ErrSessionCorrupt):
		return ErrSessionNotFound
	default:
		return ErrStoreUnavailable
	}
}

func wrapKind(kind, cause error) error {
	if cause == nil || errors.Is(cause, kind) {
		return kind
	}
	return fmt.Errorf("%w: %v", kind, cause)
}
