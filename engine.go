package goSession

import (
	"context"
	"errors"
	"strconv"
	"time"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	internalflows "github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/internal"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/legacy"
	"github.com/MrEthical07/goSession/permission"
	"github.com/MrEthical07/goSession/session"
	"github.com/rs/zerolog"
)

// Engine is the session service: the only component that calls both store
// adapters and the token codecs. It holds no mutable session state; all
// durable state lives in the stores. Safe for concurrent use.
type Engine struct {
	config       Config
	clock        internal.Clock
	log          zerolog.Logger
	jwtManager   *jwt.Manager
	cookies      *legacy.CookieCodec
	sessionStore *session.Store
	legacyStore  *legacy.Store
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
	flows        internalflows.Service
}

// Close drains the audit dispatcher. Store clients belong to the caller.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}

// CreateSession builds a session for a principal the caller has already
// verified and writes it to every store the storage mode requires.
//
// The client address, host and tracking cookie are read from ctx (see
// [WithClientIP]). When the legacy store is written it is written first and
// its table assigns the numeric session id; if the distributed write then
// fails the legacy rows are deleted and a *WriteError wrapping
// [ErrInconsistentWrite] is returned. Cancelling ctx does not undo
// writes that already committed.
func (e *Engine) CreateSession(ctx context.Context, principal session.Principal, authz permission.Authorization) (*SessionResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	res := e.flows.Create(ctx, internalflows.CreateRequest{
		Principal:      principal,
		Authorization:  authz,
		IPAddress:      clientIPFromContext(ctx),
		RemoteHost:     remoteHostFromContext(ctx),
		TrackingCookie: trackingCookieFromContext(ctx),
	})
	if res.Failure != internalflows.CreateFailureNone {
		err := e.createError(res)
		e.metricInc(MetricSessionCreateFailed)
		if res.Compensated {
			e.emitRollback(ctx, principal, res)
		}
		e.emitAudit(ctx, auditEventSessionCreateFailed, false, principal, "", err, nil)
		return nil, err
	}

	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventSessionCreated, true, principal, res.Session.SessionID, nil, func() map[string]string {
		return map[string]string{"storage": e.config.Storage.String()}
	})
	return sessionResult(res), nil
}

func sessionResult(res internalflows.CreateResult) *SessionResult {
	return &SessionResult{
		Session:      res.Session,
		Token:        res.Token,
		LegacyCookie: res.LegacyCookie,
		ExpiresAt:    time.Unix(res.Session.EndTime, 0),
	}
}

func (e *Engine) createError(res internalflows.CreateResult) error {
	switch res.Failure {
	case internalflows.CreateFailureInvalidPrincipal:
		return wrapKind(ErrInvalidPrincipal, res.Err)
	case internalflows.CreateFailureIDGeneration:
		return wrapKind(ErrSessionCreationFailed, res.Err)
	case internalflows.CreateFailureEncode:
		if errors.Is(res.Err, legacy.ErrUnsupportedPrincipal) {
			return wrapKind(ErrInvalidPrincipal, res.Err)
		}
		return wrapKind(ErrSessionCreationFailed, res.Err)
	}

	kind := storeErrorKind(res.Err)
	if res.Store == internalflows.StoreDistributed && e.config.Storage.WritesLegacy() {
		kind = ErrInconsistentWrite
	}
	if isStoreUnavailable(res.Err) {
		e.metricInc(MetricStoreUnavailable)
	}
	return &WriteError{
		FailedStore: res.Store,
		RolledBack:  res.RolledBack,
		RollbackErr: res.RollbackErr,
		Err:         res.Err,
		kind:        kind,
	}
}

// Validate decodes token and, in stateful mode, confirms the session against
// the store of record. routeMode overrides the engine mode for one call;
// pass [ModeInherit] to use the configured mode.
//
// A decode failure is returned without touching any store. In stateful mode
// a store miss overrides a structurally valid token.
func (e *Engine) Validate(ctx context.Context, token string, routeMode RouteMode) (*session.Session, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { e.metrics.Observe(MetricValidateLatency, time.Since(start)) }()
	}

	res := e.flows.Validate(ctx, token, int(routeMode))
	if res.Failure == internalflows.ValidateFailureNone {
		e.metricInc(MetricValidateSuccess)
		e.emitAudit(ctx, auditEventSessionValidated, true, res.Session.Principal(), res.Session.SessionID, nil, nil)
		return res.Session, nil
	}

	err := e.validateError(res)
	e.metricInc(MetricValidateFailure)
	e.emitAudit(ctx, auditEventSessionRejected, false, session.Principal{}, "", err, func() map[string]string {
		return map[string]string{"mode": ValidationMode(res.Mode).String()}
	})
	return nil, err
}

// ValidateAccess is Validate with [ModeInherit].
func (e *Engine) ValidateAccess(ctx context.Context, token string) (*session.Session, error) {
	return e.Validate(ctx, token, ModeInherit)
}

func (e *Engine) validateError(res internalflows.ValidateResult) error {
	switch res.Failure {
	case internalflows.ValidateFailureDecode:
		return wrapKind(codecErrorKind(res.Err), res.Err)
	case internalflows.ValidateFailureInvalidRouteMode:
		return ErrInvalidRouteMode
	case internalflows.ValidateFailureStoreUnavailable:
		e.metricInc(MetricStoreUnavailable)
		return wrapKind(ErrStoreUnavailable, res.Err)
	case internalflows.ValidateFailureStoreMiss:
		e.metricInc(MetricValidateStoreMiss)
		return wrapKind(storeErrorKind(res.Err), res.Err)
	default:
		return wrapKind(ErrSessionNotFound, res.Err)
	}
}

// ValidateCookie validates a legacy session cookie and returns the session
// as stored in the legacy store. The legacy store is always consulted.
func (e *Engine) ValidateCookie(ctx context.Context, cookie string) (*session.Session, error) {
	if !e.ready() || e.cookies == nil || e.legacyStore == nil {
		return nil, ErrEngineNotReady
	}

	res := e.flows.ValidateCookie(ctx, cookie)
	if res.Failure == internalflows.ValidateFailureNone {
		e.metricInc(MetricCookieValidateSuccess)
		e.emitAudit(ctx, auditEventSessionValidated, true, res.Session.Principal(), res.Session.SessionID, nil, func() map[string]string {
			return map[string]string{"credential": "legacy_cookie"}
		})
		return res.Session, nil
	}

	err := e.validateError(res)
	e.metricInc(MetricCookieValidateFailure)
	e.emitAudit(ctx, auditEventSessionRejected, false, session.Principal{}, "", err, func() map[string]string {
		return map[string]string{"credential": "legacy_cookie"}
	})
	return nil, err
}

// InvalidateSession invalidates sessionID in every store the storage mode
// writes, continuing past failures. It is idempotent. When any store fails
// the returned *InvalidateError names it; the session may still be honored
// there.
func (e *Engine) InvalidateSession(ctx context.Context, sessionID string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	failed := e.flows.Invalidate(ctx, sessionID)
	if len(failed) == 0 {
		e.metricInc(MetricSessionInvalidated)
		e.emitAudit(ctx, auditEventSessionInvalidated, true, session.Principal{}, sessionID, nil, nil)
		return nil
	}

	err := e.invalidateError(sessionID, "", failed)
	e.metricInc(MetricInvalidateFailure)
	e.emitInvalidateFailures(ctx, sessionID, "", err)
	return err
}

// InvalidateToken invalidates the session named by token. The signature
// must verify, but an expired token is accepted so a client can always log
// out.
func (e *Engine) InvalidateToken(ctx context.Context, token string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	sess, err := e.jwtManager.DecodeIgnoringExpiry(token)
	if err != nil {
		err = wrapKind(codecErrorKind(err), err)
		e.emitAudit(ctx, auditEventSessionInvalidateFailed, false, session.Principal{}, "", err, func() map[string]string {
			return map[string]string{"reason": "invalid_token"}
		})
		return err
	}
	return e.InvalidateSession(ctx, sess.SessionID)
}

// InvalidateAllForUser ends every live session of a user (or client) in
// every store the storage mode writes. It returns the number of session
// records ended; a session held by two stores counts twice.
func (e *Engine) InvalidateAllForUser(ctx context.Context, userID string) (int, error) {
	if !e.ready() {
		return 0, ErrEngineNotReady
	}
	if userID == "" {
		return 0, ErrInvalidPrincipal
	}

	res := e.flows.InvalidateAllForUser(ctx, userID)
	if len(res.Failed) == 0 {
		e.metricInc(MetricLogoutAll)
		e.emitAudit(ctx, auditEventLogoutAll, true, session.Principal{User: &session.User{UserID: userID}}, "", nil, func() map[string]string {
			return map[string]string{"count": strconv.Itoa(res.Total())}
		})
		return res.Total(), nil
	}

	err := e.invalidateError("", userID, res.Failed)
	e.metricInc(MetricInvalidateFailure)
	e.emitInvalidateFailures(ctx, "", userID, err)
	return res.Total(), err
}

func (e *Engine) invalidateError(sessionID, userID string, failed []internalflows.StoreFailure) *InvalidateError {
	out := &InvalidateError{SessionID: sessionID, UserID: userID}
	for _, f := range failed {
		kind := ErrStoreUnavailable
		if !isStoreUnavailable(f.Err) {
			kind = storeErrorKind(f.Err)
		} else {
			e.metricInc(MetricStoreUnavailable)
		}
		out.Failed = append(out.Failed, StoreError{Store: f.Store, Err: wrapKind(kind, f.Err)})
		e.log.Warn().
			Err(f.Err).
			Str("store", f.Store).
			Str("session_id", sessionID).
			Str("user_id", userID).
			Msg("session invalidation failed")
	}
	return out
}

// Renew replaces old with a new session for the same principal and
// authorization, then invalidates old. old must still be live in the store
// of record; a logged-out session yields [ErrSessionNotFound]. The new session is written before
// the old one is touched, so there is no moment where neither is live.
//
// When creation fails old is left as it was. When only the invalidation of
// old fails, the new session is returned together with the *InvalidateError.
func (e *Engine) Renew(ctx context.Context, old *session.Session) (*SessionResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if old == nil {
		return nil, ErrInvalidPrincipal
	}
	if old.Expired(e.clock.Unix()) {
		return nil, ErrExpired
	}

	res := e.flows.Renew(ctx, old)
	if res.Rejected.Failure != internalflows.ValidateFailureNone {
		err := e.validateError(res.Rejected)
		e.emitAudit(ctx, auditEventSessionRejected, false, old.Principal(), old.SessionID, err, func() map[string]string {
			return map[string]string{"renewal": "true"}
		})
		return nil, err
	}
	if res.Created.Failure != internalflows.CreateFailureNone {
		err := e.createError(res.Created)
		e.metricInc(MetricSessionCreateFailed)
		e.emitAudit(ctx, auditEventSessionCreateFailed, false, old.Principal(), old.SessionID, err, func() map[string]string {
			return map[string]string{"renewal": "true"}
		})
		return nil, err
	}

	out := sessionResult(res.Created)
	e.metricInc(MetricSessionCreated)
	e.metricInc(MetricSessionRenewed)
	e.emitAudit(ctx, auditEventSessionRenewed, true, old.Principal(), out.Session.SessionID, nil, func() map[string]string {
		return map[string]string{"previous_session_id": old.SessionID}
	})

	if len(res.Failed) > 0 {
		err := e.invalidateError(old.SessionID, "", res.Failed)
		e.metricInc(MetricInvalidateFailure)
		e.emitInvalidateFailures(ctx, old.SessionID, "", err)
		return out, err
	}
	e.metricInc(MetricSessionInvalidated)
	return out, nil
}

// EncodeToken signs s again without touching any store. The authorizer
// endpoint uses it to hand a fresh token to downstream services.
func (e *Engine) EncodeToken(s *session.Session) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}
	token, err := e.jwtManager.Encode(s)
	if err != nil {
		return "", wrapKind(ErrInvalidPrincipal, err)
	}
	return token, nil
}

// LegacyAuthorizations loads a user from the legacy tables together with
// the authorization they hold today. A credential verifier calls it before
// CreateSession.
func (e *Engine) LegacyAuthorizations(ctx context.Context, userID string) (session.Principal, permission.Authorization, error) {
	if !e.ready() || e.legacyStore == nil {
		return session.Principal{}, permission.Authorization{}, ErrEngineNotReady
	}

	user, err := e.legacyStore.LoadUser(ctx, userID)
	if err != nil {
		return session.Principal{}, permission.Authorization{}, legacyLookupError(err)
	}
	authz, err := e.legacyStore.Authorizations(ctx, userID)
	if err != nil {
		return session.Principal{}, permission.Authorization{}, legacyLookupError(err)
	}
	return session.Principal{User: user}, authz, nil
}

func legacyLookupError(err error) error {
	if isStoreUnavailable(err) {
		return wrapKind(ErrStoreUnavailable, err)
	}
	return wrapKind(ErrInvalidPrincipal, err)
}

// Health pings every configured store.
func (e *Engine) Health(ctx context.Context) Health {
	var h Health
	if e == nil {
		return h
	}
	if e.legacyStore != nil {
		d, err := e.legacyStore.Ping(ctx)
		h.Stores = append(h.Stores, StoreHealth{Store: internalflows.StoreLegacy, Latency: d, Err: err})
	}
	if e.sessionStore != nil {
		d, err := e.sessionStore.Ping(ctx)
		h.Stores = append(h.Stores, StoreHealth{Store: internalflows.StoreDistributed, Latency: d, Err: err})
	}
	return h
}
