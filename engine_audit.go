package goSession

import (
	"context"
	"errors"
	"strconv"

	internalflows "github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/session"
)

const (
	auditEventSessionCreated          = "session_created"
	auditEventSessionCreateFailed     = "session_create_failed"
	auditEventSessionRollback         = "session_rollback"
	auditEventSessionValidated        = "session_validated"
	auditEventSessionRejected         = "session_rejected"
	auditEventSessionInvalidated      = "session_invalidated"
	auditEventSessionInvalidateFailed = "session_invalidate_failed"
	auditEventSessionRenewed          = "session_renewed"
	auditEventLogoutAll               = "logout_all"
)

// AuditErrorCode is the stable error label written into [AuditEvent.Error].
type AuditErrorCode string

const (
	auditErrMalformedToken     AuditErrorCode = "malformed_token"
	auditErrSignatureInvalid   AuditErrorCode = "signature_invalid"
	auditErrExpired            AuditErrorCode = "expired"
	auditErrSessionNotFound    AuditErrorCode = "session_not_found"
	auditErrInconsistentWrite  AuditErrorCode = "inconsistent_write"
	auditErrInvalidPrincipal   AuditErrorCode = "invalid_principal"
	auditErrInvalidRouteMode   AuditErrorCode = "invalid_route_mode"
	auditErrCreationFailed     AuditErrorCode = "session_creation_failed"
	auditErrInvalidationFailed AuditErrorCode = "session_invalidation_failed"
	auditErrUnavailable        AuditErrorCode = "store_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	principal session.Principal,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.clock.Now().UTC(),
		EventType: eventType,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if principal.User != nil {
		event.UserID = principal.User.UserID
	}
	if principal.Client != nil {
		event.ClientID = principal.Client.ClientID
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

// emitRollback records the outcome of undoing a legacy write after a later
// step of creation failed.
func (e *Engine) emitRollback(ctx context.Context, principal session.Principal, res internalflows.CreateResult) {
	e.metricInc(MetricSessionRollback)
	if res.RollbackErr != nil {
		e.log.Error().
			Err(res.RollbackErr).
			AnErr("write_error", res.Err).
			Str("principal_id", principal.ID()).
			Msg("legacy rollback failed; legacy session may outlive its distributed twin")
	} else {
		e.log.Warn().
			Err(res.Err).
			Str("principal_id", principal.ID()).
			Msg("session creation failed after legacy write; legacy session rolled back")
	}

	e.emitAudit(ctx, auditEventSessionRollback, res.RolledBack, principal, "", res.RollbackErr, func() map[string]string {
		return map[string]string{
			"store":       internalflows.StoreLegacy,
			"rolled_back": strconv.FormatBool(res.RolledBack),
		}
	})
}

func (e *Engine) emitInvalidateFailures(ctx context.Context, sessionID, userID string, err *InvalidateError) {
	if e == nil || e.audit == nil || err == nil {
		return
	}
	for _, f := range err.Failed {
		event := AuditEvent{
			Timestamp: e.clock.Now().UTC(),
			EventType: auditEventSessionInvalidateFailed,
			UserID:    userID,
			SessionID: sessionID,
			IP:        clientIPFromContext(ctx),
			Store:     f.Store,
			Error:     string(auditErrorCode(f.Err)),
		}
		e.audit.Emit(ctx, event)
	}
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInconsistentWrite):
		return auditErrInconsistentWrite
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrUnavailable
	case errors.Is(err, ErrMalformedToken):
		return auditErrMalformedToken
	case errors.Is(err, ErrSignatureInvalid):
		return auditErrSignatureInvalid
	case errors.Is(err, ErrExpired):
		return auditErrExpired
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrInvalidPrincipal):
		return auditErrInvalidPrincipal
	case errors.Is(err, ErrInvalidRouteMode):
		return auditErrInvalidRouteMode
	case errors.Is(err, ErrSessionCreationFailed):
		return auditErrCreationFailed
	case errors.Is(err, ErrSessionInvalidationFailed):
		return auditErrInvalidationFailed
	default:
		return auditErrInternal
	}
}
