package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/permission"
	"github.com/MrEthical07/goSession/session"
)

// maxIDAttempts bounds session id regeneration after a duplicate-key write.
const maxIDAttempts = 3

// CreateFailureKind classifies create failures for root-level mapping.
type CreateFailureKind int

const (
	CreateFailureNone CreateFailureKind = iota
	CreateFailureInvalidPrincipal
	CreateFailureIDGeneration
	CreateFailureEncode
	CreateFailureLegacyWrite
	CreateFailureDistributedWrite
)

// CreateRequest carries the verified principal and the request context fields
// recorded with the session.
type CreateRequest struct {
	Principal      session.Principal
	Authorization  permission.Authorization
	IPAddress      string
	RemoteHost     string
	TrackingCookie string
}

// CreateResult returns the written session and its encodings, or a classified
// failure. Store names the store whose write failed. Compensated reports
// that legacy rows were written and a compensating delete was attempted;
// RolledBack reports whether every earlier write for the session was deleted
// again.
type CreateResult struct {
	Failure      CreateFailureKind
	Err          error
	Store        string
	Compensated  bool
	RolledBack   bool
	RollbackErr  error
	Session      *session.Session
	Token        string
	LegacyCookie string
}

// CreateDeps captures session creation dependencies.
type CreateDeps struct {
	Targets
	// NewSessionID is used only when the legacy store is not written; the
	// legacy table assigns the id otherwise.
	NewSessionID func() (string, error)
	NewNonce     func() (string, error)
	Now          func() time.Time
	Lifetime     time.Duration
	EncodeToken  func(*session.Session) (string, error)
	EncodeCookie func(*session.Session) (string, error)
	// IsDuplicate reports whether a store write failed because the session
	// id is already taken; such writes are retried with a fresh id.
	IsDuplicate func(error) bool
}

// RunCreate builds a session for req and writes it to every target store.
// The legacy store is written first and assigns the session id. When a later
// step fails, the legacy rows are deleted before the failure is returned.
func RunCreate(ctx context.Context, req CreateRequest, deps CreateDeps) CreateResult {
	if err := req.Principal.Validate(); err != nil {
		return CreateResult{Failure: CreateFailureInvalidPrincipal, Err: err}
	}

	nonce, err := deps.NewNonce()
	if err != nil {
		return CreateResult{Failure: CreateFailureIDGeneration, Err: err}
	}

	now := deps.Now()
	authz := req.Authorization.Normalize()

	var last CreateResult
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		sess := &session.Session{
			User:          req.Principal.User,
			Client:        req.Principal.Client,
			Authorization: authz.Clone(),
			StartTime:     now.Unix(),
			EndTime:       now.Add(deps.Lifetime).Unix(),
			IPAddress:     req.IPAddress,
			RemoteHost:    req.RemoteHost,
			Nonce:         nonce,
		}
		if !deps.WriteLegacy {
			sid, err := deps.NewSessionID()
			if err != nil {
				return CreateResult{Failure: CreateFailureIDGeneration, Err: err}
			}
			sess.SessionID = sid
			if err := sess.Validate(); err != nil {
				return CreateResult{Failure: CreateFailureInvalidPrincipal, Err: err}
			}
		}

		last = writeSession(ctx, sess, req.TrackingCookie, deps)
		if last.Failure == CreateFailureNone || !last.duplicate(deps) {
			return last
		}
	}
	return last
}

func (r CreateResult) duplicate(deps CreateDeps) bool {
	if deps.IsDuplicate == nil || r.Err == nil {
		return false
	}
	// A duplicate id is only retried when nothing is left behind.
	if r.Store == StoreDistributed && !r.RolledBack {
		return false
	}
	return deps.IsDuplicate(r.Err)
}

func writeSession(ctx context.Context, sess *session.Session, trackingCookie string, deps CreateDeps) CreateResult {
	if deps.WriteLegacy {
		if deps.Legacy == nil {
			return CreateResult{Failure: CreateFailureLegacyWrite, Store: StoreLegacy, Err: errNoStore}
		}
		if err := deps.Legacy.Create(ctx, sess, trackingCookie); err != nil {
			return CreateResult{Failure: CreateFailureLegacyWrite, Store: StoreLegacy, Err: err, RolledBack: true}
		}
		if sess.SessionID == "" {
			return CreateResult{Failure: CreateFailureLegacyWrite, Store: StoreLegacy, Err: errNoSessionID}
		}
	}

	token, err := deps.EncodeToken(sess)
	if err != nil {
		return compensate(ctx, sess, CreateResult{Failure: CreateFailureEncode, Err: err}, deps)
	}

	var cookie string
	if deps.WriteLegacy && deps.EncodeCookie != nil {
		cookie, err = deps.EncodeCookie(sess)
		if err != nil {
			return compensate(ctx, sess, CreateResult{Failure: CreateFailureEncode, Err: err}, deps)
		}
	}

	if deps.WriteDistributed {
		var err error
		if deps.Distributed == nil {
			err = errNoStore
		} else {
			err = deps.Distributed.Create(ctx, sess)
		}
		if err != nil {
			res := CreateResult{Failure: CreateFailureDistributedWrite, Store: StoreDistributed, Err: err}
			return compensate(ctx, sess, res, deps)
		}
	}

	return CreateResult{Session: sess, Token: token, LegacyCookie: cookie}
}

// compensate deletes the legacy rows of sess when they were written.
// Cancellation of ctx must not prevent the delete.
func compensate(ctx context.Context, sess *session.Session, res CreateResult, deps CreateDeps) CreateResult {
	res.RolledBack = true
	if !deps.WriteLegacy {
		return res
	}
	res.Compensated = true
	res.RollbackErr = deps.Legacy.Delete(context.WithoutCancel(ctx), sess.SessionID)
	res.RolledBack = res.RollbackErr == nil
	return res
}

var (
	errNoStore     = errors.New("store not configured")
	errNoSessionID = errors.New("legacy store assigned no session id")
)
