package flows

import (
	"context"

	"github.com/MrEthical07/goSession/session"
)

// Store names reported in write and invalidate failures.
const (
	StoreLegacy      = "legacy"
	StoreDistributed = "distributed"
)

// LegacyStore is the relational adapter surface the flows use. Create
// assigns sess.SessionID from the row it inserts.
type LegacyStore interface {
	Create(ctx context.Context, sess *session.Session, trackingCookie string) error
	Load(ctx context.Context, sessionID string) (*session.Session, error)
	Invalidate(ctx context.Context, sessionID string) error
	InvalidateAllForUser(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, sessionID string) error
}

// DistributedStore is the cache adapter surface the flows use.
type DistributedStore interface {
	Create(ctx context.Context, sess *session.Session) error
	Load(ctx context.Context, sessionID string) (*session.Session, error)
	Invalidate(ctx context.Context, sessionID string) error
	InvalidateAllForUser(ctx context.Context, principalID string) (int, error)
}

// Targets names the stores the deployment mode writes to. Both flags false
// is rejected by the root config before any flow runs.
type Targets struct {
	WriteLegacy      bool
	WriteDistributed bool
	Legacy           LegacyStore
	Distributed      DistributedStore
}

// Deps groups flow dependency sets. Root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	Create     CreateDeps
	Validate   ValidateDeps
	Cookie     CookieDeps
	Invalidate InvalidateDeps
}
