package flows

import (
	"context"

	"github.com/MrEthical07/goSession/session"
)

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Validate.DecodeToken != nil && s.deps.Create.NewSessionID != nil
}

func (s Service) Create(ctx context.Context, req CreateRequest) CreateResult {
	return RunCreate(ctx, req, s.deps.Create)
}

func (s Service) Validate(ctx context.Context, token string, routeMode int) ValidateResult {
	return RunValidate(ctx, token, routeMode, s.deps.Validate)
}

func (s Service) ValidateCookie(ctx context.Context, cookie string) ValidateResult {
	return RunValidateCookie(ctx, cookie, s.deps.Cookie)
}

func (s Service) Invalidate(ctx context.Context, sessionID string) []StoreFailure {
	return RunInvalidate(ctx, sessionID, s.deps.Invalidate)
}

func (s Service) InvalidateAllForUser(ctx context.Context, userID string) InvalidateAllResult {
	return RunInvalidateAllForUser(ctx, userID, s.deps.Invalidate)
}

func (s Service) Renew(ctx context.Context, old *session.Session) RenewResult {
	return RunRenew(ctx, old, s.deps.Validate, s.deps.Create, s.deps.Invalidate)
}
