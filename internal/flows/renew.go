package flows

import (
	"context"

	"github.com/MrEthical07/goSession/session"
)

// RenewResult carries the replacement session and any stores that failed to
// invalidate the superseded one. Rejected is set when old is no longer live
// in the store of record; nothing is written then.
type RenewResult struct {
	Rejected ValidateResult
	Created  CreateResult
	Failed   []StoreFailure
}

// RunRenew confirms old against the store of record, creates a replacement
// with the same principal and authorization, then invalidates old. The order
// leaves no window where neither session is live. When creation fails old is
// left untouched.
func RunRenew(ctx context.Context, old *session.Session, validate ValidateDeps, create CreateDeps, invalidate InvalidateDeps) RenewResult {
	if res, ok := confirmRecord(ctx, old, validate.LoadRecord, validate.IsUnavailable); !ok {
		return RenewResult{Rejected: res}
	}

	created := RunCreate(ctx, CreateRequest{
		Principal:     old.Principal(),
		Authorization: old.Authorization.Clone(),
		IPAddress:     old.IPAddress,
		RemoteHost:    old.RemoteHost,
	}, create)
	if created.Failure != CreateFailureNone {
		return RenewResult{Created: created}
	}

	return RenewResult{
		Created: created,
		Failed:  RunInvalidate(ctx, old.SessionID, invalidate),
	}
}
