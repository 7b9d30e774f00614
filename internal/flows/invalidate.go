package flows

import (
	"context"
	"strconv"
)

// StoreFailure names a store whose invalidation failed. The session may still
// be honored by that store until it clears or expires.
type StoreFailure struct {
	Store string
	Err   error
}

// InvalidateDeps captures invalidation dependencies.
type InvalidateDeps struct {
	Targets
}

// RunInvalidate calls Invalidate on every target store, continuing past
// failures, and returns the stores that failed. A nil result is success.
func RunInvalidate(ctx context.Context, sessionID string, deps InvalidateDeps) []StoreFailure {
	var failed []StoreFailure
	if deps.WriteLegacy {
		if err := invalidateLegacy(ctx, sessionID, deps.Legacy); err != nil {
			failed = append(failed, StoreFailure{Store: StoreLegacy, Err: err})
		}
	}
	if deps.WriteDistributed {
		if err := invalidateDistributed(ctx, sessionID, deps.Distributed); err != nil {
			failed = append(failed, StoreFailure{Store: StoreDistributed, Err: err})
		}
	}
	return failed
}

func invalidateLegacy(ctx context.Context, sessionID string, store LegacyStore) error {
	if store == nil {
		return errNoStore
	}
	return store.Invalidate(ctx, sessionID)
}

func invalidateDistributed(ctx context.Context, sessionID string, store DistributedStore) error {
	if store == nil {
		return errNoStore
	}
	return store.Invalidate(ctx, sessionID)
}

// InvalidateAllResult reports how many sessions each store ended and which
// stores failed.
type InvalidateAllResult struct {
	Legacy      int
	Distributed int
	Failed      []StoreFailure
}

// Total is the number of session records ended across stores. A session
// written to both stores counts twice.
func (r InvalidateAllResult) Total() int {
	return r.Legacy + r.Distributed
}

// RunInvalidateAllForUser ends every live session of userID in every target
// store. The legacy store only knows numeric user ids; other principals are
// skipped there.
func RunInvalidateAllForUser(ctx context.Context, userID string, deps InvalidateDeps) InvalidateAllResult {
	var res InvalidateAllResult
	if deps.WriteLegacy && isLegacyUserID(userID) {
		if deps.Legacy == nil {
			res.Failed = append(res.Failed, StoreFailure{Store: StoreLegacy, Err: errNoStore})
		} else if n, err := deps.Legacy.InvalidateAllForUser(ctx, userID); err != nil {
			res.Failed = append(res.Failed, StoreFailure{Store: StoreLegacy, Err: err})
		} else {
			res.Legacy = n
		}
	}
	if deps.WriteDistributed {
		if deps.Distributed == nil {
			res.Failed = append(res.Failed, StoreFailure{Store: StoreDistributed, Err: errNoStore})
		} else if n, err := deps.Distributed.InvalidateAllForUser(ctx, userID); err != nil {
			res.Failed = append(res.Failed, StoreFailure{Store: StoreDistributed, Err: err})
		} else {
			res.Distributed = n
		}
	}
	return res
}

func isLegacyUserID(id string) bool {
	n, err := strconv.ParseInt(id, 10, 64)
	return err == nil && n > 0
}
