package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/internal"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrRedisUnavailable wraps every transport or cluster failure.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrSessionNotFound is returned when no record exists for the id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExists is returned by Create when the id is already stored.
	ErrSessionExists = errors.New("session already exists")
	// ErrSessionExpired is returned for a record whose end time has passed.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionCorrupt is returned when a stored record cannot be decoded.
	ErrSessionCorrupt = errors.New("session record corrupt")
)

// Store is a Redis-backed distributed session store. It accepts any
// redis.UniversalClient, so single-node, sentinel and cluster deployments
// share one code path.
//
//	Docs: docs/session.md
type Store struct {
	redis  redis.UniversalClient
	prefix string
	clock  internal.Clock
}

// NewStore creates a session [Store] backed by the given Redis client.
// prefix sets the key namespace; now may be nil to use wall time.
func NewStore(rdb redis.UniversalClient, prefix string, now func() time.Time) *Store {
	if prefix == "" {
		prefix = "gosession"
	}
	return &Store{
		redis:  rdb,
		prefix: prefix,
		clock:  internal.Clock(now),
	}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":s:" + sessionID
}

func (s *Store) userKey(principalID string) string {
	return s.prefix + ":u:" + principalID
}

// Create writes sess with a TTL equal to the time left until its end time.
// An existing record for the same id is never overwritten.
//
//	Performance: index pipeline (SADD + EXPIRE) then one SET NX.
func (s *Store) Create(ctx context.Context, sess *Session) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}

	ttl := sess.TTL(s.clock.Now())
	if ttl <= 0 {
		return ErrSessionExpired
	}

	// The index entry goes first: a dangling id in the index is harmless,
	// while a record missing from it would escape logout-all.
	userKey := s.userKey(sess.PrincipalID())
	_, err = s.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, userKey, sess.SessionID)
		pipe.Expire(ctx, userKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	ok, err := s.redis.SetNX(ctx, s.key(sess.SessionID), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if !ok {
		return ErrSessionExists
	}

	return nil
}

// Load returns the live session stored under sessionID. A record decoded
// just before its TTL eviction is still rejected by comparing its end time.
//
//	Performance: 1 Redis GET.
func (s *Store) Load(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errors.Join(ErrSessionNotFound, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCorrupt, err)
	}
	if sess.SessionID != sessionID {
		return nil, fmt.Errorf("%w: record id %q under key for %q", ErrSessionCorrupt, sess.SessionID, sessionID)
	}
	if sess.Expired(s.clock.Unix()) {
		return nil, ErrSessionExpired
	}

	return sess, nil
}

// Invalidate removes the record for sessionID. Invalidating an absent
// session is not an error.
//
//	Performance: 1 GETDEL plus a best-effort SREM when the record existed.
func (s *Store) Invalidate(ctx context.Context, sessionID string) error {
	data, err := s.redis.GetDel(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// The record is gone; a stale index entry only costs one extra DEL later.
	if sess, decErr := Decode(data); decErr == nil {
		_ = s.redis.SRem(ctx, s.userKey(sess.PrincipalID()), sessionID).Err()
	}
	return nil
}

// InvalidateAllForUser removes every indexed session of principalID and
// returns how many records were deleted.
//
// The index is read, then each record is deleted with its own DEL so the
// operation never issues a cross-slot command. A session created between
// the read and the deletes survives; callers needing a hard cut can repeat
// the call.
func (s *Store) InvalidateAllForUser(ctx context.Context, principalID string) (int, error) {
	userKey := s.userKey(principalID)

	sessionIDs, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(sessionIDs) == 0 {
		return 0, nil
	}

	cmds := make([]*redis.IntCmd, len(sessionIDs))
	_, err = s.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, sid := range sessionIDs {
			cmds[i] = pipe.Del(ctx, s.key(sid))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var deleted int
	for _, cmd := range cmds {
		deleted += int(cmd.Val())
	}

	if err := s.redis.SRem(ctx, userKey, toArgs(sessionIDs)...).Err(); err != nil {
		return deleted, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return deleted, nil
}

// ActiveSessionIDs returns the indexed session ids of principalID that still
// have a record.
func (s *Store) ActiveSessionIDs(ctx context.Context, principalID string) ([]string, error) {
	ids, err := s.redis.SMembers(ctx, s.userKey(principalID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(ids) == 0 {
		return []string{}, nil
	}

	cmds := make([]*redis.IntCmd, len(ids))
	_, err = s.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, sid := range ids {
			cmds[i] = pipe.Exists(ctx, s.key(sid))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	active := make([]string, 0, len(ids))
	for i, cmd := range cmds {
		if cmd.Val() > 0 {
			active = append(active, ids[i])
		}
	}
	return active, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

func toArgs(ids []string) []interface{} {
	out := make([]interface{}, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
