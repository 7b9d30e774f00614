package legacy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/internal"
	"github.com/MrEthical07/goSession/permission"
	"github.com/MrEthical07/goSession/session"
	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

var (
	// ErrNotFound is returned when no live session row exists. Absence is an
	// expected outcome, not a fault.
	ErrNotFound = errors.New("legacy session not found")
	// ErrDuplicateSession is returned when a session id is already stored.
	ErrDuplicateSession = errors.New("legacy session already exists")
	// ErrUnavailable wraps connectivity and driver failures.
	ErrUnavailable = errors.New("legacy store unavailable")
	// ErrUnsupportedPrincipal is returned for principals without a numeric
	// legacy user id.
	ErrUnsupportedPrincipal = errors.New("principal has no legacy user id")
)

// StoreConfig configures a [Store].
type StoreConfig struct {
	// SessionDuration expires rows that older components wrote with end_time = 0.
	SessionDuration time.Duration
	// Policies maps policy_class to scopes. Nil uses the default registry.
	Policies *permission.PolicyRegistry
	Now      func() time.Time
}

// Store reads and writes sessions in the tapir tables. Every operation
// touches only the rows of the session or user it is given.
type Store struct {
	db       bun.IDB
	duration time.Duration
	policies *permission.PolicyRegistry
	clock    internal.Clock
}

// NewStore returns a Store over db, which may be a *bun.DB or a bun.Tx.
func NewStore(db bun.IDB, cfg StoreConfig) *Store {
	policies := cfg.Policies
	if policies == nil {
		policies = permission.DefaultPolicyRegistry()
	}
	duration := cfg.SessionDuration
	if duration <= 0 {
		duration = 2 * time.Hour
	}
	return &Store{
		db:       db,
		duration: duration,
		policies: policies,
		clock:    internal.Clock(cfg.Now),
	}
}

// Create inserts the session, audit and snapshot rows in one transaction.
// tapir_sessions assigns the numeric session id, which is written back to
// sess.SessionID; any id sess already carries is ignored.
func (s *Store) Create(ctx context.Context, sess *session.Session, trackingCookie string) error {
	if err := sess.Principal().Validate(); err != nil {
		return err
	}
	if sess.StartTime >= sess.EndTime {
		return session.ErrInvalidSession
	}
	userID, err := legacyUserID(sess)
	if err != nil {
		return err
	}

	row := &TapirSession{
		UserID:    userID,
		StartTime: sess.StartTime,
		EndTime:   sess.EndTime,
	}
	audit := &TapirSessionAudit{
		IPAddr:         sess.IPAddress,
		RemoteHost:     sess.RemoteHost,
		TrackingCookie: trackingCookie,
	}
	snapshot := snapshotFor(sess)

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return err
		}
		if row.SessionID <= 0 {
			return errNoInsertID
		}
		audit.SessionID = row.SessionID
		snapshot.SessionID = row.SessionID
		if _, err := tx.NewInsert().Model(audit).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewInsert().Model(snapshot).Exec(ctx); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: %d", ErrDuplicateSession, row.SessionID)
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	sess.SessionID = FormatSessionID(row.SessionID)
	return nil
}

var errNoInsertID = errors.New("tapir_sessions returned no session id")

// ParseSessionID parses the decimal session id used by tapir_sessions and the
// legacy cookie. Only canonical positive decimals are accepted.
func ParseSessionID(sessionID string) (int64, bool) {
	id, err := strconv.ParseInt(sessionID, 10, 64)
	if err != nil || id <= 0 || strconv.FormatInt(id, 10) != sessionID {
		return 0, false
	}
	return id, true
}

// FormatSessionID renders a tapir session id.
func FormatSessionID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Load returns the live session stored under sessionID.
func (s *Store) Load(ctx context.Context, sessionID string) (*session.Session, error) {
	id, ok := ParseSessionID(sessionID)
	if !ok {
		return nil, ErrNotFound
	}

	row := new(TapirSession)
	err := s.db.NewSelect().
		Model(row).
		Where("session_id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	end := s.effectiveEnd(row)
	if end <= s.clock.Unix() {
		return nil, ErrNotFound
	}

	sess := &session.Session{
		SessionID: FormatSessionID(row.SessionID),
		StartTime: row.StartTime,
		EndTime:   end,
	}

	audit := new(TapirSessionAudit)
	err = s.db.NewSelect().Model(audit).Where("session_id = ?", id).Scan(ctx)
	switch {
	case err == nil:
		sess.IPAddress = audit.IPAddr
		sess.RemoteHost = audit.RemoteHost
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	snapshot := new(SessionAuthorization)
	err = s.db.NewSelect().Model(snapshot).Where("session_id = ?", id).Scan(ctx)
	switch {
	case err == nil:
		if err := s.applySnapshot(ctx, sess, row.UserID, snapshot); err != nil {
			return nil, err
		}
	case errors.Is(err, sql.ErrNoRows):
		// Written by an older component: rights come from the user tables.
		userID := strconv.FormatInt(row.UserID, 10)
		user, err := s.LoadUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		authz, err := s.Authorizations(ctx, userID)
		if err != nil {
			return nil, err
		}
		sess.User = user
		sess.Authorization = authz
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return sess, nil
}

func (s *Store) applySnapshot(ctx context.Context, sess *session.Session, userID int64, snap *SessionAuthorization) error {
	authz, err := snapshotAuthorization(snap)
	if err != nil {
		return fmt.Errorf("%w: session %s: %v", ErrUnavailable, sess.SessionID, err)
	}
	sess.Authorization = authz
	sess.Nonce = snap.Nonce

	// A deleted account ends its sessions; every other account edit waits
	// for the next session.
	if _, err := s.loadUserRow(ctx, strconv.FormatInt(userID, 10)); err != nil {
		return err
	}
	if snap.UserBound {
		sess.User = snapshotUser(userID, snap)
	}
	if snap.ClientID != "" {
		sess.Client = &session.Client{ClientID: snap.ClientID, OwnerID: snap.OwnerID}
	}
	if sess.User == nil && sess.Client == nil {
		return ErrNotFound
	}
	return nil
}

func (s *Store) effectiveEnd(row *TapirSession) int64 {
	if row.EndTime != 0 {
		return row.EndTime
	}
	return row.StartTime + int64(s.duration/time.Second)
}

// Invalidate marks the session ended as of one second ago. Invalidating an
// unknown or already ended session is not an error.
func (s *Store) Invalidate(ctx context.Context, sessionID string) error {
	id, ok := ParseSessionID(sessionID)
	if !ok {
		return nil
	}
	_, err := s.db.NewUpdate().
		Model((*TapirSession)(nil)).
		Set("end_time = ?", s.clock.Unix()-1).
		Where("session_id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// InvalidateAllForUser ends every live session of userID and returns how
// many rows changed.
func (s *Store) InvalidateAllForUser(ctx context.Context, userID string) (int, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return 0, ErrUnsupportedPrincipal
	}

	now := s.clock.Unix()
	res, err := s.db.NewUpdate().
		Model((*TapirSession)(nil)).
		Set("end_time = ?", now-1).
		Where("user_id = ?", id).
		WhereGroup(" AND ", func(q *bun.UpdateQuery) *bun.UpdateQuery {
			return q.Where("end_time = 0").WhereOr("end_time > ?", now)
		}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return rowsAffected(res)
}

func rowsAffected(res sql.Result) (int, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: rows affected: %v", ErrUnavailable, err)
	}
	return int(n), nil
}

// Delete hard-deletes every row of the session. It is the compensating
// action for a dual write that failed after this store succeeded.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	id, ok := ParseSessionID(sessionID)
	if !ok {
		return nil
	}
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*SessionAuthorization)(nil)).Where("session_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*TapirSessionAudit)(nil)).Where("session_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*TapirSession)(nil)).Where("session_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// LoadUser builds the user principal from tapir_users, the primary nickname
// and the demographics row. Deleted users are reported as not found.
func (s *Store) LoadUser(ctx context.Context, userID string) (*session.User, error) {
	row, err := s.loadUserRow(ctx, userID)
	if err != nil {
		return nil, err
	}

	user := &session.User{
		UserID: strconv.FormatInt(row.UserID, 10),
		Email:  row.Email,
		Name: session.FullName{
			Forename: row.FirstName,
			Surname:  row.LastName,
			Suffix:   row.SuffixName,
		},
	}

	nick := new(TapirNickname)
	err = s.db.NewSelect().
		Model(nick).
		Where("user_id = ?", row.UserID).
		OrderExpr("flag_primary DESC, nick_id ASC").
		Limit(1).
		Scan(ctx)
	switch {
	case err == nil:
		user.Username = nick.Nickname
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	demo := new(Demographic)
	err = s.db.NewSelect().Model(demo).Where("user_id = ?", row.UserID).Scan(ctx)
	switch {
	case err == nil:
		user.Profile = profileFrom(demo)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return user, nil
}

func (s *Store) loadUserRow(ctx context.Context, userID string) (*TapirUser, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return nil, ErrUnsupportedPrincipal
	}

	row := new(TapirUser)
	err = s.db.NewSelect().Model(row).Where("user_id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if row.FlagDeleted != 0 {
		return nil, ErrNotFound
	}
	return row, nil
}

// Ping runs a trivial query and reports its latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	var one int
	if err := s.db.NewSelect().ColumnExpr("1").Scan(ctx, &one); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return time.Since(start), nil
}

func profileFrom(d *Demographic) *session.Profile {
	p := &session.Profile{
		Affiliation: d.Affiliation,
		Country:     d.Country,
		HomepageURL: d.URL,
	}
	if d.Rank != nil {
		p.Rank = *d.Rank
	}
	if d.Archive != nil {
		p.DefaultCategory.Archive = *d.Archive
	}
	if d.SubjectClass != nil {
		p.DefaultCategory.Subject = *d.SubjectClass
	}
	return p
}

func snapshotFor(sess *session.Session) *SessionAuthorization {
	authz := sess.Authorization.Normalize()

	endorsements := make([]string, len(authz.Endorsements))
	for i, e := range authz.Endorsements {
		endorsements[i] = e.String()
	}

	snap := &SessionAuthorization{
		Classic:      int64(authz.Classic),
		Scopes:       strings.Join(authz.Scopes, " "),
		Endorsements: strings.Join(endorsements, " "),
		UserBound:    sess.User != nil,
		Nonce:        sess.Nonce,
	}
	if sess.Client != nil {
		snap.ClientID = sess.Client.ClientID
		snap.OwnerID = sess.Client.OwnerID
	}
	if u := sess.User; u != nil {
		snap.Username = u.Username
		snap.Email = u.Email
		snap.Forename = u.Name.Forename
		snap.Surname = u.Name.Surname
		snap.Suffix = u.Name.Suffix
		if p := u.Profile; p != nil {
			snap.HasProfile = true
			snap.Affiliation = p.Affiliation
			snap.Country = p.Country
			snap.Rank = p.Rank
			snap.DefaultCategory = p.DefaultCategory.String()
			snap.HomepageURL = p.HomepageURL
		}
	}
	return snap
}

func snapshotUser(userID int64, snap *SessionAuthorization) *session.User {
	user := &session.User{
		UserID:   strconv.FormatInt(userID, 10),
		Username: snap.Username,
		Email:    snap.Email,
		Name: session.FullName{
			Forename: snap.Forename,
			Surname:  snap.Surname,
			Suffix:   snap.Suffix,
		},
	}
	if snap.HasProfile {
		user.Profile = &session.Profile{
			Affiliation: snap.Affiliation,
			Country:     snap.Country,
			Rank:        snap.Rank,
			HomepageURL: snap.HomepageURL,
		}
		if c, err := permission.ParseCategory(snap.DefaultCategory); err == nil {
			user.Profile.DefaultCategory = c
		}
	}
	return user
}

func snapshotAuthorization(snap *SessionAuthorization) (permission.Authorization, error) {
	authz := permission.Authorization{
		Classic: permission.Privilege(snap.Classic),
		Scopes:  permission.NewScopes(strings.Fields(snap.Scopes)...),
	}
	for _, field := range strings.Fields(snap.Endorsements) {
		e, err := permission.ParseEndorsement(field)
		if err != nil {
			return permission.Authorization{}, err
		}
		authz.Endorsements = append(authz.Endorsements, e)
	}
	return authz.Normalize(), nil
}

// legacyUserID returns the numeric id the tapir tables key the session on.
func legacyUserID(sess *session.Session) (int64, error) {
	raw := ""
	switch {
	case sess.User != nil:
		raw = sess.User.UserID
	case sess.Client != nil:
		raw = sess.Client.OwnerID
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrUnsupportedPrincipal
	}
	return id, nil
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}

	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "23505")
}
