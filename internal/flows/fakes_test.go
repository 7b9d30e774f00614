package flows

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrEthical07/goSession/permission"
	"github.com/MrEthical07/goSession/session"
)

var (
	errFakeDuplicate   = errors.New("fake duplicate")
	errFakeNotFound    = errors.New("fake not found")
	errFakeUnavailable = errors.New("fake unavailable")
)

type memStore struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
	deleted  []string

	createErr     error
	invalidateErr error
	loadErr       error
	deleteErr     error
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]*session.Session)}
}

func (m *memStore) create(sess *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.sessions[sess.SessionID]; ok {
		return errFakeDuplicate
	}
	m.sessions[sess.SessionID] = sess.Clone()
	return nil
}

func (m *memStore) Load(_ context.Context, sessionID string) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, errFakeNotFound
	}
	return s.Clone(), nil
}

func (m *memStore) Invalidate(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.invalidateErr != nil {
		return m.invalidateErr
	}
	delete(m.sessions, sessionID)
	return nil
}

func (m *memStore) InvalidateAllForUser(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.invalidateErr != nil {
		return 0, m.invalidateErr
	}
	n := 0
	for id, s := range m.sessions {
		if s.PrincipalID() == userID {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.sessions, sessionID)
	m.deleted = append(m.deleted, sessionID)
	return nil
}

func (m *memStore) has(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[sessionID]
	return ok
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// fakeLegacy assigns session ids from nextID, as the tapir table does.
type fakeLegacy struct {
	*memStore
	nextID func() (string, error)
}

func (f fakeLegacy) Create(_ context.Context, sess *session.Session, _ string) error {
	if f.createErr != nil {
		return f.createErr
	}
	id, err := f.nextID()
	if err != nil {
		return err
	}
	sess.SessionID = id
	return f.create(sess)
}

type fakeDistributed struct{ *memStore }

func (f fakeDistributed) Create(_ context.Context, sess *session.Session) error {
	return f.create(sess)
}

// seqIDs returns ids from ids in order, then fails.
func seqIDs(ids ...string) func() (string, error) {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if i >= len(ids) {
			return "", errors.New("ids exhausted")
		}
		id := ids[i]
		i++
		return id, nil
	}
}

var testNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func testUser() *session.User {
	return &session.User{UserID: "4", Username: "jdoe", Email: "jdoe@example.org"}
}

func testAuthz() permission.Authorization {
	return permission.Authorization{
		Scopes: permission.NewScopes(permission.ScopeUploadWrite, permission.ScopeUploadRead),
		Endorsements: []permission.Endorsement{
			permission.Endorse("astro-ph", "GA"),
			permission.Endorse("astro-ph", "CO"),
		},
	}
}

// fakeToken encodes the session by id; fakeDecoder looks it back up.
type fakeTokens struct {
	mu     sync.Mutex
	issued map[string]*session.Session
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{issued: make(map[string]*session.Session)}
}

func (f *fakeTokens) encode(s *session.Session) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok := "tok-" + s.SessionID
	f.issued[tok] = s.Clone()
	return tok, nil
}

func (f *fakeTokens) decode(tok string) (*session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.issued[tok]
	if !ok {
		return nil, fmt.Errorf("unknown token %q", tok)
	}
	return s.Clone(), nil
}

type flowFixture struct {
	legacy      *memStore
	distributed *memStore
	tokens      *fakeTokens
	create      CreateDeps
	invalidate  InvalidateDeps
}

func newFlowFixture(writeLegacy, writeDistributed bool, ids ...string) *flowFixture {
	f := &flowFixture{
		legacy:      newMemStore(),
		distributed: newMemStore(),
		tokens:      newFakeTokens(),
	}
	targets := Targets{
		WriteLegacy:      writeLegacy,
		WriteDistributed: writeDistributed,
		Legacy:           fakeLegacy{memStore: f.legacy, nextID: seqIDs(ids...)},
		Distributed:      fakeDistributed{f.distributed},
	}
	f.create = CreateDeps{
		Targets:      targets,
		NewSessionID: seqIDs(ids...),
		NewNonce:     func() (string, error) { return "12345678", nil },
		Now:          func() time.Time { return testNow },
		Lifetime:     10 * time.Hour,
		EncodeToken:  f.tokens.encode,
		EncodeCookie: func(s *session.Session) (string, error) { return "cookie-" + s.SessionID, nil },
		IsDuplicate:  func(err error) bool { return errors.Is(err, errFakeDuplicate) },
	}
	f.invalidate = InvalidateDeps{Targets: targets}
	return f
}
