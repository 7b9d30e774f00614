package session

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/permission"
)

var (
	// ErrInvalidSession is returned by Validate for a structurally unusable session.
	ErrInvalidSession = errors.New("invalid session")
	// ErrNoPrincipal is returned when a session has neither a user nor a client.
	ErrNoPrincipal = errors.New("session has no principal")
)

// Session binds a principal to the authorization granted at creation. Times
// are absolute unix seconds; EndTime is the hard expiry.
type Session struct {
	SessionID string

	User   *User
	Client *Client

	Authorization permission.Authorization

	StartTime int64
	EndTime   int64

	IPAddress  string
	RemoteHost string
	Nonce      string
}

// FullName is a user's display name parts.
type FullName struct {
	Forename string
	Surname  string
	Suffix   string
}

func (n FullName) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{n.Forename, n.Surname, n.Suffix} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Profile holds the user attributes carried with a session.
type Profile struct {
	Affiliation     string
	Country         string
	Rank            int
	DefaultCategory permission.Category
	HomepageURL     string
}

// User is a registered user principal. UserID is the decimal id used by the
// legacy tables.
type User struct {
	UserID   string
	Username string
	Email    string
	Name     FullName
	Profile  *Profile
}

// Client is an API client principal. OwnerID is the user that registered it.
type Client struct {
	ClientID string
	OwnerID  string
}

// Principal is the authenticated entity supplied to session creation. Setting
// both fields describes delegated access by a client on behalf of a user.
type Principal struct {
	User   *User
	Client *Client
}

// Validate reports whether p names at least one identity.
func (p Principal) Validate() error {
	if p.User == nil && p.Client == nil {
		return ErrNoPrincipal
	}
	if p.User != nil && p.User.UserID == "" {
		return errors.New("user principal without id")
	}
	if p.Client != nil && p.Client.ClientID == "" {
		return errors.New("client principal without id")
	}
	return nil
}

// ID returns the user id, or the client id for a client-only principal.
func (p Principal) ID() string {
	if p.User != nil {
		return p.User.UserID
	}
	if p.Client != nil {
		return p.Client.ClientID
	}
	return ""
}

// Principal returns the identities s was created for.
func (s *Session) Principal() Principal {
	return Principal{User: s.User, Client: s.Client}
}

// PrincipalID is shorthand for s.Principal().ID().
func (s *Session) PrincipalID() string {
	return s.Principal().ID()
}

// Live reports StartTime <= now < EndTime. It does not consult any store.
func (s *Session) Live(now int64) bool {
	return s.StartTime <= now && now < s.EndTime
}

// Expired reports now >= EndTime.
func (s *Session) Expired(now int64) bool {
	return now >= s.EndTime
}

// TTL returns the time remaining until EndTime, never negative.
func (s *Session) TTL(now time.Time) time.Duration {
	ttl := time.Unix(s.EndTime, 0).Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// Validate checks the structural invariants every stored or encoded session
// must satisfy.
func (s *Session) Validate() error {
	if s == nil {
		return ErrInvalidSession
	}
	if s.SessionID == "" {
		return errors.Join(ErrInvalidSession, errors.New("empty session id"))
	}
	if err := s.Principal().Validate(); err != nil {
		return errors.Join(ErrInvalidSession, err)
	}
	if s.StartTime >= s.EndTime {
		return errors.Join(ErrInvalidSession, errors.New("start time not before end time"))
	}
	return nil
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.User != nil {
		u := *s.User
		if s.User.Profile != nil {
			p := *s.User.Profile
			u.Profile = &p
		}
		out.User = &u
	}
	if s.Client != nil {
		c := *s.Client
		out.Client = &c
	}
	out.Authorization = s.Authorization.Clone()
	return &out
}
