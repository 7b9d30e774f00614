package legacy

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/permission"
	"github.com/MrEthical07/goSession/session"
)

var (
	// ErrCookieMalformed is returned for a cookie that cannot be split or parsed.
	ErrCookieMalformed = errors.New("legacy cookie malformed")
	// ErrCookieHashMismatch is returned when the recomputed cookie differs.
	ErrCookieHashMismatch = errors.New("legacy cookie hash mismatch")
)

// Cookie is the unpacked legacy session cookie.
type Cookie struct {
	SessionID    string
	UserID       string
	IPAddress    string
	IssuedAt     time.Time
	ExpiresAt    time.Time
	Capabilities string
}

// CookieCodec packs and unpacks the legacy session cookie with the shared
// session hash. It holds no mutable state.
type CookieCodec struct {
	sessionHash string
	duration    time.Duration
}

// NewCookieCodec returns a codec for sessionHash. duration is the session
// lifetime legacy consumers assume when computing a cookie's expiry.
func NewCookieCodec(sessionHash string, duration time.Duration) (*CookieCodec, error) {
	if sessionHash == "" {
		return nil, errors.New("session hash is required")
	}
	if duration <= 0 {
		return nil, errors.New("session duration must be positive")
	}
	return &CookieCodec{sessionHash: sessionHash, duration: duration}, nil
}

// Pack builds the cookie value.
func (c *CookieCodec) Pack(sessionID, userID, ip string, issuedAt time.Time, capabilities string) string {
	value := strings.Join([]string{
		sessionID,
		userID,
		ip,
		strconv.FormatInt(issuedAt.Unix(), 10),
		capabilities,
	}, ":")

	sum := sha1.Sum([]byte(value + "-" + c.sessionHash))
	hash := base64.StdEncoding.EncodeToString(sum[:])
	return value + ":" + hash[:len(hash)-1]
}

// Unpack parses cookie and verifies it by repacking its first five fields
// and comparing the whole value. The session id and user id are read from
// the front and the issue time, capabilities and hash from the back, so an
// IPv6 address in between keeps its colons.
func (c *CookieCodec) Unpack(cookie string) (*Cookie, error) {
	parts := strings.Split(cookie, ":")
	n := len(parts)
	if n < 6 {
		return nil, ErrCookieMalformed
	}
	sessionID, userID := parts[0], parts[1]
	ip := strings.Join(parts[2:n-3], ":")
	capabilities := parts[n-2]

	issued, err := strconv.ParseInt(parts[n-3], 10, 64)
	if err != nil {
		return nil, ErrCookieMalformed
	}
	issuedAt := time.Unix(issued, 0)

	expected := c.Pack(sessionID, userID, ip, issuedAt, capabilities)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(cookie)) != 1 {
		return nil, ErrCookieHashMismatch
	}

	return &Cookie{
		SessionID:    sessionID,
		UserID:       userID,
		IPAddress:    ip,
		IssuedAt:     issuedAt,
		ExpiresAt:    issuedAt.Add(c.duration),
		Capabilities: capabilities,
	}, nil
}

// EncodeSession packs the cookie for s. The user field is the legacy user id:
// the session's user, or the owner of a client-only session.
func (c *CookieCodec) EncodeSession(s *session.Session) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	userID, err := legacyUserID(s)
	if err != nil {
		return "", err
	}
	return c.Pack(
		s.SessionID,
		strconv.FormatInt(userID, 10),
		s.IPAddress,
		time.Unix(s.StartTime, 0),
		s.Authorization.Classic.Capabilities(),
	), nil
}

// DecodeSession unpacks cookie into the partial session it carries: id,
// user id, address, start and expiry, and the classic privilege set.
func (c *CookieCodec) DecodeSession(cookie string) (*session.Session, error) {
	ck, err := c.Unpack(cookie)
	if err != nil {
		return nil, err
	}
	classic, err := permission.ParseCapabilities(ck.Capabilities)
	if err != nil {
		return nil, ErrCookieMalformed
	}
	return &session.Session{
		SessionID:     ck.SessionID,
		User:          &session.User{UserID: ck.UserID},
		Authorization: permission.Authorization{Classic: classic},
		StartTime:     ck.IssuedAt.Unix(),
		EndTime:       ck.ExpiresAt.Unix(),
		IPAddress:     ck.IPAddress,
	}, nil
}

// Duration returns the session lifetime the codec assumes.
func (c *CookieCodec) Duration() time.Duration {
	return c.duration
}
