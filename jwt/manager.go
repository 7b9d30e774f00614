package jwt

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/internal"
	"github.com/MrEthical07/goSession/session"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed is returned for any structural decode failure.
	ErrMalformed = errors.New("malformed token")
	// ErrSignatureInvalid is returned when no configured secret verifies the token.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrExpired is returned when now >= exp.
	ErrExpired = errors.New("token expired")
)

const maxLeeway = 5 * time.Minute

// Config holds the signing secret and validation policy. The secret is
// explicit configuration; nothing in this package reads globals.
type Config struct {
	Secret          []byte
	PreviousSecrets [][]byte
	Issuer          string
	Leeway          time.Duration
	Now             func() time.Time
}

// Manager encodes sessions into HS256 tokens and decodes them back. It is
// immutable after construction and safe for concurrent use.
type Manager struct {
	secret []byte
	verify [][]byte
	issuer string
	leeway time.Duration
	clock  internal.Clock
	parser *jwt.Parser
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("signing secret is required")
	}
	if cfg.Leeway < 0 || cfg.Leeway > maxLeeway {
		return nil, errors.New("invalid leeway configuration")
	}

	verify := make([][]byte, 0, 1+len(cfg.PreviousSecrets))
	verify = append(verify, append([]byte(nil), cfg.Secret...))
	for _, prev := range cfg.PreviousSecrets {
		if len(prev) == 0 {
			return nil, errors.New("previous secret cannot be empty")
		}
		verify = append(verify, append([]byte(nil), prev...))
	}

	return &Manager{
		secret: verify[0],
		verify: verify,
		issuer: cfg.Issuer,
		leeway: cfg.Leeway,
		clock:  internal.Clock(cfg.Now),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// Encode signs s. Scopes and endorsements are normalized first, so equal
// sessions produce byte-identical tokens.
func (m *Manager) Encode(s *session.Session) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claimsFromSession(s, m.issuer))
	return token.SignedString(m.secret)
}

// Decode verifies and decodes a token.
//
// The signature is checked before any header or claim is parsed, so a
// tampered token always fails with ErrSignatureInvalid and never yields a
// partially trusted session.
func (m *Manager) Decode(token string) (*session.Session, error) {
	claims, err := m.verifyAndParse(token)
	if err != nil {
		return nil, err
	}
	if m.clock.Unix() >= claims.ExpiresAt.Unix() {
		return nil, ErrExpired
	}
	return claims.toSession(), nil
}

// DecodeIgnoringExpiry is Decode without the expiry check. Logout by token
// uses it so an expired but authentic token can still name its session.
func (m *Manager) DecodeIgnoringExpiry(token string) (*session.Session, error) {
	claims, err := m.verifyAndParse(token)
	if err != nil {
		return nil, err
	}
	return claims.toSession(), nil
}

func (m *Manager) verifyAndParse(token string) (*SessionClaims, error) {
	if !strings.Contains(token, ".") {
		return nil, ErrMalformed
	}
	// A dot inserted into or dropped from a signed token changes its bytes
	// like any other edit, so a wrong segment count is a signature failure.
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrSignatureInvalid
	}

	key, err := m.verifySignature(parts[0]+"."+parts[1], parts[2])
	if err != nil {
		return nil, err
	}

	claims := &SessionClaims{}
	if _, err := m.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	}); err != nil {
		return nil, ErrMalformed
	}

	if err := m.checkClaims(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *Manager) verifySignature(signingString, encodedSig string) ([]byte, error) {
	sig, err := base64.RawURLEncoding.Strict().DecodeString(encodedSig)
	if err != nil {
		return nil, ErrSignatureInvalid
	}

	for _, key := range m.verify {
		if jwt.SigningMethodHS256.Verify(signingString, sig, key) == nil {
			return key, nil
		}
	}
	return nil, ErrSignatureInvalid
}

func (m *Manager) checkClaims(c *SessionClaims) error {
	if c.SID == "" || c.IssuedAt == nil || c.ExpiresAt == nil {
		return ErrMalformed
	}
	if c.ID != "" && c.ID != c.SID {
		return ErrMalformed
	}
	if c.User == nil && c.Client == nil {
		return ErrMalformed
	}
	if (c.User != nil && c.User.ID == "") || (c.Client != nil && c.Client.ID == "") {
		return ErrMalformed
	}
	if c.Subject != "" && c.Subject != principalID(c) {
		return ErrMalformed
	}
	if c.IssuedAt.Unix() >= c.ExpiresAt.Unix() {
		return ErrMalformed
	}
	if m.issuer != "" && c.Issuer != m.issuer {
		return ErrMalformed
	}

	notBefore := m.clock.Now().Add(m.leeway)
	if c.IssuedAt.Time.After(notBefore) {
		return ErrMalformed
	}
	return nil
}

func principalID(c *SessionClaims) string {
	if c.User != nil {
		return c.User.ID
	}
	return c.Client.ID
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0)
}
