package goSession

import (
	"errors"
	"fmt"
	"time"
)

// Config is the engine configuration. Build it with [DefaultConfig] or
// [LoadConfig] and adjust before passing it to [Builder.WithConfig]; the
// engine keeps its own copy.
type Config struct {
	JWT            JWTConfig
	Session        SessionConfig
	Legacy         LegacyConfig
	Cookie         CookieConfig
	Audit          AuditConfig
	Metrics        MetricsConfig
	Storage        StorageMode
	ValidationMode ValidationMode
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures the HS256 session token.
type JWTConfig struct {
	Secret []byte
	// PreviousSecrets still verify tokens during secret rotation; only
	// Secret signs.
	PreviousSecrets [][]byte
	Issuer          string
	// Leeway tolerates an issued-at slightly in the future. Expiry is exact.
	Leeway time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session lifetime and the distributed store layout.
type SessionConfig struct {
	Lifetime    time.Duration
	RedisPrefix string
	NonceDigits int
}

// LegacyConfig configures the legacy cookie and relational store.
type LegacyConfig struct {
	// SessionHash is the shared secret of the legacy cookie hash.
	SessionHash string
}

// CookieConfig names the cookies the middleware reads and writes.
type CookieConfig struct {
	SessionName string
	ClassicName string
	Domain      string
	Secure      bool
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
MODES
====================================
*/

// StorageMode selects the stores a deployment writes sessions to.
type StorageMode int

const (
	// StorageDual writes the legacy store first, then the distributed store.
	StorageDual StorageMode = iota
	// StorageLegacy writes only the relational store.
	StorageLegacy
	// StorageDistributed writes only the Redis store.
	StorageDistributed
)

func (m StorageMode) String() string {
	switch m {
	case StorageDual:
		return "dual"
	case StorageLegacy:
		return "legacy"
	case StorageDistributed:
		return "distributed"
	default:
		return fmt.Sprintf("StorageMode(%d)", int(m))
	}
}

// ParseStorageMode parses "dual", "legacy" or "distributed".
func ParseStorageMode(s string) (StorageMode, error) {
	switch s {
	case "dual":
		return StorageDual, nil
	case "legacy":
		return StorageLegacy, nil
	case "distributed":
		return StorageDistributed, nil
	default:
		return 0, fmt.Errorf("unknown storage mode %q", s)
	}
}

// WritesLegacy reports whether m writes the relational store.
func (m StorageMode) WritesLegacy() bool {
	return m == StorageDual || m == StorageLegacy
}

// WritesDistributed reports whether m writes the Redis store.
func (m StorageMode) WritesDistributed() bool {
	return m == StorageDual || m == StorageDistributed
}

// ValidationMode selects how Validate confirms a session.
type ValidationMode int

const (
	// ModeInherit defers to the engine's configured mode.
	ModeInherit ValidationMode = -1

	// ModeStateless trusts the token signature and expiry with no store read.
	ModeStateless ValidationMode = iota - 1
	// ModeStateful additionally requires the store of record to hold the
	// session, so invalidation takes effect immediately.
	ModeStateful
)

// RouteMode is the per-route override mode for Engine.Validate.
// It reuses the same constants (ModeInherit/ModeStateless/ModeStateful).
type RouteMode = ValidationMode

func (m ValidationMode) String() string {
	switch m {
	case ModeInherit:
		return "inherit"
	case ModeStateless:
		return "stateless"
	case ModeStateful:
		return "stateful"
	default:
		return fmt.Sprintf("ValidationMode(%d)", int(m))
	}
}

// ParseValidationMode parses "stateless" or "stateful".
func ParseValidationMode(s string) (ValidationMode, error) {
	switch s {
	case "stateless":
		return ModeStateless, nil
	case "stateful":
		return ModeStateful, nil
	default:
		return 0, fmt.Errorf("unknown validation mode %q", s)
	}
}

/*
====================================
DEFAULT CONFIG
====================================
*/

const (
	defaultLifetime    = 2 * time.Hour
	defaultRedisPrefix = "gosession"
	defaultNonceDigits = 8
	maxLeeway          = 5 * time.Minute
	minSecretLen       = 16
)

// DefaultConfig returns a dual-write, stateful configuration with no secrets.
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			Lifetime:    defaultLifetime,
			RedisPrefix: defaultRedisPrefix,
			NonceDigits: defaultNonceDigits,
		},
		Cookie: CookieConfig{
			SessionName: "arxiv_session_cookie",
			ClassicName: "tapir_session_cookie",
			Secure:      true,
		},
		Audit: AuditConfig{
			BufferSize: 1024,
			DropIfFull: true,
		},
		Storage:        StorageDual,
		ValidationMode: ModeStateful,
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	if len(cfg.JWT.PreviousSecrets) > 0 {
		out.JWT.PreviousSecrets = make([][]byte, len(cfg.JWT.PreviousSecrets))
		for i, s := range cfg.JWT.PreviousSecrets {
			out.JWT.PreviousSecrets[i] = cloneBytes(s)
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration error.
func (c *Config) Validate() error {
	if len(c.JWT.Secret) < minSecretLen {
		return fmt.Errorf("JWT Secret must be at least %d bytes", minSecretLen)
	}
	for _, s := range c.JWT.PreviousSecrets {
		if len(s) < minSecretLen {
			return fmt.Errorf("JWT PreviousSecrets entries must be at least %d bytes", minSecretLen)
		}
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > maxLeeway {
		return errors.New("JWT Leeway must be between 0 and 5m")
	}

	if c.Session.Lifetime < time.Second {
		return errors.New("Session Lifetime must be at least 1s")
	}
	if c.Session.RedisPrefix == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}
	if c.Session.NonceDigits < 6 || c.Session.NonceDigits > 16 {
		return errors.New("Session NonceDigits must be between 6 and 16")
	}

	switch c.Storage {
	case StorageDual, StorageLegacy, StorageDistributed:
	default:
		return errors.New("unknown Storage mode")
	}
	if c.Storage.WritesLegacy() && c.Legacy.SessionHash == "" {
		return errors.New("Legacy SessionHash is required when the legacy store is written")
	}

	switch c.ValidationMode {
	case ModeStateless, ModeStateful:
	default:
		return errors.New("ValidationMode must be ModeStateless or ModeStateful")
	}

	if c.Cookie.SessionName == "" {
		return errors.New("Cookie SessionName must not be empty")
	}
	if c.Storage.WritesLegacy() && c.Cookie.ClassicName == "" {
		return errors.New("Cookie ClassicName must not be empty")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}
