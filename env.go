package goSession

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// EnvConfig is the environment-driven deployment configuration. Variable
// names follow the accounts services that share these stores.
type EnvConfig struct {
	JWTSecret          string   `env:"JWT_SECRET"`
	JWTPreviousSecrets []string `env:"JWT_PREVIOUS_SECRETS" envSeparator:","`
	JWTIssuer          string   `env:"JWT_ISSUER"`
	ClassicSessionHash string   `env:"CLASSIC_SESSION_HASH"`
	// SessionDuration is the session lifetime in seconds.
	SessionDuration    int      `env:"SESSION_DURATION" envDefault:"7200"`
	ClassicDatabaseURI string   `env:"CLASSIC_DATABASE_URI" envDefault:":memory:"`
	RedisAddrs         []string `env:"REDIS_ADDRS" envSeparator:"," envDefault:"localhost:6379"`
	RedisPassword      string   `env:"REDIS_PASSWORD"`
	RedisDatabase      int      `env:"REDIS_DATABASE" envDefault:"0"`
	RedisPrefix        string   `env:"REDIS_PREFIX" envDefault:"gosession"`
	StorageMode        string   `env:"SESSION_STORAGE_MODE" envDefault:"dual"`
	ValidationMode     string   `env:"SESSION_VALIDATION_MODE" envDefault:"stateful"`
	SessionCookieName  string   `env:"SESSION_COOKIE_NAME" envDefault:"arxiv_session_cookie"`
	ClassicCookieName  string   `env:"CLASSIC_COOKIE_NAME" envDefault:"tapir_session_cookie"`
	CookieDomain       string   `env:"COOKIE_DOMAIN"`
	CookieSecure       bool     `env:"COOKIE_SECURE" envDefault:"true"`
	AuditEnabled       bool     `env:"AUDIT_ENABLED" envDefault:"false"`
	MetricsEnabled     bool     `env:"METRICS_ENABLED" envDefault:"true"`
}

// LoadEnv loads the given dotenv files (missing files are skipped, existing
// variables win) and parses the environment into an [EnvConfig].
func LoadEnv(files ...string) (EnvConfig, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return EnvConfig{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("parse env config: %w", err)
	}
	return cfg, nil
}

// Config converts e into an engine configuration on top of [DefaultConfig].
// The result is validated.
func (e EnvConfig) Config() (Config, error) {
	cfg := DefaultConfig()

	cfg.JWT.Secret = []byte(e.JWTSecret)
	for _, s := range e.JWTPreviousSecrets {
		if s != "" {
			cfg.JWT.PreviousSecrets = append(cfg.JWT.PreviousSecrets, []byte(s))
		}
	}
	cfg.JWT.Issuer = e.JWTIssuer

	cfg.Legacy.SessionHash = e.ClassicSessionHash
	cfg.Session.Lifetime = time.Duration(e.SessionDuration) * time.Second
	if e.RedisPrefix != "" {
		cfg.Session.RedisPrefix = e.RedisPrefix
	}

	storage, err := ParseStorageMode(e.StorageMode)
	if err != nil {
		return Config{}, err
	}
	cfg.Storage = storage

	mode, err := ParseValidationMode(e.ValidationMode)
	if err != nil {
		return Config{}, err
	}
	cfg.ValidationMode = mode

	cfg.Cookie.SessionName = e.SessionCookieName
	cfg.Cookie.ClassicName = e.ClassicCookieName
	cfg.Cookie.Domain = e.CookieDomain
	cfg.Cookie.Secure = e.CookieSecure

	cfg.Audit.Enabled = e.AuditEnabled
	cfg.Metrics.Enabled = e.MetricsEnabled

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RedisOptions returns client options for the configured Redis deployment.
// More than one address yields a cluster client from
// [redis.NewUniversalClient].
func (e EnvConfig) RedisOptions() *redis.UniversalOptions {
	return &redis.UniversalOptions{
		Addrs:    e.RedisAddrs,
		Password: e.RedisPassword,
		DB:       e.RedisDatabase,
	}
}
