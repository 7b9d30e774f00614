package goSession

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("CLASSIC_SESSION_HASH", "legacy-session-hash")

	envCfg, err := LoadEnv()
	if err != nil {
		t.Fatalf("load env: %v", err)
	}
	cfg, err := envCfg.Config()
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	if cfg.Session.Lifetime != 2*time.Hour {
		t.Fatalf("expected 2h default lifetime, got %v", cfg.Session.Lifetime)
	}
	if cfg.Storage != StorageDual || cfg.ValidationMode != ModeStateful {
		t.Fatalf("unexpected modes %v / %v", cfg.Storage, cfg.ValidationMode)
	}
	if cfg.Cookie.SessionName != "arxiv_session_cookie" || cfg.Cookie.ClassicName != "tapir_session_cookie" {
		t.Fatalf("unexpected cookie names %+v", cfg.Cookie)
	}

	opts := envCfg.RedisOptions()
	if len(opts.Addrs) != 1 || opts.Addrs[0] != "localhost:6379" {
		t.Fatalf("unexpected redis addrs %v", opts.Addrs)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("JWT_PREVIOUS_SECRETS", "previous-secret-previous-secret!,another-previous-secret")
	t.Setenv("SESSION_DURATION", "36000")
	t.Setenv("SESSION_STORAGE_MODE", "distributed")
	t.Setenv("SESSION_VALIDATION_MODE", "stateless")
	t.Setenv("REDIS_ADDRS", "r1:6379,r2:6379,r3:6379")
	t.Setenv("REDIS_DATABASE", "2")

	envCfg, err := LoadEnv()
	if err != nil {
		t.Fatalf("load env: %v", err)
	}
	cfg, err := envCfg.Config()
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	if cfg.Session.Lifetime != 10*time.Hour {
		t.Fatalf("expected 10h lifetime, got %v", cfg.Session.Lifetime)
	}
	if cfg.Storage != StorageDistributed || cfg.ValidationMode != ModeStateless {
		t.Fatalf("unexpected modes %v / %v", cfg.Storage, cfg.ValidationMode)
	}
	if len(cfg.JWT.PreviousSecrets) != 2 {
		t.Fatalf("expected 2 previous secrets, got %d", len(cfg.JWT.PreviousSecrets))
	}
	if opts := envCfg.RedisOptions(); len(opts.Addrs) != 3 || opts.DB != 2 {
		t.Fatalf("unexpected redis options %+v", opts)
	}
}

func TestLoadEnvReadsDotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "JWT_SECRET=from-dotenv-file-0123456789\nCLASSIC_SESSION_HASH=from-dotenv\nSESSION_DURATION=60\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	// godotenv sets variables with os.Setenv; register cleanup first.
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CLASSIC_SESSION_HASH", "")
	t.Setenv("SESSION_DURATION", "")
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("CLASSIC_SESSION_HASH")
	os.Unsetenv("SESSION_DURATION")

	envCfg, err := LoadEnv(path, filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load env: %v", err)
	}
	if envCfg.JWTSecret != "from-dotenv-file-0123456789" || envCfg.SessionDuration != 60 {
		t.Fatalf("dotenv values not loaded: %+v", envCfg)
	}
}

func TestEnvConfigRejectsUnknownModes(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("CLASSIC_SESSION_HASH", "legacy-session-hash")
	t.Setenv("SESSION_STORAGE_MODE", "mirror")

	envCfg, err := LoadEnv()
	if err != nil {
		t.Fatalf("load env: %v", err)
	}
	if _, err := envCfg.Config(); err == nil {
		t.Fatal("expected unknown storage mode to fail")
	}
}
