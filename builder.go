package goSession

import (
	"errors"
	"time"

	"github.com/MrEthical07/goSession/internal"
	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/legacy"
	"github.com/MrEthical07/goSession/permission"
	"github.com/MrEthical07/goSession/session"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
)

// Builder assembles an [Engine]. A Builder builds once.
type Builder struct {
	config   Config
	redis    redis.UniversalClient
	legacyDB bun.IDB
	policies *permission.PolicyRegistry

	auditSink AuditSink
	logger    *zerolog.Logger
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the distributed store client: a *redis.Client,
// *redis.ClusterClient or failover client.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLegacyDB sets the relational database holding the tapir tables; see
// [legacy.Open].
func (b *Builder) WithLegacyDB(db bun.IDB) *Builder {
	b.legacyDB = db
	return b
}

// WithPolicyRegistry overrides the policy class to scope mapping used by
// legacy authorization lookups.
func (b *Builder) WithPolicyRegistry(r *permission.PolicyRegistry) *Builder {
	b.policies = r
	return b
}

// WithAuditSink sets the audit destination. Auditing still requires
// Config.Audit.Enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the operational logger. The default discards everything.
func (b *Builder) WithLogger(log zerolog.Logger) *Builder {
	b.logger = &log
	return b
}

// WithClock overrides the time source for every component.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, checks that every store the storage
// mode writes is provided, and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Storage.WritesDistributed() && b.redis == nil {
		return nil, errors.New("storage mode " + cfg.Storage.String() + " requires redis client")
	}
	if cfg.Storage.WritesLegacy() && b.legacyDB == nil {
		return nil, errors.New("storage mode " + cfg.Storage.String() + " requires legacy database")
	}

	clock := internal.Clock(b.now)

	engine := &Engine{
		config:  cfg,
		clock:   clock,
		log:     zerolog.Nop(),
		metrics: NewMetrics(cfg.Metrics),
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}
	if b.logger != nil {
		engine.log = *b.logger
	}

	// -------- TOKEN CODECS --------
	jm, err := jwt.NewManager(jwt.Config{
		Secret:          cloneBytes(cfg.JWT.Secret),
		PreviousSecrets: cfg.JWT.PreviousSecrets,
		Issuer:          cfg.JWT.Issuer,
		Leeway:          cfg.JWT.Leeway,
		Now:             clock.Now,
	})
	if err != nil {
		engine.Close()
		return nil, err
	}
	engine.jwtManager = jm

	// -------- STORES --------
	if b.redis != nil {
		engine.sessionStore = session.NewStore(b.redis, cfg.Session.RedisPrefix, clock.Now)
	}
	if b.legacyDB != nil {
		if cfg.Legacy.SessionHash != "" {
			codec, err := legacy.NewCookieCodec(cfg.Legacy.SessionHash, cfg.Session.Lifetime)
			if err != nil {
				engine.Close()
				return nil, err
			}
			engine.cookies = codec
		}
		engine.legacyStore = legacy.NewStore(b.legacyDB, legacy.StoreConfig{
			SessionDuration: cfg.Session.Lifetime,
			Policies:        b.policies,
			Now:             clock.Now,
		})
	}

	engine.flows = engine.buildFlows()

	b.built = true

	engine.log.Debug().
		Str("storage", cfg.Storage.String()).
		Str("validation", cfg.ValidationMode.String()).
		Dur("lifetime", cfg.Session.Lifetime).
		Msg("session engine built")

	return engine, nil
}
