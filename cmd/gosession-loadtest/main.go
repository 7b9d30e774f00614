// Command gosession-loadtest drives an engine with concurrent session
// create, validate and invalidate calls and reports latency percentiles.
//
// With -embedded (the default) it runs against miniredis and an in-memory
// SQLite legacy database. Otherwise it reads the usual environment
// (JWT_SECRET, CLASSIC_SESSION_HASH, CLASSIC_DATABASE_URI, REDIS_ADDRS, ...),
// optionally from a dotenv file.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/legacy"
	"github.com/MrEthical07/goSession/permission"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
)

func main() {
	var (
		sessions    = flag.Int("sessions", 10000, "number of sessions to create")
		users       = flag.Int("users", 100, "number of distinct users (embedded mode seeds them)")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 50000, "operations per validate phase")
		embedded    = flag.Bool("embedded", true, "use miniredis and in-memory sqlite")
		envFile     = flag.String("env-file", ".env", "dotenv file read when not embedded")
		storage     = flag.String("storage", "dual", "storage mode: dual, legacy or distributed")
		debug       = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()

	if *sessions <= 0 || *users <= 0 || *concurrency <= 0 || *ops <= 0 {
		log.Fatal().Msg("sessions, users, concurrency and ops must be > 0")
	}

	ctx := context.Background()
	engine, cleanup, err := buildEngine(ctx, log, *embedded, *envFile, *storage, *users)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build engine")
	}
	defer cleanup()

	log.Info().Int("sessions", *sessions).Int("concurrency", *concurrency).Msg("creating sessions")
	tokens := make([]string, *sessions)
	ids := make([]string, *sessions)
	createStats := runPhase(*sessions, *concurrency, func(i int, _ *rand.Rand) error {
		userID := strconv.Itoa(i%*users + 1)
		res, err := engine.CreateSession(ctx, goSession.Principal{User: &goSession.User{UserID: userID}}, goSession.Authorization{
			Scopes: permission.GeneralUser,
		})
		if err != nil {
			return err
		}
		tokens[i] = res.Token
		ids[i] = res.Session.SessionID
		return nil
	})

	validate := func(mode goSession.RouteMode) func(int, *rand.Rand) error {
		return func(_ int, r *rand.Rand) error {
			token := tokens[r.Intn(len(tokens))]
			if token == "" {
				return nil
			}
			_, err := engine.Validate(ctx, token, mode)
			return err
		}
	}
	statelessStats := runPhase(*ops, *concurrency, validate(goSession.ModeStateless))
	statefulStats := runPhase(*ops, *concurrency, validate(goSession.ModeStateful))

	invalidateStats := runPhase(len(ids), *concurrency, func(i int, _ *rand.Rand) error {
		if ids[i] == "" {
			return nil
		}
		return engine.InvalidateSession(ctx, ids[i])
	})

	logStats(log, "create", createStats)
	logStats(log, "validate_stateless", statelessStats)
	logStats(log, "validate_stateful", statefulStats)
	logStats(log, "invalidate", invalidateStats)

	snap := engine.MetricsSnapshot()
	log.Info().
		Uint64("created", snap.Counters[goSession.MetricSessionCreated]).
		Uint64("rollbacks", snap.Counters[goSession.MetricSessionRollback]).
		Uint64("store_unavailable", snap.Counters[goSession.MetricStoreUnavailable]).
		Msg("engine counters")
}

func buildEngine(ctx context.Context, log zerolog.Logger, embedded bool, envFile, storage string, users int) (*goSession.Engine, func(), error) {
	mode, err := goSession.ParseStorageMode(storage)
	if err != nil {
		return nil, nil, err
	}

	var (
		cfg     goSession.Config
		rdb     redis.UniversalClient
		dsn     string
		closers []func()
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if embedded {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start miniredis: %w", err)
		}
		closers = append(closers, mr.Close)
		rdb = redis.NewClient(&redis.Options{Addr: mr.Addr(), PoolSize: 128})
		dsn = ":memory:"

		cfg = goSession.DefaultConfig()
		cfg.JWT.Secret = []byte("loadtest-secret-loadtest-secret!")
		cfg.Legacy.SessionHash = "loadtest-session-hash"
		log.Info().Str("redis", mr.Addr()).Msg("using embedded stores")
	} else {
		envCfg, err := goSession.LoadEnv(envFile)
		if err != nil {
			return nil, nil, err
		}
		cfg, err = envCfg.Config()
		if err != nil {
			return nil, nil, err
		}
		rdb = redis.NewUniversalClient(envCfg.RedisOptions())
		dsn = envCfg.ClassicDatabaseURI
		log.Info().Strs("redis", envCfg.RedisAddrs).Msg("using configured stores")
	}
	closers = append(closers, func() { _ = rdb.Close() })
	cfg.Storage = mode
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	db, err := legacy.Open(ctx, dsn)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closers = append(closers, func() { _ = db.Close() })

	if embedded {
		if err := seedUsers(ctx, db, users); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	engine, err := goSession.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithLegacyDB(db).
		WithLogger(log).
		Build()
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closers = append(closers, engine.Close)

	return engine, cleanup, nil
}

func seedUsers(ctx context.Context, db bun.IDB, users int) error {
	if err := legacy.CreateSchema(ctx, db); err != nil {
		return err
	}
	for i := 1; i <= users; i++ {
		u := &legacy.TapirUser{
			UserID:      int64(i),
			Email:       fmt.Sprintf("user%d@example.org", i),
			PolicyClass: permission.PolicyClassPublicUser,
		}
		if err := legacy.InsertUser(ctx, db, u, fmt.Sprintf("user%d", i)); err != nil {
			return err
		}
	}
	return nil
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func runPhase(ops, concurrency int, op func(i int, r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(i, r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func logStats(log zerolog.Logger, name string, s phaseStats) {
	log.Info().
		Str("phase", name).
		Int("ops", s.ops).
		Int64("failures", s.failures).
		Dur("total", s.total.Round(time.Millisecond)).
		Float64("ops_per_sec", s.opsPerS).
		Dur("p50", s.p50.Round(time.Microsecond)).
		Dur("p95", s.p95.Round(time.Microsecond)).
		Dur("p99", s.p99.Round(time.Microsecond)).
		Msg("phase complete")
}
