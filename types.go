package goSession

import (
	"io"
	"time"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	internalmetrics "github.com/MrEthical07/goSession/internal/metrics"
	"github.com/MrEthical07/goSession/permission"
	"github.com/MrEthical07/goSession/session"
	"github.com/rs/zerolog"
)

// Session, Principal and Authorization are re-exported for callers that only
// import the root package.
type (
	Session       = session.Session
	Principal     = session.Principal
	User          = session.User
	Client        = session.Client
	Authorization = permission.Authorization
)

// SessionResult is returned by CreateSession and Renew.
type SessionResult struct {
	Session *session.Session
	// Token is the signed session token.
	Token string
	// LegacyCookie is set only when the legacy store is written.
	LegacyCookie string
	// ExpiresAt is the session end time.
	ExpiresAt time.Time
}

// StoreHealth is one store's Ping outcome.
type StoreHealth struct {
	Store   string
	Latency time.Duration
	Err     error
}

// Health reports every configured store.
type Health struct {
	Stores []StoreHealth
}

// OK reports whether every store answered.
func (h Health) OK() bool {
	for _, s := range h.Stores {
		if s.Err != nil {
			return false
		}
	}
	return true
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// LogSink is an [AuditSink] that writes events through zerolog.
type LogSink = internalaudit.LogSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewLogSink creates a [LogSink] over log.
func NewLogSink(log zerolog.Logger) *LogSink {
	return internalaudit.NewLogSink(log)
}

// MetricID identifies a counter or histogram in the in-process metrics.
type MetricID = internalmetrics.ID

const (
	MetricSessionCreated        = internalmetrics.SessionCreated
	MetricSessionCreateFailed   = internalmetrics.SessionCreateFailed
	MetricSessionRollback       = internalmetrics.SessionRollback
	MetricValidateSuccess       = internalmetrics.ValidateSuccess
	MetricValidateFailure       = internalmetrics.ValidateFailure
	MetricValidateStoreMiss     = internalmetrics.ValidateStoreMiss
	MetricCookieValidateSuccess = internalmetrics.CookieValidateSuccess
	MetricCookieValidateFailure = internalmetrics.CookieValidateFailure
	MetricSessionInvalidated    = internalmetrics.SessionInvalidated
	MetricInvalidateFailure     = internalmetrics.InvalidateFailure
	MetricSessionRenewed        = internalmetrics.SessionRenewed
	MetricLogoutAll             = internalmetrics.LogoutAll
	MetricStoreUnavailable      = internalmetrics.StoreUnavailable
	// MetricValidateLatency is the only histogram.
	MetricValidateLatency = internalmetrics.ValidateLatency
)

// Metrics holds atomic counters and the optional latency histogram.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a [Metrics] configured by cfg. When Enabled is false,
// all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(cfg.Enabled, cfg.EnableLatencyHistograms)
}
