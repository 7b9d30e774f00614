package internaldefs

import (
	"math"

	goSession "github.com/MrEthical07/goSession"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for exporters.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricSessionCreated, Name: "gosession_session_created_total", Help: "Sessions created in every required store."},
	{ID: goSession.MetricSessionCreateFailed, Name: "gosession_session_create_failed_total", Help: "Session creations that failed."},
	{ID: goSession.MetricSessionRollback, Name: "gosession_session_rollback_total", Help: "Legacy writes undone after a failed distributed write."},
	{ID: goSession.MetricValidateSuccess, Name: "gosession_validate_success_total", Help: "Tokens accepted by Validate."},
	{ID: goSession.MetricValidateFailure, Name: "gosession_validate_failure_total", Help: "Tokens rejected by Validate."},
	{ID: goSession.MetricValidateStoreMiss, Name: "gosession_validate_store_miss_total", Help: "Stateful validations the store of record did not confirm."},
	{ID: goSession.MetricCookieValidateSuccess, Name: "gosession_cookie_validate_success_total", Help: "Legacy cookies accepted."},
	{ID: goSession.MetricCookieValidateFailure, Name: "gosession_cookie_validate_failure_total", Help: "Legacy cookies rejected."},
	{ID: goSession.MetricSessionInvalidated, Name: "gosession_session_invalidated_total", Help: "Sessions invalidated in every store."},
	{ID: goSession.MetricInvalidateFailure, Name: "gosession_invalidate_failure_total", Help: "Invalidations where at least one store failed."},
	{ID: goSession.MetricSessionRenewed, Name: "gosession_session_renewed_total", Help: "Sessions replaced by Renew."},
	{ID: goSession.MetricLogoutAll, Name: "gosession_logout_all_total", Help: "Logout-all operations."},
	{ID: goSession.MetricStoreUnavailable, Name: "gosession_store_unavailable_total", Help: "Store calls that failed with a transport error."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricValidateLatency, Name: "gosession_validate_latency_seconds", Help: "Validate latency."},
}

// AuditDroppedName is the counter for audit events dropped under backpressure.
const (
	AuditDroppedName = "gosession_audit_dropped_total"
	AuditDroppedHelp = "Audit events dropped due to dispatcher backpressure."
)

// HistogramBounds are the bucket upper bounds in seconds. The last is +Inf.
var HistogramBounds = [8]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, math.Inf(1)}

// HistogramBoundSuffix names each bound in instrument names.
var HistogramBoundSuffix = [8]string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight bucket array.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
