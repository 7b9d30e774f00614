// Package metrics provides lock-free session counters and the validate
// latency histogram.
//
// Counters sit in cache-line-padded uint64 slots incremented with
// [sync/atomic.AddUint64]; the histogram has 8 fixed buckets (<=5ms to +Inf).
// Neither allocates on the write path. Export (Prometheus, OTel) lives in
// metrics/export and reads [Snapshot] values. No I/O and no global registry.
package metrics
