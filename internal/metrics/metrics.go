package metrics

import (
	"sync/atomic"
	"time"
)

// ID names one counter or histogram slot.
type ID uint16

const (
	SessionCreated ID = iota
	SessionCreateFailed
	SessionRollback
	ValidateSuccess
	ValidateFailure
	ValidateStoreMiss
	CookieValidateSuccess
	CookieValidateFailure
	SessionInvalidated
	InvalidateFailure
	SessionRenewed
	LogoutAll
	StoreUnavailable
	ValidateLatency
	idCount
)

// Count is the number of metric slots.
const Count = int(idCount)

const (
	// BucketCount is the number of validate-latency histogram buckets.
	BucketCount   = 8
	cacheLineSize = 64
)

type histogram struct {
	buckets [BucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters and one latency histogram. A nil or
// disabled *Metrics accepts every call and records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [idCount]paddedCounter
	histograms    [idCount]histogram
}

// Snapshot is a point-in-time copy of every slot.
type Snapshot struct {
	Counters   map[ID]uint64
	Histograms map[ID][]uint64
}

func New(enabled, latency bool) *Metrics {
	return &Metrics{
		enabled:       enabled,
		enableLatency: enabled && latency,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

func (m *Metrics) Inc(id ID) {
	if m == nil || !m.enabled || id >= idCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram for id. Only ValidateLatency has one.
func (m *Metrics) Observe(id ID, d time.Duration) {
	if m == nil || !m.enableLatency || id != ValidateLatency {
		return
	}
	atomic.AddUint64(&m.histograms[id].buckets[BucketIndex(d)], 1)
}

func (m *Metrics) Value(id ID) uint64 {
	if m == nil || id >= idCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() Snapshot {
	if m == nil || !m.enabled {
		return Snapshot{
			Counters:   map[ID]uint64{},
			Histograms: map[ID][]uint64{},
		}
	}

	s := Snapshot{
		Counters:   make(map[ID]uint64, Count),
		Histograms: make(map[ID][]uint64, 1),
	}
	for id := ID(0); id < idCount; id++ {
		if id == ValidateLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, BucketCount)
		for i := range buckets {
			buckets[i] = atomic.LoadUint64(&m.histograms[ValidateLatency].buckets[i])
		}
		s.Histograms[ValidateLatency] = buckets
	}

	return s
}

// BucketIndex maps d to its bucket: <=5ms, 10, 25, 50, 100, 250, 500, +Inf.
func BucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
