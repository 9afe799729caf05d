package goSpace

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricLoginSuccess counts Login calls that ended authenticated.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts Login calls that failed in a wallet or store step.
	MetricLoginFailure
	// MetricLoginNoop counts Login calls on an already authenticated session.
	MetricLoginNoop
	// MetricLoginInProgress counts Login calls rejected by the in-flight guard.
	MetricLoginInProgress
	// MetricWalletConnected counts Disconnected -> WalletConnected transitions.
	MetricWalletConnected
	// MetricStoreAuthenticated counts WalletConnected -> Authenticated transitions.
	MetricStoreAuthenticated
	// MetricLogout counts Logout calls.
	MetricLogout
	// MetricSpaceOpened counts successful namespace opens.
	MetricSpaceOpened
	// MetricSpaceOpenFailure counts namespace opens rejected by the store.
	MetricSpaceOpenFailure
	// MetricSpaceClosed counts namespace closes.
	MetricSpaceClosed
	// MetricGuardNotLoaded counts requireLoaded violations.
	MetricGuardNotLoaded
	// MetricGuardNotAuthenticated counts requireEnabled violations.
	MetricGuardNotAuthenticated
	// MetricGuardNamespaceNotOpen counts requireSpaceOpened violations.
	MetricGuardNamespaceNotOpen
	// MetricValueRead counts private and public reads.
	MetricValueRead
	// MetricValueWrite counts private and public writes.
	MetricValueWrite
	// MetricWriteRateLimited counts writes rejected by the per-caller limiter.
	MetricWriteRateLimited
	// MetricPublicSpaceRead counts GetPublicSpaceData calls.
	MetricPublicSpaceRead
	// MetricWalletTimeout counts wallet calls that hit Timeouts.Wallet.
	MetricWalletTimeout
	// MetricStoreTimeout counts store calls that hit Timeouts.Store.
	MetricStoreTimeout
	// MetricStoreLatency is the store call latency histogram.
	MetricStoreLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free engine counters.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a copy of all counters and histograms.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a Metrics set; a disabled set ignores all writes.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the store latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram id. Only MetricStoreLatency has buckets.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricStoreLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and, when enabled, the latency histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricStoreLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricStoreLatency].buckets[i])
		}
		s.Histograms[MetricStoreLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
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
