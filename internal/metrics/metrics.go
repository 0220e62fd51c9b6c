// Package metrics provides in-process atomic counters for the security core.
// When disabled, every operation is a no-op; callers never branch on the
// enabled flag themselves.
package metrics

import "sync/atomic"

// MetricID identifies a specific counter.
type MetricID uint8

const (
	MetricSessionCreated MetricID = iota
	MetricSessionEvicted
	MetricSessionValidated
	MetricSessionRejected
	MetricSessionRefreshed
	MetricSessionInvalidated
	MetricSessionSwept
	MetricSanitizeApplied
	MetricSanitizeFault
	MetricDetectorFinding
	MetricActivityRecorded

	MetricIDCount
)

var metricNames = [MetricIDCount]string{
	MetricSessionCreated:     "session_created",
	MetricSessionEvicted:     "session_evicted",
	MetricSessionValidated:   "session_validated",
	MetricSessionRejected:    "session_rejected",
	MetricSessionRefreshed:   "session_refreshed",
	MetricSessionInvalidated: "session_invalidated",
	MetricSessionSwept:       "session_swept",
	MetricSanitizeApplied:    "sanitize_applied",
	MetricSanitizeFault:      "sanitize_fault",
	MetricDetectorFinding:    "detector_finding",
	MetricActivityRecorded:   "activity_recorded",
}

// Name returns the stable snake_case name of id, or "unknown".
func (id MetricID) Name() string {
	if id >= MetricIDCount {
		return "unknown"
	}
	return metricNames[id]
}

// Metrics holds one atomic counter per MetricID.
type Metrics struct {
	enabled  bool
	counters [MetricIDCount]atomic.Uint64
}

// New creates a Metrics instance. When enabled is false all operations are
// no-ops and Snapshot returns zeroes.
func New(enabled bool) *Metrics {
	return &Metrics{enabled: enabled}
}

func (m *Metrics) Inc(id MetricID) {
	m.Add(id, 1)
}

func (m *Metrics) Add(id MetricID, n uint64) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	m.counters[id].Add(n)
}

// Snapshot is a point-in-time copy of all counters keyed by metric name.
type Snapshot map[string]uint64

func (m *Metrics) Snapshot() Snapshot {
	snap := make(Snapshot, int(MetricIDCount))
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < MetricIDCount; id++ {
		snap[id.Name()] = m.counters[id].Load()
	}
	return snap
}
