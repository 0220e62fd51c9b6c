package shield

import (
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/yatrik/shield/audit"
	"github.com/yatrik/shield/internal/metrics"
	"github.com/yatrik/shield/sanitize"
	"github.com/yatrik/shield/session"
	"github.com/yatrik/shield/token"
)

// userLockStripes sizes the advisory lock set for CreateSession. Two users
// hashing to the same stripe contend harmlessly; one user's concurrent
// creates serialize, which keeps the capacity check race-free in-process.
const userLockStripes = 64

// Engine is the security middleware core: session lifecycle, request
// sanitization, and audit recording behind one handle.
//
// Engine instances are intended to be configured during initialization
// through [Builder.Build] and then treated as immutable. All methods are safe
// for concurrent use.
type Engine struct {
	config Config

	sessions   session.Store
	activities audit.Store
	tokens     *token.Manager
	sanitizer  *sanitize.Sanitizer
	detector   *sanitize.Detector
	audit      *audit.Dispatcher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time

	userLocks [userLockStripes]sync.Mutex
}

// RequestInfo is the request-context snapshot handed to session and audit
// operations by the (external) HTTP layer.
type RequestInfo struct {
	IP        string
	UserAgent string
	Method    string
	Endpoint  string
}

// Close flushes and stops the audit dispatcher. The Engine must not be used
// afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit records the back-pressure policy has
// discarded since start.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the in-process counters.
func (e *Engine) MetricsSnapshot() metrics.Snapshot {
	if e == nil {
		return metrics.Snapshot{}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id metrics.MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) userLock(userID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return &e.userLocks[h.Sum32()%userLockStripes]
}
