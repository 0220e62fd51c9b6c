package shield

import (
	"context"

	"github.com/google/uuid"

	"github.com/yatrik/shield/audit"
	"github.com/yatrik/shield/internal/metrics"
)

// RecordActivity appends one audit record. Missing fields are defaulted:
// identity, timestamp, severity, and the IP / user-agent carried on ctx.
// Dispatch is fire-and-forget — the caller never waits on persistence, and a
// full buffer follows the configured back-pressure policy. Sensitive values
// inside AdditionalData must be redacted by the caller (see [audit.Redact]);
// the logger does not inspect payload semantics.
func (e *Engine) RecordActivity(ctx context.Context, rec audit.Record) {
	if e == nil || e.audit == nil {
		return
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = e.now().UTC()
	}
	if rec.Severity == "" {
		rec.Severity = audit.SeverityLow
	}
	if rec.Username == "" {
		rec.Username = rec.UserID
	}
	if rec.IPAddress == "" {
		if ip := clientIPFromContext(ctx); ip != "" {
			rec.IPAddress = ip
		} else {
			rec.IPAddress = "System"
		}
	}
	if rec.UserAgent == "" {
		if ua := userAgentFromContext(ctx); ua != "" {
			rec.UserAgent = ua
		} else {
			rec.UserAgent = "System"
		}
	}
	if rec.Method == "" {
		rec.Method = "SYSTEM"
	}
	if rec.Endpoint == "" {
		rec.Endpoint = "/system"
	}
	if rec.StatusCode == 0 {
		rec.StatusCode = 200
	}

	e.metricInc(metrics.MetricActivityRecorded)
	e.audit.Emit(ctx, rec)
}

// RecordSecurityEvent appends an anonymous security record: no user identity,
// "Anonymous" principal, 401 status. Used for events observed before or
// outside authentication — injection attempts, payload detector matches,
// failed logins.
func (e *Engine) RecordSecurityEvent(ctx context.Context, action audit.Action, description string, req RequestInfo, severity audit.Severity, data map[string]interface{}) {
	if e == nil || e.audit == nil {
		return
	}
	if severity == "" {
		severity = audit.SeverityHigh
	}

	ip := req.IP
	if ip == "" {
		ip = "Unknown"
	}
	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = "Unknown"
	}
	method := req.Method
	if method == "" {
		method = "UNKNOWN"
	}
	endpoint := req.Endpoint
	if endpoint == "" {
		endpoint = "/unknown"
	}

	rec := audit.Record{
		ID:             uuid.NewString(),
		Username:       "Anonymous",
		Action:         action,
		Description:    description,
		IPAddress:      ip,
		UserAgent:      userAgent,
		Method:         method,
		Endpoint:       endpoint,
		StatusCode:     401,
		Severity:       severity,
		AdditionalData: data,
		CreatedAt:      e.now().UTC(),
	}

	e.metricInc(metrics.MetricActivityRecorded)
	e.audit.Emit(ctx, rec)
}

// ActivityStore exposes the audit record store for read/retention paths
// (admin queries, the purge job). Nil when the Engine was built without one.
func (e *Engine) ActivityStore() audit.Store {
	if e == nil {
		return nil
	}
	return e.activities
}
