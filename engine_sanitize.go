package shield

import (
	"context"
	"net/url"

	"github.com/yatrik/shield/audit"
	"github.com/yatrik/shield/internal/metrics"
	"github.com/yatrik/shield/sanitize"
)

// SanitizeValue runs the sanitization pipeline — injection guard, then markup
// sanitizer — over a decoded JSON value and returns the cleaned copy. origin
// names the input being cleaned ("body", "query", "params") for telemetry.
//
// Fail-open: any internal fault (depth cap, unexpected shape) is logged and
// the ORIGINAL value is returned so a sanitizer bug can never become a
// denial of service. When the detector is enabled, matches in the raw input
// additionally produce one warning-level security record; detection never
// mutates or blocks anything.
func (e *Engine) SanitizeValue(ctx context.Context, origin string, v interface{}) interface{} {
	if e == nil || e.sanitizer == nil {
		return v
	}

	if e.detector != nil {
		if findings := e.detector.Scan(v, origin); len(findings) > 0 {
			e.metrics.Add(metrics.MetricDetectorFinding, uint64(len(findings)))
			e.recordDetectorFindings(ctx, origin, findings)
		}
	}

	cleaned, err := e.sanitizer.Value(v)
	if err != nil {
		e.metricInc(metrics.MetricSanitizeFault)
		e.logger.Warn("sanitization fault, passing request through unmodified",
			"origin", origin, "err", err)
		return v
	}

	e.metricInc(metrics.MetricSanitizeApplied)
	return cleaned
}

// SanitizeString runs the markup pass over one string. Deterministic and
// never fails.
func (e *Engine) SanitizeString(in string) string {
	if e == nil || e.sanitizer == nil {
		return in
	}
	return e.sanitizer.String(in)
}

// CollapseQuery applies the parameter-pollution guard to a parsed query.
func (e *Engine) CollapseQuery(values url.Values) url.Values {
	if e == nil || e.sanitizer == nil {
		return values
	}
	return e.sanitizer.CollapseValues(values)
}

func (e *Engine) recordDetectorFindings(ctx context.Context, origin string, findings []sanitize.Finding) {
	details := make([]interface{}, 0, len(findings))
	for _, f := range findings {
		details = append(details, map[string]interface{}{
			"pattern": f.Pattern,
			"path":    f.Path,
			"excerpt": f.Excerpt,
		})
	}
	e.RecordSecurityEvent(ctx, audit.ActionSecurityAlert,
		"suspicious payload detected in request "+origin,
		RequestInfo{IP: clientIPFromContext(ctx), UserAgent: userAgentFromContext(ctx)},
		audit.SeverityMedium,
		map[string]interface{}{
			"origin":   origin,
			"count":    len(findings),
			"findings": details,
		},
	)
}
