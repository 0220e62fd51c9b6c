// Package sanitize implements the request sanitization pipeline: a key-based
// injection guard and a value-based markup sanitizer composed over one shared
// depth-bounded recursive-descent walker, plus a telemetry-only payload
// detector and a query-parameter pollution guard.
//
// # Traversal contract
//
// Input is the decoded-JSON value universe: map[string]interface{} for
// objects, []interface{} for arrays, and string/float64/bool/nil scalars.
// Containers are walked entry by entry; scalars are transformed or passed
// through untouched; recursion depth is capped and exceeding the cap is a
// validation failure ([ErrDepthExceeded]), never stack exhaustion.
//
// # Failure posture
//
// The pipeline itself is deterministic and never panics for any input — the
// markup pass is a fixed bluemonday allow-list policy, and malformed markup
// degrades to the nearest safe approximation. Callers treat ErrDepthExceeded
// as fail-open: log and let the original request proceed.
package sanitize
