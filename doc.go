// Package shield is the security middleware core for a rental-platform web
// backend. It bundles three cooperating subsystems behind a single [Engine]:
//
//   - Session lifecycle management: cryptographically random session IDs,
//     per-user concurrent-session caps with least-recently-created eviction,
//     inactivity timeouts, sliding expiration, and a periodic sweep of dead
//     session records.
//   - Request sanitization: a depth-bounded recursive pipeline that removes
//     document-store operator keys ($-prefixed or dotted) and strips dangerous
//     markup from every string leaf, plus a telemetry-only payload detector and
//     a query-parameter pollution guard.
//   - Audit logging: append-only activity records dispatched through a bounded
//     asynchronous queue so persistence never blocks the request path.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// shield is the public surface. It exposes [Engine], [Builder], [Config], and
// value types (SessionCredential, ValidationResult, RequestInfo). Session
// persistence lives in the session subpackage, credential signing in token,
// the sanitization pipeline in sanitize, and record dispatch in audit. HTTP
// adapters live in middleware and are optional; the Engine itself never
// touches net/http.
//
// # What this package must NOT do
//
//   - Authenticate credentials. Password or OAuth verification is the caller's
//     job; CreateSession trusts the userID it is given.
//   - Render or store business entities. The sanitizer cleans request shapes,
//     it does not validate them.
//   - Block a request on audit persistence. Logging is best-effort by design.
//
// # Failure posture
//
// Session creation is the only fatal path: a store error there surfaces as
// [ErrSessionCreationFailed]. Validation, invalidation, and sweep swallow
// store errors and report "not valid" / "nothing removed". The sanitizer and
// the audit dispatcher are fail-open: an internal fault is logged and the
// request proceeds with its original payload.
package shield
