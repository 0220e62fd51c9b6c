// Package audit provides append-only activity records, the asynchronous
// dispatcher that delivers them off the request path, and a Redis-backed
// record store with retention cleanup.
//
// # Delivery semantics
//
// Recording is fire-and-forget: the dispatcher buffers events on a bounded
// channel consumed by one worker goroutine, so the system has a defined
// back-pressure policy (drop with a counter, or block honoring the caller's
// context) instead of unbounded concurrent writes. Ordering is guaranteed
// only within one request: issuance happens after the triggering event.
// Persistence failure is logged locally and never surfaced to the end user —
// exactly-once delivery is explicitly not a goal.
//
// # What this package must NOT do
//
//   - Inspect payload semantics. Sensitive fields must be redacted by the
//     caller (the [Redact] helper exists for that) before a record is emitted.
//   - Mutate a record after creation. Records are append-only and immutable;
//     the only removal path is the explicit retention purge.
package audit
