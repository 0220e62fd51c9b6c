// Package session provides the session model and its Redis-backed persistence
// for the security core.
//
// # Store contract
//
// Sessions are keyed by sessionID (unique), indexed per user for the
// concurrent-session cap, and indexed by expiry time and last activity so the
// periodic sweep can find dead records without scanning. Store operations are
// safe under concurrent invocation; deletions are idempotent.
//
// # Architecture boundaries
//
// This package owns the [Session] model and the [Store] contract. It does NOT
// decide lifecycle policy — inactivity timeouts, eviction, and refresh
// thresholds belong to the Engine. It never interprets credentials.
package session
