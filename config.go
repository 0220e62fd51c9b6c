package shield

import (
	"errors"
	"time"
)

// Config defines a public type used by shield APIs.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable. All knobs that were module-level mutable state in
// earlier designs (session durations, concurrency cap) live here explicitly so
// per-environment overrides and test isolation need no globals.
type Config struct {
	Session  SessionConfig
	Token    TokenConfig
	Sanitize SanitizeConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the session lifecycle manager.
type SessionConfig struct {
	// MaxAge is the absolute lifetime of a standard session.
	MaxAge time.Duration
	// RememberMeAge is the absolute lifetime of a remember-me session.
	RememberMeAge time.Duration
	// InactivityTimeout invalidates a session whose last activity is older
	// than this, regardless of remaining absolute lifetime.
	InactivityTimeout time.Duration
	// RefreshThreshold is the sliding-expiration window: when time-to-expiry
	// drops below it, RefreshIfNeeded extends the session and reissues the
	// credential.
	RefreshThreshold time.Duration
	// MaxConcurrentSessions caps active sessions per user. Enforced at
	// creation time by evicting the oldest sessions, never retroactively.
	MaxConcurrentSessions int
	// RedisPrefix namespaces every key the stores write.
	RedisPrefix string
	// StoreTimeout bounds each store round-trip. Zero disables the bound.
	StoreTimeout time.Duration
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls the signed credential embedding userID and sessionID.
// Verification needs only Secret; whether the session behind a still-valid
// credential is actually usable is decided by ValidateSession.
type TokenConfig struct {
	Secret []byte
	Issuer string
	Leeway time.Duration
}

/*
====================================
SANITIZE CONFIG
====================================
*/

// SanitizeConfig controls the request sanitization pipeline.
type SanitizeConfig struct {
	// MaxDepth caps the recursive descent. Exceeding it is treated as a
	// sanitization fault (fail-open), not stack exhaustion.
	MaxDepth int
	// RepeatableKeys are query-parameter names allowed to appear multiple
	// times; every other repeated key collapses to its first value.
	RepeatableKeys []string
	// DetectorEnabled turns the telemetry-only payload scanner on. The
	// detector never mutates requests; a match only produces a warning-level
	// audit record.
	DetectorEnabled bool
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls dispatcher buffering behavior.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops the oldest-enqueued policy in favor of dropping the
	// incoming event when the buffer is full; the dropped count is observable
	// via Engine.AuditDropped.
	DropIfFull bool
}

// MetricsConfig enables the in-process atomic counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the production defaults: 24h standard sessions, 30d
// remember-me sessions, 30m inactivity timeout, 15m refresh threshold, and a
// cap of 5 concurrent sessions per user.
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			MaxAge:                24 * time.Hour,
			RememberMeAge:         30 * 24 * time.Hour,
			InactivityTimeout:     30 * time.Minute,
			RefreshThreshold:      15 * time.Minute,
			MaxConcurrentSessions: 5,
			RedisPrefix:           "shield",
			StoreTimeout:          3 * time.Second,
		},
		Token: TokenConfig{
			Issuer: "shield",
			Leeway: 30 * time.Second,
		},
		Sanitize: SanitizeConfig{
			MaxDepth:        32,
			RepeatableKeys:  []string{"tags", "fields"},
			DetectorEnabled: true,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func validateConfig(cfg Config) error {
	if len(cfg.Token.Secret) < 32 {
		return errors.New("token secret must be at least 32 bytes")
	}
	if cfg.Session.MaxAge <= 0 || cfg.Session.RememberMeAge <= 0 {
		return errors.New("session lifetimes must be positive")
	}
	if cfg.Session.InactivityTimeout <= 0 {
		return errors.New("inactivity timeout must be positive")
	}
	if cfg.Session.RefreshThreshold <= 0 || cfg.Session.RefreshThreshold >= cfg.Session.MaxAge {
		return errors.New("refresh threshold must be positive and below session max age")
	}
	if cfg.Session.MaxConcurrentSessions < 1 {
		return errors.New("max concurrent sessions must be at least 1")
	}
	if cfg.Sanitize.MaxDepth < 1 {
		return errors.New("sanitize max depth must be at least 1")
	}
	return nil
}
