package shield

import (
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yatrik/shield/audit"
	"github.com/yatrik/shield/internal/metrics"
	"github.com/yatrik/shield/sanitize"
	"github.com/yatrik/shield/session"
	"github.com/yatrik/shield/token"
)

// Builder assembles an [Engine]. Construction is allocation-only; no I/O
// happens until the Engine's methods are called.
type Builder struct {
	config Config
	redis  *redis.Client

	sessions   session.Store
	activities audit.Store
	sink       audit.Sink
	logger     *slog.Logger
	clock      func() time.Time

	built bool
}

// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
		clock:  time.Now,
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies the Redis client backing the default session and
// activity stores. Ignored for a store that was set explicitly.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithSessionStore overrides the session store implementation.
func (b *Builder) WithSessionStore(store session.Store) *Builder {
	b.sessions = store
	return b
}

// WithActivityStore overrides the audit record store implementation.
func (b *Builder) WithActivityStore(store audit.Store) *Builder {
	b.activities = store
	return b
}

// WithAuditSink overrides the audit sink. By default records flow into the
// activity store through a [audit.StoreSink].
func (b *Builder) WithAuditSink(sink audit.Sink) *Builder {
	b.sink = sink
	return b
}

// WithLogger sets the local fault logger; defaults to slog.Default().
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the time source, for test isolation.
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	if clock != nil {
		b.clock = clock
	}
	return b
}

// Build validates the configuration, wires defaults, and starts the audit
// dispatcher.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if err := validateConfig(b.config); err != nil {
		return nil, err
	}

	sessions := b.sessions
	if sessions == nil {
		if b.redis == nil {
			return nil, errors.New("a session store or redis client is required")
		}
		sessions = session.NewRedisStore(b.redis, b.config.Session.RedisPrefix, b.config.Session.StoreTimeout)
	}

	activities := b.activities
	if activities == nil && b.redis != nil {
		activities = audit.NewRedisStore(b.redis, b.config.Session.RedisPrefix, b.config.Session.StoreTimeout)
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	sink := b.sink
	if sink == nil {
		if activities != nil {
			sink = audit.NewStoreSink(activities, logger)
		} else {
			sink = audit.NoOpSink{}
		}
	}

	tokens, err := token.NewManager(token.Config{
		Secret: b.config.Token.Secret,
		Issuer: b.config.Token.Issuer,
		Leeway: b.config.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	sanitizer := sanitize.New(sanitize.Config{
		MaxDepth:       b.config.Sanitize.MaxDepth,
		RepeatableKeys: b.config.Sanitize.RepeatableKeys,
	})

	var detector *sanitize.Detector
	if b.config.Sanitize.DetectorEnabled {
		detector = sanitize.NewDetector(b.config.Sanitize.MaxDepth)
	}

	dispatcher := audit.NewDispatcher(audit.Config{
		Enabled:    b.config.Audit.Enabled,
		BufferSize: b.config.Audit.BufferSize,
		DropIfFull: b.config.Audit.DropIfFull,
	}, sink)

	b.built = true
	return &Engine{
		config:     b.config,
		sessions:   sessions,
		activities: activities,
		tokens:     tokens,
		sanitizer:  sanitizer,
		detector:   detector,
		audit:      dispatcher,
		metrics:    metrics.New(b.config.Metrics.Enabled),
		logger:     logger,
		now:        b.clock,
	}, nil
}
