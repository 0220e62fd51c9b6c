package shield

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/yatrik/shield/audit"
)

// testClock is a controllable time source shared by engine tests.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.Secret = []byte("0123456789abcdef0123456789abcdef")
	return cfg
}

type engineOption func(*testing.T, *Builder)

func withConfigMutator(mutate func(*Config)) engineOption {
	return func(t *testing.T, b *Builder) {
		cfg := testConfig()
		mutate(&cfg)
		b.WithConfig(cfg)
	}
}

func withSink(sink audit.Sink) engineOption {
	return func(t *testing.T, b *Builder) {
		b.WithAuditSink(sink)
	}
}

func newTestEngine(t *testing.T, opts ...engineOption) (*Engine, *testClock) {
	t.Helper()

	_, rdb := newTestRedis(t)
	clock := newTestClock()

	builder := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithClock(clock.Now)
	for _, opt := range opts {
		opt(t, builder)
	}

	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, clock
}

func testRequestInfo() RequestInfo {
	return RequestInfo{
		IP:        "203.0.113.7",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0",
		Method:    "POST",
		Endpoint:  "/login",
	}
}

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, audit.Record) {
	s.count.Add(1)
}

func (s *countingSink) Count() int64 {
	return s.count.Load()
}

type captureSink struct {
	records chan audit.Record
}

func newCaptureSink(buffer int) *captureSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &captureSink{
		records: make(chan audit.Record, buffer),
	}
}

func (s *captureSink) Emit(ctx context.Context, rec audit.Record) {
	select {
	case s.records <- rec:
	case <-ctx.Done():
	}
}

func (s *captureSink) next(t *testing.T) audit.Record {
	t.Helper()
	select {
	case rec := <-s.records:
		return rec
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit record")
		return audit.Record{}
	}
}

type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{gate: make(chan struct{})}
}

func (s *gateSink) Emit(context.Context, audit.Record) {
	<-s.gate
}
