package shield

import (
	"testing"
	"time"
)

func TestBuildRequiresStoreOrRedis(t *testing.T) {
	_, err := New().WithConfig(testConfig()).Build()
	if err == nil {
		t.Fatal("Build succeeded without a session store")
	}
}

func TestBuildRejectsBadConfig(t *testing.T) {
	_, rdb := newTestRedis(t)

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"short secret", func(cfg *Config) { cfg.Token.Secret = []byte("short") }},
		{"zero max age", func(cfg *Config) { cfg.Session.MaxAge = 0 }},
		{"zero inactivity timeout", func(cfg *Config) { cfg.Session.InactivityTimeout = 0 }},
		{"threshold above max age", func(cfg *Config) {
			cfg.Session.RefreshThreshold = cfg.Session.MaxAge + time.Minute
		}},
		{"zero session cap", func(cfg *Config) { cfg.Session.MaxConcurrentSessions = 0 }},
		{"zero sanitize depth", func(cfg *Config) { cfg.Sanitize.MaxDepth = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			if _, err := New().WithConfig(cfg).WithRedis(rdb).Build(); err == nil {
				t.Fatal("invalid config accepted")
			}
		})
	}
}

func TestBuilderIsSingleUse(t *testing.T) {
	_, rdb := newTestRedis(t)

	builder := New().WithConfig(testConfig()).WithRedis(rdb)
	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	if _, err := builder.Build(); err == nil {
		t.Fatal("second Build on the same builder succeeded")
	}
}

func TestNilEngineIsInert(t *testing.T) {
	var engine *Engine

	if _, err := engine.CreateSession(nil, "u", RequestInfo{}, false); err != ErrEngineNotReady {
		t.Fatalf("CreateSession on nil engine: %v", err)
	}
	if res := engine.ValidateSession(nil, "s", "u"); res.Valid {
		t.Fatal("nil engine validated a session")
	}
	if engine.InvalidateSession(nil, "s", "u") {
		t.Fatal("nil engine invalidated a session")
	}
	if got := engine.SanitizeValue(nil, "body", "x"); got != "x" {
		t.Fatalf("nil engine changed input: %v", got)
	}
	if engine.SweepExpiredSessions(nil) != 0 {
		t.Fatal("nil engine swept sessions")
	}
	engine.Close()
}
