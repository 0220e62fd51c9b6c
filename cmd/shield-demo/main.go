// Command shield-demo runs a minimal HTTP server wired through the full
// security core: sanitization on every route, session issuance on /login,
// guarded routes with sliding refresh, activity logging, and an hourly
// session sweep.
//
// Configuration comes from the environment (a .env file is honored):
//
//	REDIS_ADDR    Redis to use; when empty an embedded miniredis is started
//	TOKEN_SECRET  HS256 signing secret, at least 32 bytes (generated if empty)
//	LISTEN_ADDR   bind address, default :8080
//
// Run:
//
//	go run ./cmd/shield-demo
//
// Then:
//
//	# login (any username; credential verification is out of scope here)
//	curl -s -X POST localhost:8080/login \
//	  -H 'Content-Type: application/json' \
//	  -d '{"username":"alice","rememberMe":false}'
//
//	# guarded route
//	curl -i localhost:8080/sessions -H "Authorization: Bearer <TOKEN>"
//
//	# watch the sanitizer neutralize a payload
//	curl -s -X POST localhost:8080/echo \
//	  -H 'Content-Type: application/json' \
//	  -d '{"$where":"1==1","name":"<script>alert(1)</script>"}'
package main

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/redis/go-redis/v9"

	shield "github.com/yatrik/shield"
	"github.com/yatrik/shield/audit"
	"github.com/yatrik/shield/middleware"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	rdb, cleanup, err := redisClient()
	if err != nil {
		logger.Error("redis setup failed", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	cfg := shield.DefaultConfig()
	cfg.Token.Secret = tokenSecret(logger)

	engine, err := shield.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithLogger(logger).
		Build()
	if err != nil {
		logger.Error("engine build failed", "err", err)
		os.Exit(1)
	}
	defer engine.Close()

	go sweepLoop(engine, logger)

	sanitize := middleware.Sanitize(engine)
	guard := middleware.Guard(engine)

	mux := http.NewServeMux()
	mux.Handle("POST /login", sanitize(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username   string `json:"username"`
			RememberMe bool   `json:"rememberMe"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		// Credential verification belongs to an external collaborator; the
		// demo trusts the username and goes straight to session issuance.
		cred, err := engine.CreateSession(r.Context(), req.Username, middleware.RequestInfo(r), req.RememberMe)
		if err != nil {
			http.Error(w, "login failed", http.StatusInternalServerError)
			return
		}

		engine.RecordActivity(r.Context(), audit.Record{
			UserID:      req.Username,
			Username:    req.Username,
			Action:      audit.ActionLogin,
			Description: "user logged in",
			IPAddress:   middleware.ClientIP(r),
			UserAgent:   r.UserAgent(),
			Method:      r.Method,
			Endpoint:    r.URL.Path,
		})
		writeJSON(w, map[string]string{"token": cred.Token, "sessionId": cred.SessionID})
	})))

	mux.Handle("POST /echo", sanitize(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})))

	mux.Handle("GET /sessions", guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := shield.UserFromContext(r.Context())
		writeJSON(w, engine.ListActiveSessions(r.Context(), user.UserID))
	})))

	mux.Handle("POST /logout", guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := shield.UserFromContext(r.Context())
		sess, _ := middleware.SessionFromContext(r.Context())
		engine.InvalidateSession(r.Context(), sess.SessionID, user.UserID)
		engine.RecordActivity(r.Context(), audit.Record{
			UserID:      user.UserID,
			Action:      audit.ActionLogout,
			Description: "user logged out",
			IPAddress:   middleware.ClientIP(r),
			UserAgent:   r.UserAgent(),
			Method:      r.Method,
			Endpoint:    r.URL.Path,
		})
		w.WriteHeader(http.StatusNoContent)
	})))

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	logger.Info("listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func redisClient() (*redis.Client, func(), error) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		return rdb, func() { _ = rdb.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, err
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}, nil
}

func tokenSecret(logger *slog.Logger) []byte {
	if secret := os.Getenv("TOKEN_SECRET"); len(secret) >= 32 {
		return []byte(secret)
	}
	logger.Warn("TOKEN_SECRET unset or too short, generating an ephemeral secret")
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		logger.Error("secret generation failed", "err", err)
		os.Exit(1)
	}
	return secret
}

func sweepLoop(engine *shield.Engine, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		n := engine.SweepExpiredSessions(context.Background())
		logger.Info("session sweep finished", "removed", n)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
