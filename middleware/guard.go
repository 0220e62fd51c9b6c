package middleware

import (
	"context"
	"net/http"

	shield "github.com/yatrik/shield"
	"github.com/yatrik/shield/session"
)

// RefreshedCredentialHeader carries the reissued credential to the client
// when the guard refreshed a session inside the sliding-expiration window.
const RefreshedCredentialHeader = "X-Refreshed-Token"

type sessionContextKey struct{}

// SessionFromContext returns the validated session attached by Guard.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*session.Session)
	return sess, ok
}

// Guard authenticates a request: bearer credential → signature check →
// store-backed session validation → sliding refresh. Every failure mode is a
// plain 401 — why a session failed is never distinguished to the client.
func Guard(engine *shield.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			credential, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			userID, sessionID, err := engine.ParseCredential(credential)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := shield.WithClientIP(r.Context(), ClientIP(r))
			ctx = shield.WithUserAgent(ctx, r.UserAgent())

			result := engine.ValidateSession(ctx, sessionID, userID)
			if !result.Valid {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			// Refresh failures are not fatal: the current credential is
			// still valid, the client just doesn't get a new one yet.
			if refreshed, err := engine.RefreshIfNeeded(ctx, result.Session); err == nil && refreshed.Refreshed {
				w.Header().Set(RefreshedCredentialHeader, refreshed.Token)
			}

			ctx = shield.WithUser(ctx, shield.UserInfo{UserID: userID})
			ctx = context.WithValue(ctx, sessionContextKey{}, result.Session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
