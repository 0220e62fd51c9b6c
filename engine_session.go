package shield

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/yatrik/shield/audit"
	"github.com/yatrik/shield/internal"
	"github.com/yatrik/shield/internal/metrics"
	"github.com/yatrik/shield/session"
	"github.com/yatrik/shield/token"
)

// SessionCredential is returned by CreateSession: the signed credential and
// the session identifier it embeds.
type SessionCredential struct {
	Token     string
	SessionID string
}

// ValidationResult is returned by ValidateSession. Valid is false for every
// failure mode — not found, wrong owner, inactive, expired, idle too long, or
// store error — without distinguishing them to the caller.
type ValidationResult struct {
	Valid   bool
	Session *session.Session
}

// RefreshResult is returned by RefreshIfNeeded. Outside the refresh window it
// is the zero value: not refreshed, no new credential.
type RefreshResult struct {
	Refreshed bool
	Token     string
}

// CreateSession establishes a new active session for an already-authenticated
// user and issues its signed credential.
//
// When the user is at the concurrent-session cap, the oldest sessions by
// creation time are deactivated until exactly cap-1 remain, then the new one
// is inserted — the evicted device finds out on its next validation. Any
// store failure here is fatal to the request and surfaces wrapped in
// [ErrSessionCreationFailed].
func (e *Engine) CreateSession(ctx context.Context, userID string, req RequestInfo, rememberMe bool) (*SessionCredential, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	sid, err := internal.NewSessionID()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCreationFailed, err)
	}

	ip := req.IP
	if ip == "" {
		ip = "unknown"
	}
	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = "unknown"
	}

	// Advisory per-user lock: narrows the count-evict-insert race window for
	// concurrent creates on a near-full user. Cross-process creates can still
	// transiently exceed the cap by one, which is acceptable.
	mu := e.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	now := e.now()
	active, err := e.sessions.FindActiveByUser(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCreationFailed, err)
	}

	if len(active) >= e.config.Session.MaxConcurrentSessions {
		// Newest-first by creation; everything beyond the cap-1 most recent
		// goes, freeing one slot for the session being created.
		sort.Slice(active, func(i, j int) bool {
			return active[i].CreatedAt > active[j].CreatedAt
		})
		for _, victim := range active[e.config.Session.MaxConcurrentSessions-1:] {
			if _, err := e.sessions.Deactivate(ctx, userID, victim.SessionID); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSessionCreationFailed, err)
			}
			e.metricInc(metrics.MetricSessionEvicted)
			e.RecordActivity(ctx, audit.Record{
				UserID:      userID,
				Action:      audit.ActionSessionEvicted,
				Description: "session deactivated by concurrent-session cap",
				IPAddress:   ip,
				UserAgent:   userAgent,
				Severity:    audit.SeverityMedium,
				AdditionalData: map[string]interface{}{
					"evicted_session_id": victim.SessionID,
				},
			})
		}
	}

	duration := e.config.Session.MaxAge
	if rememberMe {
		duration = e.config.Session.RememberMeAge
	}

	sess := &session.Session{
		SessionID:    sid.String(),
		UserID:       userID,
		IPAddress:    ip,
		UserAgent:    userAgent,
		DeviceInfo:   session.ParseUserAgent(userAgent),
		IsActive:     true,
		RememberMe:   rememberMe,
		LastActivity: now.Unix(),
		ExpiresAt:    now.Add(duration).Unix(),
		CreatedAt:    now.Unix(),
	}
	if err := e.sessions.Insert(ctx, sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCreationFailed, err)
	}

	credential, err := e.tokens.Issue(userID, sess.SessionID, duration)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCreationFailed, err)
	}

	e.metricInc(metrics.MetricSessionCreated)
	return &SessionCredential{Token: credential, SessionID: sess.SessionID}, nil
}

// ValidateSession is the store-backed authority on whether a session is
// usable. It never returns an error: lookup failures, store errors, expiry,
// and idleness all collapse to Valid=false.
//
// A session idle beyond the inactivity timeout is deactivated on the spot
// (lazy expiry); an inactive session is never revalidated. On success the
// session's last activity is bumped to now.
func (e *Engine) ValidateSession(ctx context.Context, sessionID, userID string) ValidationResult {
	invalid := ValidationResult{}
	if e == nil || sessionID == "" || userID == "" {
		return invalid
	}

	sess, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			e.logger.Warn("session lookup failed, treating as unauthenticated", "err", err)
		}
		e.metricInc(metrics.MetricSessionRejected)
		return invalid
	}

	now := e.now()
	if sess.UserID != userID || !sess.IsActive || sess.ExpiresAt <= now.Unix() {
		e.metricInc(metrics.MetricSessionRejected)
		return invalid
	}

	idleFor := now.Unix() - sess.LastActivity
	if idleFor > int64(e.config.Session.InactivityTimeout.Seconds()) {
		if _, err := e.sessions.Deactivate(ctx, userID, sessionID); err != nil {
			e.logger.Warn("idle session deactivation failed", "session_id", sessionID, "err", err)
		}
		e.metricInc(metrics.MetricSessionRejected)
		return invalid
	}

	sess.LastActivity = now.Unix()
	if err := e.sessions.Update(ctx, sess); err != nil {
		e.logger.Warn("session activity bump failed, treating as unauthenticated", "err", err)
		e.metricInc(metrics.MetricSessionRejected)
		return invalid
	}

	e.metricInc(metrics.MetricSessionValidated)
	return ValidationResult{Valid: true, Session: sess}
}

// RefreshIfNeeded implements sliding expiration. Inside the refresh window it
// extends the session by the standard lifetime and issues a new credential
// with the same identity; outside the window it is a no-op. A continuously
// active session therefore never expires, while an idle one eventually does.
func (e *Engine) RefreshIfNeeded(ctx context.Context, sess *session.Session) (RefreshResult, error) {
	if e == nil || sess == nil {
		return RefreshResult{}, ErrEngineNotReady
	}

	now := e.now()
	timeUntilExpiry := sess.ExpiresAt - now.Unix()
	if timeUntilExpiry >= int64(e.config.Session.RefreshThreshold.Seconds()) {
		return RefreshResult{}, nil
	}

	// Extensions always use the standard lifetime, even for remember-me
	// sessions: the long window applies to the initial grant only.
	sess.ExpiresAt = now.Add(e.config.Session.MaxAge).Unix()
	if err := e.sessions.Update(ctx, sess); err != nil {
		return RefreshResult{}, fmt.Errorf("%w: %v", ErrSessionRefreshFailed, err)
	}

	credential, err := e.tokens.Issue(sess.UserID, sess.SessionID, e.config.Session.MaxAge)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("%w: %v", ErrSessionRefreshFailed, err)
	}

	e.metricInc(metrics.MetricSessionRefreshed)
	return RefreshResult{Refreshed: true, Token: credential}, nil
}

// InvalidateSession marks one session inactive. Idempotent; reports whether a
// record owned by the user was found. Store errors are swallowed as "not
// found".
func (e *Engine) InvalidateSession(ctx context.Context, sessionID, userID string) bool {
	if e == nil {
		return false
	}
	found, err := e.sessions.Deactivate(ctx, userID, sessionID)
	if err != nil {
		e.logger.Warn("session invalidation failed", "session_id", sessionID, "err", err)
		return false
	}
	if found {
		e.metricInc(metrics.MetricSessionInvalidated)
	}
	return found
}

// InvalidateAllSessions marks every session for the user inactive — the
// "log out everywhere" operation used on password change. Store errors are
// swallowed; the return reports overall success.
func (e *Engine) InvalidateAllSessions(ctx context.Context, userID string) bool {
	if e == nil {
		return false
	}
	n, err := e.sessions.DeactivateAll(ctx, userID)
	if err != nil {
		e.logger.Warn("bulk session invalidation failed", "user_id", userID, "err", err)
		return false
	}
	e.metrics.Add(metrics.MetricSessionInvalidated, uint64(n))
	return true
}

// ListActiveSessions returns the user's active, unexpired sessions ordered by
// most recent activity first. Store errors yield an empty list.
func (e *Engine) ListActiveSessions(ctx context.Context, userID string) []*session.Session {
	if e == nil {
		return nil
	}
	sessions, err := e.sessions.FindActiveByUser(ctx, userID, e.now())
	if err != nil {
		e.logger.Warn("active session listing failed", "user_id", userID, "err", err)
		return nil
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastActivity > sessions[j].LastActivity
	})
	return sessions
}

// SweepExpiredSessions deletes session records past their absolute expiry or
// active-but-idle beyond the inactivity timeout. Intended as a periodic
// external trigger (hourly is typical); safe to run concurrently with every
// other operation. Errors are swallowed and reported as zero removals.
func (e *Engine) SweepExpiredSessions(ctx context.Context) int {
	if e == nil {
		return 0
	}
	now := e.now()
	removed, err := e.sessions.DeleteExpired(ctx, now, now.Add(-e.config.Session.InactivityTimeout))
	if err != nil {
		e.logger.Warn("session sweep failed", "err", err)
	}
	if removed > 0 {
		e.metrics.Add(metrics.MetricSessionSwept, uint64(removed))
	}
	return removed
}

// ParseCredential verifies a signed credential and returns the user and
// session identity it carries. This is the store-free half of
// authentication; pair it with ValidateSession for the authoritative answer.
func (e *Engine) ParseCredential(credential string) (userID, sessionID string, err error) {
	if e == nil {
		return "", "", ErrEngineNotReady
	}
	claims, err := e.tokens.Parse(credential)
	if err != nil {
		if errors.Is(err, token.ErrInvalid) {
			return "", "", ErrTokenInvalid
		}
		return "", "", err
	}
	return claims.UID, claims.SID, nil
}
