package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// retentionGrace keeps expired session blobs around briefly so the sweep can
// observe and count them before Redis reclaims the key on its own.
const retentionGrace = 24 * time.Hour

const minKeyTTL = time.Second

// deleteSessionScript removes a session record together with every index
// entry pointing at it, atomically. Returns whether the record still existed.
const deleteSessionScript = `
local existed = redis.call("EXISTS", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
redis.call("ZREM", KEYS[3], ARGV[1])
redis.call("ZREM", KEYS[4], ARGV[1])
if existed == 1 then
  redis.call("DEL", KEYS[1])
end
return existed
`

var deleteSessionLua = redis.NewScript(deleteSessionScript)

// RedisStore implements [Store] on a Redis keyspace: one JSON blob per
// session, a per-user set index, and two sorted-set indexes (absolute expiry
// and last activity) backing the sweep.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

// NewRedisStore creates a RedisStore. timeout bounds each round-trip; zero
// disables the bound.
func NewRedisStore(client *redis.Client, prefix string, timeout time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "shield"
	}
	return &RedisStore{client: client, prefix: prefix, timeout: timeout}
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + ":sess:" + sessionID
}

func (s *RedisStore) userKey(userID string) string {
	return s.prefix + ":user:" + userID
}

func (s *RedisStore) expiryKey() string {
	return s.prefix + ":sess_expiry"
}

func (s *RedisStore) idleKey() string {
	return s.prefix + ":sess_idle"
}

func (s *RedisStore) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *RedisStore) keyTTL(sess *Session) time.Duration {
	ttl := time.Until(time.Unix(sess.ExpiresAt, 0)) + retentionGrace
	if ttl < minKeyTTL {
		ttl = minKeyTTL
	}
	return ttl
}

// Insert persists a new session record and all of its index entries.
func (s *RedisStore) Insert(ctx context.Context, sess *Session) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	blob, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(sess.SessionID), blob, s.keyTTL(sess))
	pipe.SAdd(ctx, s.userKey(sess.UserID), sess.SessionID)
	pipe.ZAdd(ctx, s.expiryKey(), redis.Z{Score: float64(sess.ExpiresAt), Member: sess.SessionID})
	pipe.ZAdd(ctx, s.idleKey(), redis.Z{Score: float64(sess.LastActivity), Member: sess.SessionID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Get loads one session blob, or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	blob, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(blob, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// Update rewrites the record and keeps the expiry/idle indexes in step. An
// inactive session leaves the idle index so the sweep no longer sees it as an
// idle-eviction candidate.
func (s *RedisStore) Update(ctx context.Context, sess *Session) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	blob, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(sess.SessionID), blob, s.keyTTL(sess))
	pipe.ZAdd(ctx, s.expiryKey(), redis.Z{Score: float64(sess.ExpiresAt), Member: sess.SessionID})
	if sess.IsActive {
		pipe.ZAdd(ctx, s.idleKey(), redis.Z{Score: float64(sess.LastActivity), Member: sess.SessionID})
	} else {
		pipe.ZRem(ctx, s.idleKey(), sess.SessionID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// FindActiveByUser returns the user's active, unexpired sessions and prunes
// dangling index entries it encounters.
func (s *RedisStore) FindActiveByUser(ctx context.Context, userID string, now time.Time) ([]*Session, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	ids, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	blobs, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load user sessions: %w", err)
	}

	var (
		sessions []*Session
		dangling []interface{}
	)
	nowUnix := now.Unix()
	for i, raw := range blobs {
		if raw == nil {
			dangling = append(dangling, ids[i])
			continue
		}
		text, ok := raw.(string)
		if !ok {
			continue
		}
		var sess Session
		if err := json.Unmarshal([]byte(text), &sess); err != nil {
			continue
		}
		if !sess.IsActive || sess.ExpiresAt <= nowUnix {
			continue
		}
		sessions = append(sessions, &sess)
	}

	if len(dangling) > 0 {
		_ = s.client.SRem(ctx, s.userKey(userID), dangling...).Err()
	}
	return sessions, nil
}

// Deactivate flips one session to inactive. Already-inactive sessions report
// found without a write, which keeps the operation idempotent.
func (s *RedisStore) Deactivate(ctx context.Context, userID, sessionID string) (bool, error) {
	sess, err := s.Get(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if sess.UserID != userID {
		return false, nil
	}
	if !sess.IsActive {
		return true, nil
	}

	sess.IsActive = false
	if err := s.Update(ctx, sess); err != nil {
		return false, err
	}
	return true, nil
}

// DeactivateAll flips every session belonging to the user.
func (s *RedisStore) DeactivateAll(ctx context.Context, userID string) (int, error) {
	listCtx, cancel := s.opCtx(ctx)
	ids, err := s.client.SMembers(listCtx, s.userKey(userID)).Result()
	cancel()
	if err != nil {
		return 0, fmt.Errorf("list user sessions: %w", err)
	}

	deactivated := 0
	for _, id := range ids {
		sess, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return deactivated, err
		}
		if !sess.IsActive {
			continue
		}
		sess.IsActive = false
		if err := s.Update(ctx, sess); err != nil {
			return deactivated, err
		}
		deactivated++
	}
	return deactivated, nil
}

// DeleteExpired removes sessions past their absolute expiry plus active
// sessions idle beyond the caller's cutoff. The per-record delete is a Lua
// script so a concurrent sweep or validate never leaves a half-cleaned index.
func (s *RedisStore) DeleteExpired(ctx context.Context, expiredBefore, idleBefore time.Time) (int, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	expired, err := s.client.ZRangeByScore(ctx, s.expiryKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(expiredBefore.Unix(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("scan expired sessions: %w", err)
	}

	idle, err := s.client.ZRangeByScore(ctx, s.idleKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(idleBefore.Unix(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("scan idle sessions: %w", err)
	}

	seen := make(map[string]struct{}, len(expired)+len(idle))
	candidates := make([]string, 0, len(expired)+len(idle))
	for _, id := range append(expired, idle...) {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		candidates = append(candidates, id)
	}

	removed := 0
	for _, id := range candidates {
		sess, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			// Blob already gone (TTL or concurrent sweep); drop the index entries.
			pipe := s.client.TxPipeline()
			pipe.ZRem(ctx, s.expiryKey(), id)
			pipe.ZRem(ctx, s.idleKey(), id)
			_, _ = pipe.Exec(ctx)
			continue
		}
		if err != nil {
			return removed, err
		}

		existed, err := deleteSessionLua.Run(ctx, s.client,
			[]string{s.key(id), s.userKey(sess.UserID), s.expiryKey(), s.idleKey()},
			id,
		).Int64()
		if err != nil {
			return removed, fmt.Errorf("delete session: %w", err)
		}
		if existed == 1 {
			removed++
		}
	}
	return removed, nil
}
