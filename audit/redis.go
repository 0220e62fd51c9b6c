package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements [Store] on a Redis keyspace: one JSON blob per record
// and sorted-set indexes by time, user, action, and severity, all scored by
// creation time so range queries and the retention purge need no scans.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

func NewRedisStore(client *redis.Client, prefix string, timeout time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "shield"
	}
	return &RedisStore{client: client, prefix: prefix, timeout: timeout}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + ":rec:" + id
}

func (s *RedisStore) timeKey() string {
	return s.prefix + ":rec_time"
}

func (s *RedisStore) userKey(userID string) string {
	return s.prefix + ":rec_user:" + userID
}

func (s *RedisStore) actionKey(action Action) string {
	return s.prefix + ":rec_action:" + string(action)
}

func (s *RedisStore) severityKey(sev Severity) string {
	return s.prefix + ":rec_sev:" + string(sev)
}

func (s *RedisStore) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Append persists one record and its index entries.
func (s *RedisStore) Append(ctx context.Context, rec *Record) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	score := float64(rec.CreatedAt.Unix())
	member := redis.Z{Score: score, Member: rec.ID}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(rec.ID), blob, 0)
	pipe.ZAdd(ctx, s.timeKey(), member)
	if rec.UserID != "" {
		pipe.ZAdd(ctx, s.userKey(rec.UserID), member)
	}
	pipe.ZAdd(ctx, s.actionKey(rec.Action), member)
	pipe.ZAdd(ctx, s.severityKey(rec.Severity), member)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// Find returns matching records newest-first. The most selective set index
// (user, then action, then severity, then time) drives the range read; the
// remaining criteria are post-filtered.
func (s *RedisStore) Find(ctx context.Context, q Query) ([]*Record, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	index := s.timeKey()
	switch {
	case q.UserID != "":
		index = s.userKey(q.UserID)
	case q.Action != "":
		index = s.actionKey(q.Action)
	case q.Severity != "":
		index = s.severityKey(q.Severity)
	}

	min, max := "-inf", "+inf"
	if !q.From.IsZero() {
		min = strconv.FormatInt(q.From.Unix(), 10)
	}
	if !q.To.IsZero() {
		max = strconv.FormatInt(q.To.Unix(), 10)
	}

	ids, err := s.client.ZRevRangeByScore(ctx, index, &redis.ZRangeBy{Min: min, Max: max}).Result()
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
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
		return nil, fmt.Errorf("load records: %w", err)
	}

	var records []*Record
	for _, raw := range blobs {
		text, ok := raw.(string)
		if !ok {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			continue
		}
		if q.UserID != "" && rec.UserID != q.UserID {
			continue
		}
		if q.Action != "" && rec.Action != q.Action {
			continue
		}
		if q.Severity != "" && rec.Severity != q.Severity {
			continue
		}
		records = append(records, &rec)
		if q.Limit > 0 && len(records) >= q.Limit {
			break
		}
	}
	return records, nil
}

// PurgeOlderThan is the retention cleanup: it deletes every record created
// more than age ago, including all index entries, and reports the count.
func (s *RedisStore) PurgeOlderThan(ctx context.Context, age time.Duration) (int, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	cutoff := time.Now().Add(-age).Unix()
	ids, err := s.client.ZRangeByScore(ctx, s.timeKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(cutoff, 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("scan old records: %w", err)
	}

	purged := 0
	for _, id := range ids {
		blob, err := s.client.Get(ctx, s.key(id)).Bytes()
		if errors.Is(err, redis.Nil) {
			_ = s.client.ZRem(ctx, s.timeKey(), id).Err()
			continue
		}
		if err != nil {
			return purged, fmt.Errorf("load record: %w", err)
		}
		var rec Record
		if err := json.Unmarshal(blob, &rec); err != nil {
			rec = Record{ID: id}
		}

		pipe := s.client.TxPipeline()
		pipe.Del(ctx, s.key(id))
		pipe.ZRem(ctx, s.timeKey(), id)
		if rec.UserID != "" {
			pipe.ZRem(ctx, s.userKey(rec.UserID), id)
		}
		pipe.ZRem(ctx, s.actionKey(rec.Action), id)
		pipe.ZRem(ctx, s.severityKey(rec.Severity), id)
		if _, err := pipe.Exec(ctx); err != nil {
			return purged, fmt.Errorf("purge record: %w", err)
		}
		purged++
	}
	return purged, nil
}
