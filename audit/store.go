package audit

import (
	"context"
	"time"
)

// Query narrows a Find call. Zero-valued fields are ignored; when several
// are set the store picks the most selective index and post-filters the rest.
type Query struct {
	UserID   string
	Action   Action
	Severity Severity
	From     time.Time
	To       time.Time
	Limit    int
}

// Store is the append-only record store contract. Records are never updated;
// the only delete path is the age-based retention purge.
type Store interface {
	// Append persists one record.
	Append(ctx context.Context, rec *Record) error

	// Find returns records matching q, newest first.
	Find(ctx context.Context, q Query) ([]*Record, error)

	// PurgeOlderThan deletes every record older than the given age and
	// returns the count removed.
	PurgeOlderThan(ctx context.Context, age time.Duration) (int, error)
}
