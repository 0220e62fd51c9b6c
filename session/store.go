package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no record exists for the sessionID.
var ErrNotFound = errors.New("session not found")

// Store is the keyed session store contract consumed by the Engine.
//
// Implementations must be safe for concurrent use. Every method observes the
// deadline on ctx; a timeout is reported as an ordinary store error and the
// Engine decides whether it is fatal (create) or swallowed (everything else).
type Store interface {
	// Insert persists a new session record. The record's ExpiresAt governs
	// how long the backing key is retained.
	Insert(ctx context.Context, sess *Session) error

	// Get returns the session for sessionID, or ErrNotFound. No filtering is
	// applied; inactive and expired records are returned as stored.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Update rewrites an existing session record in place.
	Update(ctx context.Context, sess *Session) error

	// FindActiveByUser returns the user's sessions that are active and not
	// expired as of now, in no particular order. Dangling index entries are
	// pruned as a side effect.
	FindActiveByUser(ctx context.Context, userID string, now time.Time) ([]*Session, error)

	// Deactivate marks one session inactive. Idempotent: deactivating an
	// already-inactive session reports found=true. A session owned by a
	// different user reports found=false.
	Deactivate(ctx context.Context, userID, sessionID string) (found bool, err error)

	// DeactivateAll marks every session for the user inactive and returns the
	// number of records that were still active.
	DeactivateAll(ctx context.Context, userID string) (int, error)

	// DeleteExpired removes records whose absolute expiry is before
	// expiredBefore, plus active records idle since before idleBefore, and
	// returns the count actually removed. Safe to run concurrently with any
	// other operation; deletions are idempotent.
	DeleteExpired(ctx context.Context, expiredBefore, idleBefore time.Time) (int, error)
}
