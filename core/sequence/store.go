package sequence

import (
	"context"
	"errors"
)

// ErrNoSession is returned by store lookups when a user has no active session.
var ErrNoSession = errors.New("no active session")

// Store persists sessions. Implementations must allow at most one active
// session per user; Save with an active session replaces the user's previous
// active session record if the IDs match and errors otherwise.
type Store interface {
	// Save inserts or updates a session by ID.
	Save(ctx context.Context, s *Session) error
	// Active returns the user's active session or ErrNoSession.
	Active(ctx context.Context, userID int64) (*Session, error)
	// Get returns a session by ID or ErrNoSession.
	Get(ctx context.Context, id string) (*Session, error)
}
