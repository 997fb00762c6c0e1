// Package session persists per-conversation dialogue state and serialises
// access to it.
package session

import (
	"context"
	"errors"

	"github.com/garyellow/campus-navigator/internal/dialogue"
)

var (
	// ErrNotFound is returned by Store.Load for an unknown session.
	ErrNotFound = errors.New("session not found")
	// ErrCorrupt wraps a stored session that cannot be decoded.
	ErrCorrupt = errors.New("session state corrupt")
)

// Store keeps dialogue state by session ID. Implementations return and keep
// copies, so callers may mutate what they load.
type Store interface {
	Load(ctx context.Context, sessionID string) (*dialogue.State, error)
	Save(ctx context.Context, sessionID string, st *dialogue.State) error
	Delete(ctx context.Context, sessionID string) error
	// Count returns the number of live sessions.
	Count(ctx context.Context) (int, error)
}
