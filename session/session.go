package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound reports an id with no live session behind it.
var ErrNotFound = errors.New("session not found")

// State is one querying session: a stable id plus the running query counter
// that numbers CSV exports.
type State struct {
	ID        string    `json:"id"`
	Queries   int       `json:"queries"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
}

// Store interface for session management
type Store interface {
	// Ensure returns the session behind id with its TTL refreshed, or
	// creates a fresh one when id is empty or unknown.
	Ensure(ctx context.Context, id string, ttl time.Duration) (State, error)
	// Get looks a session up without creating or refreshing it.
	Get(ctx context.Context, id string) (State, bool, error)
	// IncrementQueries advances the query counter and returns the new value.
	IncrementQueries(ctx context.Context, id string) (int, error)
}
