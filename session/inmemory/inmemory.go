package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mohammad-safakhou/askdb/session"
)

type entry struct {
	state     session.State
	expiresAt time.Time
}

// Store keeps sessions in a process-local map. Expiry is checked lazily on
// access; there is no sweeper goroutine.
type Store struct {
	sessions map[string]*entry
	mu       sync.RWMutex
}

func NewStore() session.Store {
	return &Store{sessions: make(map[string]*entry)}
}

func (store *Store) Ensure(ctx context.Context, id string, ttl time.Duration) (session.State, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	now := time.Now()
	if id != "" {
		if e, ok := store.sessions[id]; ok && e.expiresAt.After(now) {
			e.state.LastSeen = now
			e.expiresAt = now.Add(ttl)
			return e.state, nil
		}
	}
	st := session.State{ID: uuid.NewString(), CreatedAt: now, LastSeen: now}
	store.sessions[st.ID] = &entry{state: st, expiresAt: now.Add(ttl)}
	return st, nil
}

func (store *Store) Get(ctx context.Context, id string) (session.State, bool, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	e, ok := store.sessions[id]
	if !ok || !e.expiresAt.After(time.Now()) {
		return session.State{}, false, nil
	}
	return e.state, true, nil
}

func (store *Store) IncrementQueries(ctx context.Context, id string) (int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	e, ok := store.sessions[id]
	if !ok || !e.expiresAt.After(time.Now()) {
		return 0, session.ErrNotFound
	}
	e.state.Queries++
	e.state.LastSeen = time.Now()
	return e.state.Queries, nil
}
