package redis_session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/askdb/session"
)

// Store keeps sessions in redis: JSON meta under session:<id>:meta and the
// query counter under session:<id>:queries, advanced with INCR. The counter
// key is authoritative; the queries field in the meta JSON is informational.
type Store struct {
	client *redis.Client
}

// NewStore connects to redis and verifies the connection before returning.
func NewStore(ctx context.Context, addr, password string, db int) (session.Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{client: rdb}, nil
}

func metaKey(id string) string    { return fmt.Sprintf("session:%s:meta", id) }
func counterKey(id string) string { return fmt.Sprintf("session:%s:queries", id) }

func (store *Store) Ensure(ctx context.Context, id string, ttl time.Duration) (session.State, error) {
	if id != "" {
		st, ok, err := store.load(ctx, id)
		if err != nil {
			return session.State{}, err
		}
		if ok {
			st.LastSeen = time.Now().UTC()
			if err := store.save(ctx, st, ttl); err != nil {
				return session.State{}, err
			}
			return st, nil
		}
	}
	now := time.Now().UTC()
	st := session.State{ID: uuid.NewString(), CreatedAt: now, LastSeen: now}
	if err := store.save(ctx, st, ttl); err != nil {
		return session.State{}, err
	}
	return st, nil
}

func (store *Store) Get(ctx context.Context, id string) (session.State, bool, error) {
	return store.load(ctx, id)
}

func (store *Store) IncrementQueries(ctx context.Context, id string) (int, error) {
	exists, err := store.client.Exists(ctx, metaKey(id)).Result()
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, session.ErrNotFound
	}
	n, err := store.client.Incr(ctx, counterKey(id)).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (store *Store) load(ctx context.Context, id string) (session.State, bool, error) {
	val, err := store.client.Get(ctx, metaKey(id)).Result()
	if err == redis.Nil {
		return session.State{}, false, nil
	}
	if err != nil {
		return session.State{}, false, err
	}
	var st session.State
	if err := json.Unmarshal([]byte(val), &st); err != nil {
		return session.State{}, false, fmt.Errorf("decode session meta: %w", err)
	}
	n, err := store.client.Get(ctx, counterKey(id)).Int()
	if err != nil && err != redis.Nil {
		return session.State{}, false, err
	}
	st.Queries = n
	return st, true, nil
}

func (store *Store) save(ctx context.Context, st session.State, ttl time.Duration) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := store.client.Set(ctx, metaKey(st.ID), data, ttl).Err(); err != nil {
		return err
	}
	if err := store.client.SetNX(ctx, counterKey(st.ID), 0, ttl).Err(); err != nil {
		return err
	}
	// The counter key outlives SetNX on refresh; keep both TTLs aligned.
	return store.client.Expire(ctx, counterKey(st.ID), ttl).Err()
}
