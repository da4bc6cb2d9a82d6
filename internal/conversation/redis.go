package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dileep-u-k/weather-companion/internal/version"
)

// DefaultSessionTTL bounds how long an idle session survives in Redis.
const DefaultSessionTTL = time.Hour

// RedisStore keeps each session in a hash under a versioned
// "conversation:<versions>:<id>" key. The hash
// carries the encoded state plus a few plain fields for inspection with
// redis-cli, and expires after ttl of inactivity.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func sessionKey(id string) string {
	return version.VersionedKey("conversation", id)
}

func (r *RedisStore) Create(ctx context.Context, st *State) error {
	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	return r.Save(ctx, st)
}

func (r *RedisStore) Get(ctx context.Context, id string) (*State, error) {
	data, err := r.rdb.HGet(ctx, sessionKey(id), "state").Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get conversation %q: %w", id, err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode conversation %q: %w", id, err)
	}
	return &st, nil
}

// Save overwrites the session and refreshes its TTL in one transaction.
func (r *RedisStore) Save(ctx context.Context, st *State) error {
	if st.ID == "" {
		return fmt.Errorf("conversation id is required")
	}
	st.Modified = time.Now()
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode conversation %q: %w", st.ID, err)
	}

	key := sessionKey(st.ID)
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"state", data,
			"pinned_location", st.PinnedLocation,
			"turns", st.Turns,
		)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save conversation %q: %w", st.ID, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := r.rdb.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("redis delete conversation %q: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return nil
}
