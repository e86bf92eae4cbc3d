package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultKey = "kiosk:catalog"

// Redis shares the catalog snapshot between kiosk instances.
type Redis struct {
	rdb *redis.Client
	Key string
	TTL time.Duration
}

// NewRedisClient returns nil when addr is empty; callers fall back to Memory.
func NewRedisClient(addr, password string) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, Key: DefaultKey, TTL: ttl}
}

func (r *Redis) Get(ctx context.Context) (Snapshot, bool, error) {
	b, err := r.rdb.Get(ctx, r.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("redis get %s: %w", r.Key, err)
	}
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		// a bad entry is a miss; the next Set overwrites it
		return Snapshot{}, false, nil
	}
	return s, true, nil
}

func (r *Redis) Set(ctx context.Context, s Snapshot) error {
	if s.FetchedAt.IsZero() {
		s.FetchedAt = time.Now()
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, r.Key, b, r.TTL).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.Key, err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context) error {
	return r.rdb.Del(ctx, r.Key).Err()
}

// Ping checks connectivity at startup.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}
