package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"go-jobradar/internal/dedup"
	"go-jobradar/internal/models"
)

const (
	DefaultRedisKey = "jobradar:jobs"
	redisLockSuffix = ":lock"
)

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// RedisStore keeps the whole result set as one JSON array under Key.
type RedisStore struct {
	client *redis.Client
	Key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, Key: key}
}

func (s *RedisStore) Load(ctx context.Context) ([]models.Job, error) {
	val, err := s.client.Get(ctx, s.Key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", s.Key, err)
	}
	return Decode(val)
}

func (s *RedisStore) Save(ctx context.Context, jobs []models.Job) error {
	data, err := Encode(jobs)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.Key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.Key, err)
	}
	return nil
}

// Locker returns a lock on Key + ":lock".
func (s *RedisStore) Locker(ttl time.Duration) *RedisLock {
	return NewRedisLock(s.client, s.Key+redisLockSuffix, ttl)
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLock is a single-instance SET NX lock. The holder's token is checked on
// release so an expired holder cannot drop a newer holder's lock.
type RedisLock struct {
	client       *redis.Client
	key          string
	ttl          time.Duration
	pollInterval time.Duration
}

func NewRedisLock(client *redis.Client, key string, ttl time.Duration) *RedisLock {
	if ttl <= 0 {
		ttl = dedup.DefaultLockTTL
	}
	return &RedisLock{client: client, key: key, ttl: ttl, pollInterval: 200 * time.Millisecond}
}

func (l *RedisLock) Lock(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("redis setnx %s: %w", l.key, err)
		}
		if ok {
			return func() {
				_ = releaseScript.Run(context.Background(), l.client, []string{l.key}, token).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", dedup.ErrLockHeld, l.key, ctx.Err())
		case <-time.After(l.pollInterval):
		}
	}
}
