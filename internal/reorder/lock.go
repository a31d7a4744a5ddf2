// Package reorder serializes drag-and-drop position changes per parent.
// Two clients moving items under the same board or list interleave their
// sibling-position writes without this guard; the lock makes reorders on one
// parent strictly sequential while leaving unrelated parents concurrent.
package reorder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"corkboard/api/internal/util"
)

// Locker grants exclusive reorder rights on a parent entity. Release must
// always be called, even after the guarded operation fails.
type Locker interface {
	Acquire(ctx context.Context, parentKey string) (release func(), err error)
}

// RedisLocker is the production Locker: an advisory lock per parent key held
// in Redis, so multiple API instances serialize against each other.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisLocker(redisURL string, ttl time.Duration) (*RedisLocker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisLockerWithClient(client, ttl), nil
}

func NewRedisLockerWithClient(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl, prefix: "reorder:"}
}

// releaseScript deletes the lock only if we still hold it; a lock that
// expired and was re-acquired by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func (l *RedisLocker) Acquire(ctx context.Context, parentKey string) (func(), error) {
	key := l.prefix + parentKey
	token := util.NewID("")

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire reorder lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}, nil
}

func (l *RedisLocker) Close() error { return l.client.Close() }

func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// MutexLocker serializes within a single process. Used when Redis is not
// configured and in tests; equivalent for a single-instance deployment.
type MutexLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewMutexLocker() *MutexLocker {
	return &MutexLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *MutexLocker) Acquire(ctx context.Context, parentKey string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[parentKey]
	if !ok {
		m = &sync.Mutex{}
		l.locks[parentKey] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}
