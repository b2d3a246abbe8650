package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrRunInProgress = errors.New("a drip run is already in progress")

// RunLock serialises drip runs. Acquire returns ErrRunInProgress when another
// run holds the lock; release must be called once the run ends.
type RunLock interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// LocalRunLock serialises runs inside one process.
type LocalRunLock struct {
	mu sync.Mutex
}

func (l *LocalRunLock) Acquire(context.Context) (func(), error) {
	if !l.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	return l.mu.Unlock, nil
}

const DefaultRunLockKey = "drip:run-lock"

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisRunLock serialises runs across processes sharing one redis. The TTL
// bounds how long a crashed holder can block later runs.
type RedisRunLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisRunLock(client *redis.Client, key string, ttl time.Duration) *RedisRunLock {
	if key == "" {
		key = DefaultRunLockKey
	}
	return &RedisRunLock{client: client, key: key, ttl: ttl}
}

func (l *RedisRunLock) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, ErrRunInProgress
	}
	return func() {
		// the run context may already be cancelled
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{l.key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			logrus.WithError(err).WithField("key", l.key).Warn("Failed to release drip run lock")
		}
	}, nil
}
