package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"vendorflow/internal/shared/id"
	"vendorflow/internal/shared/logger"
)

const runLockKeyPrefix = "run_lock:"

// releaseScript deletes the lock only while it still holds our token, so an
// expired lock taken over by another run is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript resets the TTL only while the lock still holds our token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisRunLocker serializes pipeline runs per key across instances.
type RedisRunLocker struct {
	client redis.UniversalClient
	logger logger.Interface
}

func NewRedisRunLocker(client redis.UniversalClient, log logger.Interface) *RedisRunLocker {
	return &RedisRunLocker{client: client, logger: log}
}

// TryLock acquires the lock for key with SETNX. When ok is false the lock is
// held elsewhere and unlock is nil. A held lock is renewed every ttl/3 until
// unlock is called, so ttl bounds how long a crashed holder blocks the key,
// not how long a run may take.
func (l *RedisRunLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	redisKey := runLockKeyPrefix + key
	token := id.New()

	acquired, err := l.client.SetNX(ctx, redisKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}

	// The run usually outlives the caller's context.
	bg := context.WithoutCancel(ctx)
	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(bg, key, redisKey, token, ttl, stop, done)

	var once sync.Once
	unlock := func() {
		once.Do(func() {
			close(stop)
			<-done

			releaseCtx, cancel := context.WithTimeout(bg, 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
				l.logger.Warnw("failed to release run lock", "key", key, "error", err)
			}
		})
	}
	return unlock, true, nil
}

func (l *RedisRunLocker) keepAlive(ctx context.Context, key, redisKey, token string, ttl time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := ttl / 3
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			extendCtx, cancel := context.WithTimeout(ctx, interval)
			held, err := extendScript.Run(extendCtx, l.client, []string{redisKey}, token, ttl.Milliseconds()).Int()
			cancel()
			if err != nil {
				l.logger.Warnw("failed to renew run lock", "key", key, "error", err)
				continue
			}
			if held == 0 {
				l.logger.Warnw("run lock lost before the run finished", "key", key)
				return
			}
		}
	}
}
