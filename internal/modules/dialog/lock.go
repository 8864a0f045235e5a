// README: Per-session locks; Redis for multi-instance deployments, in-process otherwise.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"tripchat/internal/types"
)

var ErrLockTimeout = errors.New("session is busy")

const lockKeyPrefix = "dialog:session:%s:lock"

// releaseScript deletes the lock only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type RedisLocker struct {
	redis *redis.Client
	ttl   time.Duration
	retry time.Duration
}

// NewRedisLocker holds each lock for at most ttl so a crashed holder cannot
// block a session forever.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{redis: client, ttl: ttl, retry: 25 * time.Millisecond}
}

// Lock retries until the lock is free, ctx is done or the lock TTL has passed.
func (l *RedisLocker) Lock(ctx context.Context, id types.ID) (func(), error) {
	key := fmt.Sprintf(lockKeyPrefix, string(id))
	token := string(types.NewID())
	deadline := time.Now().Add(l.ttl)
	wait := l.retry

	for {
		ok, err := l.redis.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				// Released on a fresh context so a cancelled request still frees the lock.
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = releaseScript.Run(ctx, l.redis, []string{key}, token).Err()
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		if wait < 200*time.Millisecond {
			wait *= 2
		}
	}
}

// LocalLocker serializes turns inside one process.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[types.ID]*localLock
}

type localLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[types.ID]*localLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, id types.ID) (func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[id]
	if !ok {
		lk = &localLock{ch: make(chan struct{}, 1)}
		l.locks[id] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(id, lk, false)
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() { once.Do(func() { l.release(id, lk, true) }) }, nil
}

func (l *LocalLocker) release(id types.ID, lk *localLock, held bool) {
	if held {
		<-lk.ch
	}
	l.mu.Lock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, id)
	}
	l.mu.Unlock()
}
