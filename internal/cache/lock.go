package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TeamLocker serializes roster mutations per team. The returned unlock must
// be called exactly once.
type TeamLocker interface {
	Lock(ctx context.Context, teamID uuid.UUID) (unlock func(), err error)
}

// LocalLocker is an in-process keyed mutex. It only protects a single
// replica; multi-replica deployments use RedisLocker.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[uuid.UUID]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[uuid.UUID]*slot)}
}

func (l *LocalLocker) Lock(ctx context.Context, teamID uuid.UUID) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[teamID]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[teamID] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(teamID, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.release(teamID, s)
		})
	}, nil
}

func (l *LocalLocker) release(teamID uuid.UUID, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, teamID)
	}
}

// ErrLockLost is logged when a Redis lock expired before it was released.
var ErrLockLost = errors.New("team lock expired before release")

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker is a SET NX PX lock with a random token per holder.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	poll   time.Duration
	onLost func(teamID uuid.UUID, err error)
}

type RedisLockerOption func(*RedisLocker)

// WithPollInterval sets how often a waiting caller retries the lock.
func WithPollInterval(d time.Duration) RedisLockerOption {
	return func(l *RedisLocker) {
		if d > 0 {
			l.poll = d
		}
	}
}

// WithLostHandler is called when unlock finds the lock already gone or fails.
func WithLostHandler(fn func(teamID uuid.UUID, err error)) RedisLockerOption {
	return func(l *RedisLocker) { l.onLost = fn }
}

func NewRedisLocker(rc *RedisCache, ttl time.Duration, opts ...RedisLockerOption) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	l := &RedisLocker{client: rc.Client(), ttl: ttl, poll: 50 * time.Millisecond}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func lockKey(teamID uuid.UUID) string { return keyPrefix + "lock:team:" + teamID.String() }

func (l *RedisLocker) Lock(ctx context.Context, teamID uuid.UUID) (func(), error) {
	token, err := randomToken()
	if err != nil {
		return nil, err
	}
	key := lockKey(teamID)
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire team lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the caller's ctx may already be cancelled; release regardless
			relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			n, err := releaseScript.Run(relCtx, l.client, []string{key}, token).Int()
			if err == nil && n == 0 {
				err = ErrLockLost
			}
			if err != nil && l.onLost != nil {
				l.onLost(teamID, err)
			}
		})
	}, nil
}

func randomToken() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("lock token: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

var (
	_ TeamLocker = (*LocalLocker)(nil)
	_ TeamLocker = (*RedisLocker)(nil)
)
