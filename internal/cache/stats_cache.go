package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// StatsCache stores rendered stat sheets per team and filter variant.
// Invalidate drops every variant of a team at once and bumps the team's
// generation. Set only writes while the generation still matches, so a sheet
// computed before an invalidation is never stored after it.
type StatsCache interface {
	Get(ctx context.Context, teamID uuid.UUID, variant string) ([]byte, bool, error)
	// Generation must be read before the data a sheet is built from.
	Generation(ctx context.Context, teamID uuid.UUID) (uint64, error)
	// Set reports whether payload was stored.
	Set(ctx context.Context, teamID uuid.UUID, variant string, gen uint64, payload []byte) (bool, error)
	Invalidate(ctx context.Context, teamID uuid.UUID) error
}

// NoopStatsCache never hits.
type NoopStatsCache struct{}

func (NoopStatsCache) Get(context.Context, uuid.UUID, string) ([]byte, bool, error) {
	return nil, false, nil
}
func (NoopStatsCache) Generation(context.Context, uuid.UUID) (uint64, error) { return 0, nil }
func (NoopStatsCache) Set(context.Context, uuid.UUID, string, uint64, []byte) (bool, error) {
	return false, nil
}
func (NoopStatsCache) Invalidate(context.Context, uuid.UUID) error { return nil }

// RedisStatsCache keeps one hash per team; fields are filter variants.
// The whole hash shares one TTL, refreshed on every write. The generation
// lives in its own key without a TTL; both keys share a hash tag.
type RedisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStatsCache(rc *RedisCache, ttl time.Duration) *RedisStatsCache {
	return &RedisStatsCache{client: rc.Client(), ttl: ttl}
}

func statsKey(teamID uuid.UUID) string { return keyPrefix + "stats:{" + teamID.String() + "}" }

func statsGenKey(teamID uuid.UUID) string { return statsKey(teamID) + ":gen" }

// setIfGenScript writes the sheet only when the generation is unchanged.
// A missing generation key counts as 0.
var setIfGenScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1]) or "0"
if cur ~= ARGV[1] then
	return 0
end
redis.call("HSET", KEYS[2], ARGV[2], ARGV[3])
redis.call("PEXPIRE", KEYS[2], ARGV[4])
return 1`)

func (c *RedisStatsCache) Get(ctx context.Context, teamID uuid.UUID, variant string) ([]byte, bool, error) {
	raw, err := c.client.HGet(ctx, statsKey(teamID), variant).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("stats cache get: %w", err)
	}
	return raw, true, nil
}

func (c *RedisStatsCache) Generation(ctx context.Context, teamID uuid.UUID) (uint64, error) {
	gen, err := c.client.Get(ctx, statsGenKey(teamID)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("stats cache generation: %w", err)
	}
	return gen, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, teamID uuid.UUID, variant string, gen uint64, payload []byte) (bool, error) {
	n, err := setIfGenScript.Run(ctx, c.client,
		[]string{statsGenKey(teamID), statsKey(teamID)},
		strconv.FormatUint(gen, 10), variant, payload, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("stats cache set: %w", err)
	}
	return n == 1, nil
}

func (c *RedisStatsCache) Invalidate(ctx context.Context, teamID uuid.UUID) error {
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, statsGenKey(teamID))
		p.Del(ctx, statsKey(teamID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("stats cache invalidate: %w", err)
	}
	return nil
}

// MemoryStatsCache is the single-replica fallback.
type MemoryStatsCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	teams map[uuid.UUID]map[string]memEntry
	gens  map[uuid.UUID]uint64
}

type memEntry struct {
	payload []byte
	expires time.Time
}

func NewMemoryStatsCache(ttl time.Duration) *MemoryStatsCache {
	return &MemoryStatsCache{
		ttl:   ttl,
		now:   time.Now,
		teams: make(map[uuid.UUID]map[string]memEntry),
		gens:  make(map[uuid.UUID]uint64),
	}
}

func (c *MemoryStatsCache) Get(_ context.Context, teamID uuid.UUID, variant string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.teams[teamID][variant]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(e.expires) {
		delete(c.teams[teamID], variant)
		return nil, false, nil
	}
	return e.payload, true, nil
}

func (c *MemoryStatsCache) Generation(_ context.Context, teamID uuid.UUID) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[teamID], nil
}

func (c *MemoryStatsCache) Set(_ context.Context, teamID uuid.UUID, variant string, gen uint64, payload []byte) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[teamID] != gen {
		return false, nil
	}
	m, ok := c.teams[teamID]
	if !ok {
		m = make(map[string]memEntry)
		c.teams[teamID] = m
	}
	m[variant] = memEntry{payload: append([]byte(nil), payload...), expires: c.now().Add(c.ttl)}
	return true, nil
}

func (c *MemoryStatsCache) Invalidate(_ context.Context, teamID uuid.UUID) error {
	c.mu.Lock()
	delete(c.teams, teamID)
	c.gens[teamID]++
	c.mu.Unlock()
	return nil
}

var (
	_ StatsCache = NoopStatsCache{}
	_ StatsCache = (*RedisStatsCache)(nil)
	_ StatsCache = (*MemoryStatsCache)(nil)
)
