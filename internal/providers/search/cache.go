package search

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"videofactory/internal/infra"
)

const defaultCacheTTL = time.Hour

// CacheOptions configures CachedBackend. Redis is optional; without it only the
// in-process tier is used.
type CacheOptions struct {
	Redis      *redis.Client
	TTL        time.Duration
	MaxEntries int
	Logger     *infra.Logger
}

// CachedBackend memoizes non-empty image results in memory (L1) and Redis (L2).
// Repeated scene prompts within and across runs then cost no search quota.
type CachedBackend struct {
	next       Backend
	rdb        *redis.Client
	ttl        time.Duration
	maxEntries int
	logger     *infra.Logger

	l1     sync.Map // key -> *cacheEntry
	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	images    []Image
	expiresAt time.Time
}

func NewCachedBackend(next Backend, opts CacheOptions) *CachedBackend {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	maxEntries := opts.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 512
	}
	return &CachedBackend{
		next:       next,
		rdb:        opts.Redis,
		ttl:        ttl,
		maxEntries: maxEntries,
		logger:     infra.OrNop(opts.Logger),
	}
}

// NewRedisClient connects to redisURL. It returns nil when the URL is empty,
// invalid or unreachable, which disables L2.
func NewRedisClient(ctx context.Context, redisURL string, logger *infra.Logger) *redis.Client {
	logger = infra.OrNop(logger)
	if strings.TrimSpace(redisURL) == "" {
		return nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("search: invalid redis url, L2 cache disabled")
		return nil
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("search: redis unreachable, L2 cache disabled")
		_ = rdb.Close()
		return nil
	}
	logger.Info().Str("addr", opts.Addr).Msg("search: L2 redis connected")
	return rdb
}

// CacheKey builds a deterministic key for a query.
func CacheKey(query string, num int) string {
	sum := sha256.Sum256([]byte(query + "|" + strconv.Itoa(num)))
	return fmt.Sprintf("vf:img:%x", sum[:12])
}

func (c *CachedBackend) Images(ctx context.Context, query string, num int) ([]Image, error) {
	key := CacheKey(query, num)
	if images, ok := c.get(ctx, key); ok {
		c.hits.Add(1)
		return images, nil
	}
	c.misses.Add(1)

	images, err := c.next.Images(ctx, query, num)
	if err != nil {
		return nil, err
	}
	if len(images) > 0 {
		c.set(ctx, key, images)
	}
	return images, nil
}

// Stats returns hit and miss counters.
func (c *CachedBackend) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *CachedBackend) get(ctx context.Context, key string) ([]Image, bool) {
	if val, ok := c.l1.Load(key); ok {
		entry := val.(*cacheEntry)
		if time.Now().Before(entry.expiresAt) {
			return entry.images, true
		}
		c.l1.Delete(key)
	}
	if c.rdb == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var images []Image
	if err := json.Unmarshal(data, &images); err != nil || len(images) == 0 {
		return nil, false
	}
	c.l1.Store(key, &cacheEntry{images: images, expiresAt: time.Now().Add(c.ttl)})
	return images, true
}

func (c *CachedBackend) set(ctx context.Context, key string, images []Image) {
	c.evictIfNeeded()
	c.l1.Store(key, &cacheEntry{images: images, expiresAt: time.Now().Add(c.ttl)})
	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(images)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Debug().Err(err).Msg("search: L2 set failed")
	}
}

// evictIfNeeded drops expired entries first, then the ones closest to expiry.
func (c *CachedBackend) evictIfNeeded() {
	count := 0
	c.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count < c.maxEntries {
		return
	}
	now := time.Now()
	c.l1.Range(func(key, val any) bool {
		if entry := val.(*cacheEntry); now.After(entry.expiresAt) {
			c.l1.Delete(key)
			count--
		}
		return true
	})
	for count >= c.maxEntries {
		var oldestKey any
		oldestAt := now.Add(c.ttl + time.Hour)
		c.l1.Range(func(key, val any) bool {
			if entry := val.(*cacheEntry); entry.expiresAt.Before(oldestAt) {
				oldestKey, oldestAt = key, entry.expiresAt
			}
			return true
		})
		if oldestKey == nil {
			return
		}
		c.l1.Delete(oldestKey)
		count--
	}
}
