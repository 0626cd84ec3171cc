package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/finworks/accrual-engine-go/internal/models"
	"github.com/finworks/accrual-engine-go/pkg/interfaces"
)

// VersionCacheEntry represents a cached forecast version with metadata
type VersionCacheEntry struct {
	Version  *models.ForecastVersion `json:"version"`
	CachedAt time.Time               `json:"cached_at"`
}

// versionCacheCounters tracks hit/miss/set counts behind a mutex.
type versionCacheCounters struct {
	mu     sync.RWMutex
	hits   int64
	misses int64
	sets   int64
}

// RedisVersionCache caches immutable forecast version snapshots in Redis.
// Since a version is never modified after it is written, entries stay valid
// for their whole TTL and there is no invalidation path.
type RedisVersionCache struct {
	redis  *redis.Client
	ttl    time.Duration
	stats  *versionCacheCounters
	prefix string
}

// NewRedisVersionCache creates a new Redis-based forecast version cache
func NewRedisVersionCache(redisClient *redis.Client, ttl time.Duration) *RedisVersionCache {
	return &RedisVersionCache{
		redis:  redisClient,
		ttl:    ttl,
		stats:  &versionCacheCounters{},
		prefix: "forecast_version:",
	}
}

// Get retrieves a forecast version snapshot from Redis cache
func (c *RedisVersionCache) Get(ctx context.Context, versionID string) (*models.ForecastVersion, bool) {
	cacheKey := c.prefix + versionID

	data, err := c.redis.Get(ctx, cacheKey).Result()
	if err == redis.Nil {
		// Cache miss
		c.recordMiss()
		return nil, false
	}
	if err != nil {
		log.Printf("Redis error getting version %s: %v", versionID, err)
		c.recordMiss()
		return nil, false
	}

	var entry VersionCacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		log.Printf("Error deserializing cached version %s: %v", versionID, err)
		c.recordMiss()
		return nil, false
	}
	if entry.Version == nil {
		c.recordMiss()
		return nil, false
	}

	// Cache hit
	c.stats.mu.Lock()
	c.stats.hits++
	c.stats.mu.Unlock()

	return entry.Version, true
}

func (c *RedisVersionCache) recordMiss() {
	c.stats.mu.Lock()
	c.stats.misses++
	c.stats.mu.Unlock()
}

// Set stores a forecast version snapshot in Redis cache
func (c *RedisVersionCache) Set(ctx context.Context, version *models.ForecastVersion) {
	if version == nil || version.ID == "" {
		return
	}
	cacheKey := c.prefix + version.ID

	entry := VersionCacheEntry{
		Version:  version,
		CachedAt: time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Printf("Error serializing version %s: %v", version.ID, err)
		return
	}

	if err := c.redis.Set(ctx, cacheKey, data, c.ttl).Err(); err != nil {
		log.Printf("Redis error setting version %s: %v", version.ID, err)
		return
	}

	c.stats.mu.Lock()
	c.stats.sets++
	c.stats.mu.Unlock()
}

// GetStats returns current cache statistics
func (c *RedisVersionCache) GetStats() interfaces.VersionCacheStats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()
	return interfaces.VersionCacheStats{
		Hits:   c.stats.hits,
		Misses: c.stats.misses,
		Sets:   c.stats.sets,
	}
}

// LogStats logs current cache performance statistics
func (c *RedisVersionCache) LogStats() {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(stats.Hits) / float64(total) * 100
	}

	log.Printf("Redis Version Cache Stats - Hits: %d, Misses: %d, Sets: %d, Hit Rate: %.2f%%",
		stats.Hits, stats.Misses, stats.Sets, hitRate)
}

// Clear removes all cached version snapshots (useful for testing or cache invalidation)
func (c *RedisVersionCache) Clear(ctx context.Context) error {
	pattern := c.prefix + "*"

	// Collect matching keys using SCAN for better performance
	var keys []string
	iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("error scanning cache keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("error clearing cache: %w", err)
	}

	log.Printf("Cleared %d version cache entries", len(keys))
	return nil
}

// GetCachedVersionIDs returns the IDs of all versions currently cached
func (c *RedisVersionCache) GetCachedVersionIDs(ctx context.Context) ([]string, error) {
	pattern := c.prefix + "*"

	var keys []string
	iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("error scanning cache keys: %w", err)
	}

	var ids []string
	prefixLen := len(c.prefix)
	for _, key := range keys {
		if len(key) > prefixLen {
			ids = append(ids, key[prefixLen:])
		}
	}

	return ids, nil
}

// WarmCache pre-loads version snapshots for the given IDs, fetching each one
// that is not already cached through the supplied loader.
func (c *RedisVersionCache) WarmCache(ctx context.Context, versionIDs []string, loader func(context.Context, string) (*models.ForecastVersion, error)) error {
	log.Printf("Warming version cache for %d versions...", len(versionIDs))

	for _, id := range versionIDs {
		if _, exists := c.Get(ctx, id); exists {
			continue
		}

		version, err := loader(ctx, id)
		if err != nil {
			log.Printf("Warning: Failed to warm cache for version %s: %v", id, err)
			continue
		}

		c.Set(ctx, version)
	}

	log.Printf("Version cache warming completed")
	return nil
}
