// Package cache keeps recent scrape results in Redis so repeated requests for
// the same profile skip the browser.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/redis/go-redis/v9"

	"github.com/valpere/SocialScrapexter/internal/config"
	"github.com/valpere/SocialScrapexter/internal/extractor"
	"github.com/valpere/SocialScrapexter/internal/utils"
)

const (
	// DefaultTTL is used when no TTL is configured.
	DefaultTTL = 15 * time.Minute

	metricsKeyPrefix = "metrics:"
	connectAttempts  = 3
)

// Cache stores metrics results keyed by platform and profile URL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// New connects to Redis, retrying the initial ping a few times.
func New(ctx context.Context, cfg config.CacheConfig, logger utils.Logger) (*Cache, error) {
	if logger == nil {
		logger = utils.NewComponentLogger("cache")
	}

	client := redis.NewClient(&redis.Options{
		Addr:            cfg.Addr,
		Password:        cfg.Password,
		DB:              cfg.DB,
		PoolSize:        10,
		MinIdleConns:    2,
		PoolTimeout:     4 * time.Second,
		ConnMaxIdleTime: 5 * time.Minute,
	})

	err := retry.Do(
		func() error { return client.Ping(ctx).Err() },
		retry.Context(ctx),
		retry.Attempts(connectAttempts),
		retry.Delay(250*time.Millisecond),
		retry.OnRetry(func(n uint, err error) {
			logger.Warnf("redis ping failed (attempt %d): %v", n+1, err)
		}),
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}

	return NewFromClient(client, cfg.TTL, cfg.Prefix), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client, ttl time.Duration, prefix string) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, ttl: ttl, prefix: prefix}
}

func (c *Cache) key(platform, url string) string {
	return c.prefix + metricsKeyPrefix + platform + "|" + strings.TrimSpace(url)
}

// Get returns the cached result. A miss is reported with ok=false and a nil
// error.
func (c *Cache) Get(ctx context.Context, platform, url string) (extractor.Result, bool, error) {
	data, err := c.client.Get(ctx, c.key(platform, url)).Bytes()
	if errors.Is(err, redis.Nil) {
		return extractor.Result{}, false, nil
	}
	if err != nil {
		return extractor.Result{}, false, fmt.Errorf("redis get failed: %w", err)
	}

	var result extractor.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return extractor.Result{}, false, fmt.Errorf("corrupt cache entry: %w", err)
	}
	return result, true, nil
}

// Set stores a result for the configured TTL.
func (c *Cache) Set(ctx context.Context, platform, url string, result extractor.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := c.client.Set(ctx, c.key(platform, url), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
