package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/predictdash/internal/core/domain"
	"github.com/vietddude/predictdash/internal/core/fetch"
	"github.com/vietddude/predictdash/internal/metrics"
)

// Cache fronts the upstream API with short-lived Redis entries. On any
// Redis trouble it falls through to the wrapped fetch; the cache can only
// make things faster, never break them.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	TTLMS    int    `yaml:"ttl_ms"`
}

// TTL returns the cache entry lifetime as a duration.
func (c Config) TTL() time.Duration {
	return time.Duration(c.TTLMS) * time.Millisecond
}

// NewCache creates a Redis-backed cache and verifies the connection.
func NewCache(cfg Config, log *slog.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if log == nil {
		log = slog.Default()
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.TTL()
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Cache{rdb: rdb, ttl: ttl, log: log}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// Key helpers
func predictionKey(ticker string) string {
	return fmt.Sprintf("prediction:%s", ticker)
}

func historyKey(ticker string) string {
	return fmt.Sprintf("history:%s", ticker)
}

// WrapPrediction caches prediction lookups keyed by normalized ticker.
func WrapPrediction(c *Cache, fn fetch.FetchFunc[domain.Prediction]) fetch.FetchFunc[domain.Prediction] {
	return wrap(c, "prediction", predictionKey, fn)
}

// WrapHistory caches history lookups keyed by normalized ticker.
func WrapHistory(c *Cache, fn fetch.FetchFunc[domain.History]) fetch.FetchFunc[domain.History] {
	return wrap(c, "history", historyKey, fn)
}

func wrap[T any](c *Cache, entity string, key func(string) string, fn fetch.FetchFunc[T]) fetch.FetchFunc[T] {
	return func(ctx context.Context, ticker string) (T, error) {
		k := key(domain.NormalizeSymbol(ticker))

		if data, ok := c.lookup(ctx, k); ok {
			var out T
			if err := json.Unmarshal(data, &out); err == nil {
				metrics.CacheHits.WithLabelValues(entity).Inc()
				return out, nil
			}
			// Undecodable entries are evicted, never served.
			c.rdb.Del(ctx, k)
		}
		metrics.CacheMisses.WithLabelValues(entity).Inc()

		out, err := fn(ctx, ticker)
		if err != nil {
			return out, err
		}
		c.store(ctx, k, out)
		return out, nil
	}
}

func (c *Cache) lookup(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Warn("Cache read failed, falling through", "key", key, "error", err)
		return nil, false
	}
	return data, true
}

func (c *Cache) store(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("Cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("Cache write failed", "key", key, "error", err)
	}
}
