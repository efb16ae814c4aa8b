package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"prompterest/internal/microservices/http-api/models"

	"github.com/redis/go-redis/v9"
)

// SummaryCache holds recomputable rating summaries.
// Entries are keyed by a per-prompt version; Invalidate bumps the version, so a
// reader that computed a summary before a write stores it under a key nobody reads.
type SummaryCache interface {
	Lookup(ctx context.Context, promptID string) (summary models.RatingSummary, version int64, hit bool, err error)
	Store(ctx context.Context, promptID string, version int64, summary models.RatingSummary) error
	Invalidate(ctx context.Context, promptID string) error
}

type RedisSummaryCache struct {
	client *redis.Client // nil disables the cache
	ttl    time.Duration
}

// NewRedisSummaryCache wraps a connected client. A nil client yields a cache that always misses.
func NewRedisSummaryCache(client *redis.Client, ttl time.Duration) *RedisSummaryCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisSummaryCache{client: client, ttl: ttl}
}

// NewRedisClient connects to REDIS_URL. An empty URL means no cache: (nil, nil).
func NewRedisClient(redisURL, password string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

func versionKey(promptID string) string {
	return fmt.Sprintf("rating:summary:version:%s", promptID)
}

func summaryKey(promptID string, version int64) string {
	return fmt.Sprintf("rating:summary:%s:v%d", promptID, version)
}

func (c *RedisSummaryCache) Lookup(ctx context.Context, promptID string) (models.RatingSummary, int64, bool, error) {
	if c == nil || c.client == nil {
		// No-op mode - always a miss
		return models.RatingSummary{}, 0, false, nil
	}

	version, err := c.client.Get(ctx, versionKey(promptID)).Int64()
	if errors.Is(err, redis.Nil) {
		version = 0
	} else if err != nil {
		return models.RatingSummary{}, 0, false, err
	}

	fields, err := c.client.HGetAll(ctx, summaryKey(promptID, version)).Result()
	if err != nil {
		return models.RatingSummary{}, version, false, err
	}
	if len(fields) == 0 {
		return models.RatingSummary{}, version, false, nil
	}

	count, err := strconv.ParseInt(fields["count"], 10, 64)
	if err != nil {
		return models.RatingSummary{}, version, false, fmt.Errorf("invalid count in redis for prompt %s: %w", promptID, err)
	}
	sum, err := strconv.ParseInt(fields["sum"], 10, 64)
	if err != nil {
		return models.RatingSummary{}, version, false, fmt.Errorf("invalid sum in redis for prompt %s: %w", promptID, err)
	}

	return models.NewRatingSummary(count, sum), version, true, nil
}

func (c *RedisSummaryCache) Store(ctx context.Context, promptID string, version int64, summary models.RatingSummary) error {
	if c == nil || c.client == nil {
		return nil
	}

	key := summaryKey(promptID, version)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]any{
			"count": summary.Count,
			"sum":   totalOf(summary),
		})
		pipe.Expire(ctx, key, c.ttl)
		// the version must outlive every entry stored under it, or a reset
		// counter could climb back to a stale entry's version
		pipe.Expire(ctx, versionKey(promptID), c.versionTTL())
		return nil
	})
	return err
}

// Invalidate must run after every rating write, before the writer reads the summary back
func (c *RedisSummaryCache) Invalidate(ctx context.Context, promptID string) error {
	if c == nil || c.client == nil {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(promptID))
		pipe.Expire(ctx, versionKey(promptID), c.versionTTL())
		return nil
	})
	return err
}

// versionTTL lets idle version counters expire once no entry can reference them
func (c *RedisSummaryCache) versionTTL() time.Duration {
	return 2 * c.ttl
}

func (c *RedisSummaryCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// sum is recovered from average*count; values are integers so rounding is exact
func totalOf(s models.RatingSummary) int64 {
	if !s.HasRatings() {
		return 0
	}
	return int64(*s.Average*float64(s.Count) + 0.5)
}
