package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/YvesMatteo/GapIntel-sub002/internal/metrics"
)

// Cache TTLs. Completed reports are immutable so they can live long; job
// status changes while processing so it stays short.
const (
	ReportCacheTTL    = time.Hour
	JobStatusCacheTTL = 10 * time.Second
)

// CacheService provides a Redis cache-aside layer for reports and job
// status lookups.
type CacheService struct {
	rdb *redis.Client
}

// NewCacheService creates a new CacheService. If redisURL is empty or
// connection fails, it returns a CacheService with a nil client (cache
// operations become no-ops).
func NewCacheService(redisURL string) *CacheService {
	if redisURL == "" {
		log.Info().Msg("redis: no URL configured, caching disabled")
		return &CacheService{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Str("url", redisURL).Msg("redis: invalid URL, caching disabled")
		return &CacheService{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis: connection failed, caching disabled")
		return &CacheService{}
	}

	log.Info().Msg("redis: connected, caching enabled")
	return &CacheService{rdb: rdb}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	return c.rdb
}

// GetReport retrieves a cached report payload. Returns nil if not cached or
// cache is disabled.
func (c *CacheService) GetReport(ctx context.Context, accessKey string) ([]byte, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, reportKey(accessKey)).Bytes()
	if err == redis.Nil {
		metrics.CacheMiss()
		return nil, nil
	}
	if err == nil {
		metrics.CacheHit()
	}
	return data, err
}

// SetReport stores a report payload in cache.
func (c *CacheService) SetReport(ctx context.Context, accessKey string, payload []byte) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Set(ctx, reportKey(accessKey), payload, ReportCacheTTL).Err()
}

// InvalidateReport removes a cached report, called on job reset.
func (c *CacheService) InvalidateReport(ctx context.Context, accessKey string) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, reportKey(accessKey)).Err()
}

// GetJobStatus retrieves a cached job status response.
func (c *CacheService) GetJobStatus(ctx context.Context, accessKey string) ([]byte, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, jobStatusKey(accessKey)).Bytes()
	if err == redis.Nil {
		metrics.CacheMiss()
		return nil, nil
	}
	if err == nil {
		metrics.CacheHit()
	}
	return data, err
}

// SetJobStatus stores a job status response in cache.
func (c *CacheService) SetJobStatus(ctx context.Context, accessKey string, data interface{}) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, jobStatusKey(accessKey), b, JobStatusCacheTTL).Err()
}

// InvalidateJobStatus removes a cached job status.
func (c *CacheService) InvalidateJobStatus(ctx context.Context, accessKey string) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, jobStatusKey(accessKey)).Err()
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func reportKey(accessKey string) string {
	return fmt.Sprintf("report:%s", accessKey)
}

func jobStatusKey(accessKey string) string {
	return fmt.Sprintf("job:%s", accessKey)
}
