package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medml-risk-server/internal/domain"
)

// setIfNewer writes the view only when no entry with a later prediction
// time exists. KEYS[1] is the patient key; ARGV holds the prediction time in
// unix microseconds, the JSON view and the TTL in milliseconds.
var setIfNewer = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'ts')
if current and tonumber(current) > tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'ts', ARGV[1], 'view', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// RedisCache stores the latest prediction view per patient as a hash of its
// prediction time and JSON view.
type RedisCache struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to cfg.RedisURL and verifies the connection
func NewRedisCache(ctx context.Context, cfg domain.CacheConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newRedisCache(client, cfg.Prefix, cfg.TTL), nil
}

func newRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = defaultPrefix
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisCache{redis: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) key(patientID string) string {
	return c.prefix + patientID
}

// Get returns the cached prediction. A corrupted entry is removed and
// reported as a miss.
func (c *RedisCache) Get(ctx context.Context, patientID string) (*domain.RiskPrediction, bool, error) {
	key := c.key(patientID)

	data, err := c.redis.HGet(ctx, key, "view").Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached prediction: %w", err)
	}

	var view domain.PredictionView
	if err := json.Unmarshal(data, &view); err != nil {
		c.redis.Del(ctx, key)
		return nil, false, nil
	}
	return view.Prediction(), true, nil
}

// Set stores prediction unless the cached entry is newer. The comparison
// runs inside Redis so concurrent writers from any process agree.
func (c *RedisCache) Set(ctx context.Context, prediction *domain.RiskPrediction) error {
	data, err := json.Marshal(prediction.View())
	if err != nil {
		return fmt.Errorf("failed to marshal prediction for cache: %w", err)
	}
	err = setIfNewer.Run(ctx, c.redis,
		[]string{c.key(prediction.PatientID)},
		prediction.PredictedAt.UnixMicro(), data, c.ttl.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to cache prediction: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, patientID string) error {
	if err := c.redis.Del(ctx, c.key(patientID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached prediction: %w", err)
	}
	return nil
}

// Close closes the underlying client
func (c *RedisCache) Close() error {
	return c.redis.Close()
}
