package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medml-risk-server/internal/domain"
)

func samplePrediction(patientID, id string) *domain.RiskPrediction {
	return &domain.RiskPrediction{
		ID:           id,
		PatientID:    patientID,
		Heart:        &domain.DiseaseRisk{Score: 0.55, Tier: domain.TierMedium},
		ModelVersion: "1.0",
		PredictedAt:  time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC),
	}
}

func TestMemoryCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, time.Minute)

	_, ok, err := c.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, samplePrediction("p-1", "pr-1")))
	got, ok, err := c.Get(ctx, "p-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, samplePrediction("p-1", "pr-1"), got)

	got.Heart.Score = 0.99
	again, _, _ := c.Get(ctx, "p-1")
	assert.Equal(t, 0.55, again.Heart.Score, "cached entry must not alias returned records")

	require.NoError(t, c.Set(ctx, samplePrediction("p-1", "pr-2")))
	got, _, _ = c.Get(ctx, "p-1")
	assert.Equal(t, "pr-2", got.ID)

	require.NoError(t, c.Invalidate(ctx, "p-1"))
	_, ok, _ = c.Get(ctx, "p-1")
	assert.False(t, ok)
}

func TestMemoryCache_KeepsNewerEntry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, time.Minute)

	newer := samplePrediction("p-1", "pr-new")
	older := samplePrediction("p-1", "pr-old")
	older.PredictedAt = newer.PredictedAt.Add(-time.Minute)

	require.NoError(t, c.Set(ctx, newer))
	require.NoError(t, c.Set(ctx, older))
	got, ok, err := c.Get(ctx, "p-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "pr-new", got.ID)

	tie := samplePrediction("p-1", "pr-tie")
	require.NoError(t, c.Set(ctx, tie))
	got, _, _ = c.Get(ctx, "p-1")
	assert.Equal(t, "pr-tie", got.ID, "equal timestamps resolve to the later write")
}

func TestMemoryCache_Eviction(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2, time.Minute)

	require.NoError(t, c.Set(ctx, samplePrediction("p-1", "a")))
	require.NoError(t, c.Set(ctx, samplePrediction("p-2", "b")))
	require.NoError(t, c.Set(ctx, samplePrediction("p-3", "c")))

	assert.Equal(t, 2, c.Len())
	_, ok, _ := c.Get(ctx, "p-1")
	assert.False(t, ok)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, 30*time.Millisecond)

	require.NoError(t, c.Set(ctx, samplePrediction("p-1", "a")))
	time.Sleep(80 * time.Millisecond)

	_, ok, _ := c.Get(ctx, "p-1")
	assert.False(t, ok)
}

func TestNew(t *testing.T) {
	logger, _ := test.NewNullLogger()
	ctx := context.Background()

	c, err := New(ctx, domain.CacheConfig{Enabled: false}, logger)
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = New(ctx, domain.CacheConfig{Enabled: true, Backend: "memory", MaxItems: 5, TTL: time.Minute}, logger)
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	_, err = New(ctx, domain.CacheConfig{Enabled: true, Backend: "memcached"}, logger)
	assert.ErrorContains(t, err, "unknown cache backend")

	_, err = New(ctx, domain.CacheConfig{Enabled: true, Backend: "redis", RedisURL: "not a url"}, logger)
	assert.ErrorContains(t, err, "failed to parse Redis URL")
}

// getTestRedis skips unless TEST_REDIS_URL points at a reachable server.
func getTestRedis(t *testing.T) *RedisCache {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set, skipping Redis tests")
	}
	c, err := NewRedisCache(context.Background(), domain.CacheConfig{
		RedisURL: url,
		Prefix:   "medml:test:" + t.Name() + ":",
		TTL:      time.Minute,
	})
	if err != nil {
		t.Skipf("Redis unavailable: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRedisCache_SetGetInvalidate(t *testing.T) {
	c := getTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Invalidate(ctx, "p-1"))
	_, ok, err := c.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, samplePrediction("p-1", "pr-1")))
	got, ok, err := c.Get(ctx, "p-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "pr-1", got.ID)
	assert.Nil(t, got.Diabetes)
	assert.Equal(t, domain.TierMedium, got.Heart.Tier)
	assert.True(t, samplePrediction("p-1", "pr-1").PredictedAt.Equal(got.PredictedAt))

	require.NoError(t, c.Invalidate(ctx, "p-1"))
	_, ok, _ = c.Get(ctx, "p-1")
	assert.False(t, ok)
}

func TestRedisCache_KeepsNewerEntry(t *testing.T) {
	c := getTestRedis(t)
	ctx := context.Background()
	require.NoError(t, c.Invalidate(ctx, "p-1"))

	newer := samplePrediction("p-1", "pr-new")
	older := samplePrediction("p-1", "pr-old")
	older.PredictedAt = newer.PredictedAt.Add(-time.Minute)

	require.NoError(t, c.Set(ctx, newer))
	require.NoError(t, c.Set(ctx, older))
	got, ok, err := c.Get(ctx, "p-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "pr-new", got.ID)

	ttl, err := c.redis.PTTL(ctx, c.key("p-1")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	later := samplePrediction("p-1", "pr-later")
	later.PredictedAt = newer.PredictedAt.Add(time.Minute)
	require.NoError(t, c.Set(ctx, later))
	got, _, _ = c.Get(ctx, "p-1")
	assert.Equal(t, "pr-later", got.ID)
}

func TestRedisCache_CorruptEntryIsMiss(t *testing.T) {
	c := getTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.redis.HSet(ctx, c.key("p-9"), "ts", 1, "view", "{broken").Err())
	_, ok, err := c.Get(ctx, "p-9")
	require.NoError(t, err)
	assert.False(t, ok)

	exists, err := c.redis.Exists(ctx, c.key("p-9")).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}
