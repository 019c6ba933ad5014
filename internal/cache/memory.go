package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/medml-risk-server/internal/domain"
)

// MemoryCache is a size-bounded, expiring in-process cache. Entries are
// stored as views so callers never share a record with the cache.
//
// It only sees predictions made by its own process. Use the Redis backend
// when more than one process writes to the same store.
type MemoryCache struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, domain.PredictionView]
}

// NewMemoryCache creates a cache holding at most maxItems entries for ttl.
func NewMemoryCache(maxItems int, ttl time.Duration) *MemoryCache {
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MemoryCache{lru: expirable.NewLRU[string, domain.PredictionView](maxItems, nil, ttl)}
}

func (c *MemoryCache) Get(_ context.Context, patientID string) (*domain.RiskPrediction, bool, error) {
	view, ok := c.lru.Get(patientID)
	if !ok {
		return nil, false, nil
	}
	return view.Prediction(), true, nil
}

// Set stores prediction unless the cached entry is newer.
func (c *MemoryCache) Set(_ context.Context, prediction *domain.RiskPrediction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if current, ok := c.lru.Peek(prediction.PatientID); ok && current.PredictedAt.After(prediction.PredictedAt) {
		return nil
	}
	c.lru.Add(prediction.PatientID, prediction.View())
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, patientID string) error {
	c.lru.Remove(patientID)
	return nil
}

// Len reports the number of live entries.
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}
