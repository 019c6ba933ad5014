// Package cache keeps the latest prediction per patient close to the API.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/medml-risk-server/internal/domain"
)

const (
	defaultTTL      = 10 * time.Minute
	defaultMaxItems = 10000
	defaultPrefix   = "medml:latest:"
)

// New builds the configured prediction cache. A disabled cache returns nil,
// which the prediction service treats as "no cache".
func New(ctx context.Context, cfg domain.CacheConfig, logger *logrus.Logger) (domain.PredictionCache, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch cfg.Backend {
	case "", "memory":
		logger.WithFields(logrus.Fields{
			"max_items": cfg.MaxItems,
			"ttl":       cfg.TTL,
		}).Info("Using in-memory prediction cache")
		return NewMemoryCache(cfg.MaxItems, cfg.TTL), nil
	case "redis":
		c, err := NewRedisCache(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.WithField("prefix", c.prefix).Info("Using Redis prediction cache")
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
