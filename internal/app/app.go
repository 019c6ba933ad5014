// Package app assembles the store, scoring pipeline and services shared by
// the HTTP and MCP entry points.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/medml-risk-server/internal/cache"
	"github.com/medml-risk-server/internal/database"
	"github.com/medml-risk-server/internal/domain"
	"github.com/medml-risk-server/internal/events"
	"github.com/medml-risk-server/internal/repository"
	"github.com/medml-risk-server/internal/risk"
	"github.com/medml-risk-server/internal/scoring"
	"github.com/medml-risk-server/internal/service"
)

// App holds the wired components of one running process
type App struct {
	Store       domain.Store
	Registry    *scoring.Registry
	Classifier  *risk.Classifier
	Records     *service.RecordService
	Predictions *service.PredictionService
	Dashboard   *service.DashboardService

	cache  domain.PredictionCache
	events domain.EventPublisher
	logger *logrus.Logger
}

// New builds every component from cfg. The caller must Close the result.
func New(ctx context.Context, cfg *domain.Config, logger *logrus.Logger) (*App, error) {
	a := &App{logger: logger}

	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Store = store

	source, err := scoring.NewSource(ctx, cfg.Models)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating model source: %w", err)
	}
	a.Registry = scoring.LoadRegistry(ctx, cfg.Models, source, logger)
	predictor := scoring.NewPredictor(a.Registry, logger)

	a.Classifier, err = risk.NewClassifier(risk.FromConfig(cfg.RiskThresholds))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating risk classifier: %w", err)
	}

	a.cache, err = cache.New(ctx, cfg.Cache, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating prediction cache: %w", err)
	}

	a.events, err = events.New(cfg.Events.Kafka, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating event publisher: %w", err)
	}

	orchestrator := service.NewOrchestrator(predictor, a.Classifier, store, cfg.Prediction.ModelVersion, logger)
	a.Records = service.NewRecordService(store, logger)
	a.Predictions = service.NewPredictionService(store, orchestrator, a.cache, a.events, logger)
	a.Dashboard = service.NewDashboardService(store, logger)

	logger.WithFields(logrus.Fields{
		"storage": cfg.Storage.Driver,
		"models":  cfg.Models.Source,
		"cache":   cfg.Cache.Enabled,
		"kafka":   cfg.Events.Kafka.Enabled,
	}).Info("Application components initialized")
	return a, nil
}

// OpenStore opens the storage backend selected by cfg.Storage.Driver.
func OpenStore(ctx context.Context, cfg *domain.Config, logger *logrus.Logger) (domain.Store, error) {
	switch cfg.Storage.Driver {
	case "", "sqlite":
		store, err := repository.NewSQLiteStore(cfg.Storage.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return store, nil
	case "postgres":
		db, err := database.NewConnection(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		return repository.NewPostgresStore(db, logger), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// ApplyConfig pushes the reloadable settings of cfg into the running
// components. Only the risk thresholds are hot reloaded.
func (a *App) ApplyConfig(cfg *domain.Config) {
	thresholds := risk.FromConfig(cfg.RiskThresholds)
	if err := a.Classifier.SetThresholds(thresholds); err != nil {
		a.logger.WithError(err).Warn("Ignoring invalid risk thresholds")
		return
	}
	a.logger.WithFields(logrus.Fields{
		"medium": thresholds.Medium,
		"high":   thresholds.High,
	}).Info("Risk thresholds updated")
}

// Close releases the store, cache and event publisher
func (a *App) Close() {
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to close event publisher")
		}
	}
	if closer, ok := a.cache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to close prediction cache")
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to close store")
		}
	}
}
