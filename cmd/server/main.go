package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/medml-risk-server/internal/api"
	"github.com/medml-risk-server/internal/app"
	"github.com/medml-risk-server/internal/config"
	"github.com/medml-risk-server/internal/database"
	"github.com/medml-risk-server/internal/domain"
	"github.com/medml-risk-server/internal/logging"
)

var version = "1.0.0"

func main() {
	flags := pflag.NewFlagSet("server", pflag.ExitOnError)
	configFile := flags.StringP("config", "c", "", "path to the configuration file")
	_ = flags.Parse(os.Args[1:])

	// Load configuration
	configManager, err := config.NewManager(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration validation failed: %v\n", err)
		os.Exit(1)
	}

	cfg := configManager.GetConfig()
	logger := logging.New(cfg.Logging)

	// Check for migrate subcommand
	if args := flags.Args(); len(args) > 0 {
		if args[0] != "migrate" {
			logger.Fatalf("Unknown command: %s", args[0])
		}
		if err := runMigrations(cfg, logger, args[1:]); err != nil {
			logger.WithError(err).Fatal("Migration failed")
		}
		return
	}

	if logger.IsLevelEnabled(logrus.DebugLevel) && !configManager.IsProduction() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize application")
	}
	defer application.Close()

	configManager.Watch(logger, application.ApplyConfig)

	server := api.NewServer(cfg.Server, api.Dependencies{
		Records:     application.Records,
		Predictions: application.Predictions,
		Dashboard:   application.Dashboard,
		Store:       application.Store,
		Models:      application.Registry,
		Version:     version,
	}, logger)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	logger.WithFields(logrus.Fields{
		"host":    cfg.Server.Host,
		"port":    cfg.Server.Port,
		"version": version,
	}).Info("Starting medml risk server")

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Error("Server failed")
		return
	}

	logger.Info("Server stopped")
}

func runMigrations(cfg *domain.Config, logger *logrus.Logger, args []string) error {
	if cfg.Storage.Driver != "postgres" {
		return fmt.Errorf("migrations apply to the postgres driver only, storage.driver is %q", cfg.Storage.Driver)
	}

	runner, err := database.NewMigrationRunner(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := runner.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close migration runner")
		}
	}()

	direction := "up"
	if len(args) > 0 {
		direction = args[0]
	}
	switch direction {
	case "up":
		return runner.Up()
	case "down":
		return runner.Down()
	case "version":
		v, dirty, err := runner.Version()
		if err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{"version": v, "dirty": dirty}).Info("Current migration version")
		return nil
	}
	return fmt.Errorf("unknown migrate direction %q, want up, down or version", direction)
}
