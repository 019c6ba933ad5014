package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/medml-risk-server/internal/app"
	"github.com/medml-risk-server/internal/config"
	"github.com/medml-risk-server/internal/logging"
	"github.com/medml-risk-server/internal/mcp"
)

func main() {
	flags := pflag.NewFlagSet("mcp-server", pflag.ExitOnError)
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

	// stdout carries the protocol
	logCfg := cfg.Logging
	if logCfg.Output == "" || logCfg.Output == "stdout" {
		logCfg.Output = "stderr"
	}
	logger := logging.New(logCfg)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize application")
	}
	defer application.Close()

	configManager.Watch(logger, application.ApplyConfig)

	server := mcp.NewServer(cfg.MCP, application.Predictions, application.Registry, logger)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down MCP server...")
		cancel()
	}()

	if err := server.Run(ctx); err != nil {
		logger.WithError(err).Error("MCP server failed")
		return
	}

	logger.Info("MCP server stopped")
}
