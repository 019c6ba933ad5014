// Package mcp exposes the risk prediction services as Model Context Protocol
// tools over stdio.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/medml-risk-server/internal/domain"
	"github.com/medml-risk-server/internal/scoring"
)

// PredictionService runs and reads risk predictions
type PredictionService interface {
	PredictForPatient(ctx context.Context, patientID string) (*domain.RiskPrediction, error)
	LatestPrediction(ctx context.Context, patientID string) (*domain.RiskPrediction, error)
}

// ModelStatusReporter lists the per-disease model state
type ModelStatusReporter interface {
	Status() []scoring.ModelStatus
}

// Server wraps the SDK server and the services its tools call
type Server struct {
	mcpServer   *mcp.Server
	predictions PredictionService
	models      ModelStatusReporter
	logger      *logrus.Logger
}

// NewServer creates an MCP server with every tool registered
func NewServer(cfg domain.MCPConfig, predictions PredictionService, models ModelStatusReporter, logger *logrus.Logger) *Server {
	name := cfg.ServerName
	if name == "" {
		name = "medml-risk-server"
	}
	version := cfg.ServerVersion
	if version == "" {
		version = "v1.0.0"
	}

	s := &Server{
		mcpServer:   mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil),
		predictions: predictions,
		models:      models,
		logger:      logger,
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolPredictPatientRisk,
		Description: "Run a new risk prediction for a patient across diabetes, liver, heart and mental health and persist the result",
	}, s.handlePredictPatientRisk)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolGetLatestPrediction,
		Description: "Return the most recent stored risk prediction for a patient",
	}, s.handleGetLatestPrediction)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolModelStatus,
		Description: "Report which disease models are loaded and which fall back to heuristics or are unavailable",
	}, s.handleModelStatus)

	s.logger.WithField("tool_count", 3).Info("Registered MCP tools")
}

// Run serves the tools on stdin/stdout until ctx is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting MCP server on stdio")
	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}
