package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/medml-risk-server/internal/domain"
	"github.com/medml-risk-server/internal/scoring"
)

// Tool names
const (
	ToolPredictPatientRisk  = "predict_patient_risk"
	ToolGetLatestPrediction = "get_latest_prediction"
	ToolModelStatus         = "model_status"
)

// PatientParams identifies the patient a tool acts on
type PatientParams struct {
	PatientID string `json:"patient_id"`
}

// ModelStatusParams is empty; model_status takes no arguments
type ModelStatusParams struct{}

// ModelStatusResult lists the state of every disease model
type ModelStatusResult struct {
	Models []scoring.ModelStatus `json:"models"`
}

func (s *Server) handlePredictPatientRisk(ctx context.Context, req *mcp.CallToolRequest, params PatientParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithFields(logrus.Fields{
		"tool":       ToolPredictPatientRisk,
		"patient_id": params.PatientID,
	}).Info("Tool invoked")

	if strings.TrimSpace(params.PatientID) == "" {
		return s.createErrorResult("Missing required parameter", errors.New("patient_id is required")), nil, nil
	}

	prediction, err := s.predictions.PredictForPatient(ctx, params.PatientID)
	if err != nil {
		return s.createErrorResult(toolErrorMessage(err), err), nil, nil
	}
	view := prediction.View()
	return s.createViewResult(fmt.Sprintf("Prediction %s stored for patient %s", view.PredictionID, view.PatientID), view)
}

func (s *Server) handleGetLatestPrediction(ctx context.Context, req *mcp.CallToolRequest, params PatientParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithFields(logrus.Fields{
		"tool":       ToolGetLatestPrediction,
		"patient_id": params.PatientID,
	}).Info("Tool invoked")

	if strings.TrimSpace(params.PatientID) == "" {
		return s.createErrorResult("Missing required parameter", errors.New("patient_id is required")), nil, nil
	}

	prediction, err := s.predictions.LatestPrediction(ctx, params.PatientID)
	if err != nil {
		return s.createErrorResult(toolErrorMessage(err), err), nil, nil
	}
	view := prediction.View()
	return s.createViewResult(fmt.Sprintf("Latest prediction for patient %s", view.PatientID), view)
}

func (s *Server) handleModelStatus(ctx context.Context, req *mcp.CallToolRequest, params ModelStatusParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolModelStatus).Info("Tool invoked")

	result := ModelStatusResult{Models: s.models.Status()}
	available := 0
	for _, m := range result.Models {
		if m.Available {
			available++
		}
	}
	return s.createViewResult(fmt.Sprintf("%d of %d disease models available", available, len(result.Models)), result)
}

// createViewResult returns a summary line followed by the JSON payload.
func (s *Server) createViewResult(summary string, payload any) (*mcp.CallToolResult, any, error) {
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encoding tool result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: summary},
			&mcp.TextContent{Text: string(body)},
		},
	}, payload, nil
}

func (s *Server) createErrorResult(message string, err error) *mcp.CallToolResult {
	s.logger.WithError(err).Warn(message)
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("%s: %v", message, err)},
		},
	}
}

func toolErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "Not found"
	case errors.Is(err, domain.ErrNoData):
		return "Patient has no assessments"
	case errors.Is(err, domain.ErrPersistence):
		return "Prediction could not be saved"
	default:
		return "Prediction failed"
	}
}
