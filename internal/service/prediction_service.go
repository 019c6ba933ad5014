package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/medml-risk-server/internal/domain"
)

// PredictionService loads a patient's data, runs the orchestrator and keeps
// the latest-prediction cache and event stream in step with the store.
type PredictionService struct {
	patients     domain.PatientRepository
	assessments  domain.AssessmentRepository
	predictions  domain.PredictionRepository
	orchestrator *Orchestrator
	cache        domain.PredictionCache
	events       domain.EventPublisher
	logger       *logrus.Logger
}

// NewPredictionService creates a prediction service. cache and events may be nil.
func NewPredictionService(store domain.Store, orchestrator *Orchestrator, cache domain.PredictionCache, events domain.EventPublisher, logger *logrus.Logger) *PredictionService {
	return &PredictionService{
		patients:     store,
		assessments:  store,
		predictions:  store,
		orchestrator: orchestrator,
		cache:        cache,
		events:       events,
		logger:       logger,
	}
}

// PredictForPatient runs a new prediction for patientID.
func (s *PredictionService) PredictForPatient(ctx context.Context, patientID string) (*domain.RiskPrediction, error) {
	patient, err := s.patients.GetPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("loading patient: %w", err)
	}

	latest, err := s.assessments.LatestAssessments(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("loading assessments: %w", err)
	}
	if latest == nil {
		latest = &domain.LatestAssessments{}
	}

	prediction, err := s.orchestrator.Run(ctx, &domain.PatientRecord{
		PatientID:    patient.ID,
		Demographics: patient.Demographics(),
		Assessments:  *latest,
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, prediction); err != nil {
			s.logger.WithField("patient_id", patientID).WithError(err).Warn("Failed to cache prediction")
		}
	}
	if s.events != nil {
		if err := s.events.PublishPredictionCreated(ctx, prediction); err != nil {
			s.logger.WithFields(logrus.Fields{
				"patient_id":    patientID,
				"prediction_id": prediction.ID,
			}).WithError(err).Warn("Failed to publish prediction event")
		}
	}
	return prediction, nil
}

// LatestPrediction returns the most recent prediction, reading through the cache.
func (s *PredictionService) LatestPrediction(ctx context.Context, patientID string) (*domain.RiskPrediction, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, patientID)
		if err != nil {
			s.logger.WithField("patient_id", patientID).WithError(err).Warn("Prediction cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	prediction, err := s.predictions.LatestPrediction(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("loading latest prediction: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, prediction); err != nil {
			s.logger.WithField("patient_id", patientID).WithError(err).Warn("Failed to cache prediction")
		}
	}
	return prediction, nil
}

// ListPredictions returns prediction history, newest first.
func (s *PredictionService) ListPredictions(ctx context.Context, patientID string, limit, offset int) ([]*domain.RiskPrediction, error) {
	if _, err := s.patients.GetPatient(ctx, patientID); err != nil {
		return nil, fmt.Errorf("loading patient: %w", err)
	}
	limit, offset = clampPage(limit, offset)

	predictions, err := s.predictions.ListPredictions(ctx, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing predictions: %w", err)
	}
	return predictions, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
