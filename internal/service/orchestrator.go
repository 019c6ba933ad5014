package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/medml-risk-server/internal/domain"
	"github.com/medml-risk-server/internal/features"
	"github.com/medml-risk-server/internal/scoring"
)

// Scorer turns a feature vector into a probability
type Scorer interface {
	Predict(ctx context.Context, v features.Vector) (scoring.Score, error)
}

// TierClassifier maps a probability onto a tier
type TierClassifier interface {
	Classify(p float64) domain.RiskTier
}

// Orchestrator runs every disease through build, predict and classify and
// persists the combined result as one new prediction record.
type Orchestrator struct {
	scorer     Scorer
	classifier TierClassifier
	writer     domain.PredictionWriter
	version    string
	logger     *logrus.Logger

	now   func() time.Time
	newID func() string
}

// NewOrchestrator creates a prediction orchestrator
func NewOrchestrator(scorer Scorer, classifier TierClassifier, writer domain.PredictionWriter, modelVersion string, logger *logrus.Logger) *Orchestrator {
	if modelVersion == "" {
		modelVersion = "1.0"
	}
	return &Orchestrator{
		scorer:     scorer,
		classifier: classifier,
		writer:     writer,
		version:    modelVersion,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      func() string { return uuid.New().String() },
	}
}

// Run scores the patient and appends one RiskPrediction. Per-disease
// failures are logged and leave that disease empty. Only ErrNoData and
// ErrPersistence are returned.
func (o *Orchestrator) Run(ctx context.Context, record *domain.PatientRecord) (*domain.RiskPrediction, error) {
	if record == nil || record.Assessments.Empty() {
		return nil, domain.ErrNoData
	}

	prediction, failures := o.Assess(ctx, record)

	if err := o.writer.AppendPrediction(ctx, prediction); err != nil {
		o.logger.WithFields(logrus.Fields{
			"patient_id":    record.PatientID,
			"prediction_id": prediction.ID,
		}).WithError(err).Error("Failed to save prediction")
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	o.logger.WithFields(logrus.Fields{
		"patient_id":    record.PatientID,
		"prediction_id": prediction.ID,
		"scored":        prediction.ScoredCount(),
		"failed":        len(failures),
		"model_version": prediction.ModelVersion,
	}).Info("Prediction saved")

	return prediction, nil
}

// Assess builds the prediction record without persisting it. The returned
// failures cover diseases that had an assessment but could not be scored.
func (o *Orchestrator) Assess(ctx context.Context, record *domain.PatientRecord) (*domain.RiskPrediction, []*domain.DiseaseError) {
	prediction := &domain.RiskPrediction{
		ID:           o.newID(),
		PatientID:    record.PatientID,
		ModelVersion: o.version,
		PredictedAt:  o.now(),
	}

	var failures []*domain.DiseaseError
	for _, disease := range domain.Diseases {
		assessment := record.Assessments.Get(disease)
		if assessment == nil {
			continue
		}

		risk, err := o.scoreDisease(ctx, disease, assessment, record.Demographics)
		if err != nil {
			failures = append(failures, err)
			o.logFailure(record.PatientID, err)
			continue
		}
		prediction.SetRisk(disease, risk)
	}
	return prediction, failures
}

func (o *Orchestrator) scoreDisease(ctx context.Context, disease domain.Disease, a domain.Assessment, demo domain.PatientDemographics) (*domain.DiseaseRisk, *domain.DiseaseError) {
	vector, err := features.Build(disease, a, demo)
	if err != nil {
		return nil, &domain.DiseaseError{Disease: disease, Stage: domain.StageBuild, Err: err}
	}

	score, err := o.scorer.Predict(ctx, vector)
	if err != nil {
		return nil, &domain.DiseaseError{Disease: disease, Stage: domain.StagePredict, Err: err}
	}

	return &domain.DiseaseRisk{
		Score: score.Probability,
		Tier:  o.classifier.Classify(score.Probability),
	}, nil
}

// logFailure logs diabetes and liver at error and the diseases that have a
// heuristic fallback at warn.
func (o *Orchestrator) logFailure(patientID string, err *domain.DiseaseError) {
	entry := o.logger.WithFields(logrus.Fields{
		"patient_id": patientID,
		"disease":    err.Disease,
		"stage":      err.Stage,
	}).WithError(err.Err)

	switch {
	case err.Disease == domain.Heart || err.Disease == domain.MentalHealth:
		entry.Warn("Skipping disease in prediction run")
	case errors.Is(err, domain.ErrModelUnavailable):
		entry.Error("Model unavailable, skipping disease")
	default:
		entry.Error("Skipping disease in prediction run")
	}
}
