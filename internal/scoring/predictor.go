package scoring

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/medml-risk-server/internal/domain"
	"github.com/medml-risk-server/internal/features"
)

// Score is a probability for one disease
type Score struct {
	Disease     domain.Disease
	Probability float64
	Heuristic   bool
}

// Predictor scores vectors with the registry's models. Diseases with a
// heuristic fall back to it when the model is missing or fails; the others
// report domain.ErrModelUnavailable.
type Predictor struct {
	registry   *Registry
	heuristics map[domain.Disease]Heuristic
	logger     *logrus.Logger
}

// DefaultHeuristics is the fallback policy: heart and mental health only.
func DefaultHeuristics() map[domain.Disease]Heuristic {
	return map[domain.Disease]Heuristic{
		domain.Heart:        HeartHeuristic,
		domain.MentalHealth: MentalHealthHeuristic,
	}
}

// NewPredictor creates a predictor with the default fallback policy
func NewPredictor(registry *Registry, logger *logrus.Logger) *Predictor {
	return NewPredictorWithHeuristics(registry, DefaultHeuristics(), logger)
}

// NewPredictorWithHeuristics creates a predictor with an explicit fallback policy
func NewPredictorWithHeuristics(registry *Registry, heuristics map[domain.Disease]Heuristic, logger *logrus.Logger) *Predictor {
	return &Predictor{
		registry:   registry,
		heuristics: heuristics,
		logger:     logger,
	}
}

// Predict returns P(positive) for the vector's disease.
func (p *Predictor) Predict(ctx context.Context, v features.Vector) (Score, error) {
	disease := v.Disease()

	prob, err := p.fromModel(ctx, disease, v)
	if err == nil {
		return Score{Disease: disease, Probability: prob}, nil
	}

	heuristic, ok := p.heuristics[disease]
	if !ok {
		return Score{}, err
	}

	prob, herr := heuristic(v)
	if herr != nil {
		return Score{}, fmt.Errorf("%w; heuristic failed: %v", err, herr)
	}

	p.logger.WithFields(logrus.Fields{
		"disease": disease,
		"score":   prob,
	}).WithError(err).Warn("Model failed, using heuristic score")

	return Score{Disease: disease, Probability: prob, Heuristic: true}, nil
}

func (p *Predictor) fromModel(ctx context.Context, disease domain.Disease, v features.Vector) (float64, error) {
	model, ok := p.registry.Get(disease)
	if !ok {
		return 0, fmt.Errorf("%s: %w", disease, domain.ErrModelUnavailable)
	}

	prob, err := model.PredictProbability(ctx, v)
	if err == nil {
		err = checkProbability(prob)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %w", disease, domain.ErrModelUnavailable, err)
	}
	return prob, nil
}
