package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/medml-risk-server/internal/domain"
	"github.com/medml-risk-server/internal/features"
)

// LogisticArtifact is the serialized form of an exported logistic regression.
// Columns must match the feature builder's order exactly.
type LogisticArtifact struct {
	Disease      domain.Disease `json:"disease"`
	Version      string         `json:"version"`
	Columns      []string       `json:"columns"`
	Coefficients []float64      `json:"coefficients"`
	Intercept    float64        `json:"intercept"`
	Scaler       *Scaler        `json:"scaler,omitempty"`
}

// Scaler standardizes inputs as (x - mean) / scale before the dot product
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// LogisticModel evaluates a LogisticArtifact
type LogisticModel struct {
	disease domain.Disease
	version string
	coef    []float64
	bias    float64
	mean    []float64
	scale   []float64
}

// LoadLogistic decodes and validates an artifact for disease.
func LoadLogistic(r io.Reader, disease domain.Disease) (*LogisticModel, error) {
	var artifact LogisticArtifact
	if err := json.NewDecoder(r).Decode(&artifact); err != nil {
		return nil, fmt.Errorf("decoding %s artifact: %w", disease, err)
	}
	if artifact.Disease == "" {
		artifact.Disease = disease
	}
	if artifact.Disease != disease {
		return nil, fmt.Errorf("artifact is for %s, expected %s", artifact.Disease, disease)
	}
	return NewLogisticModel(artifact)
}

// NewLogisticModel validates the artifact against the builder column order.
func NewLogisticModel(a LogisticArtifact) (*LogisticModel, error) {
	want, err := features.ColumnsFor(a.Disease)
	if err != nil {
		return nil, err
	}
	if err := sameColumns(want, a.Columns); err != nil {
		return nil, fmt.Errorf("%s artifact column order mismatch: %w", a.Disease, err)
	}
	if len(a.Coefficients) != len(want) {
		return nil, fmt.Errorf("%s artifact has %d coefficients for %d columns", a.Disease, len(a.Coefficients), len(want))
	}

	m := &LogisticModel{
		disease: a.Disease,
		version: a.Version,
		coef:    a.Coefficients,
		bias:    a.Intercept,
	}
	if a.Scaler != nil {
		if len(a.Scaler.Mean) != len(want) || len(a.Scaler.Scale) != len(want) {
			return nil, fmt.Errorf("%s artifact scaler does not match %d columns", a.Disease, len(want))
		}
		for i, s := range a.Scaler.Scale {
			if s == 0 {
				return nil, fmt.Errorf("%s artifact scaler has zero scale for %s", a.Disease, want[i])
			}
		}
		m.mean = a.Scaler.Mean
		m.scale = a.Scaler.Scale
	}
	return m, nil
}

// Version returns the artifact's version tag.
func (m *LogisticModel) Version() string { return m.version }

// PredictProbability returns sigmoid(w·x + b).
func (m *LogisticModel) PredictProbability(_ context.Context, v features.Vector) (float64, error) {
	if v.Disease() != m.disease {
		return 0, fmt.Errorf("%s model cannot score a %s vector", m.disease, v.Disease())
	}
	x := v.Values()
	if len(x) != len(m.coef) {
		return 0, fmt.Errorf("%s model expects %d values, got %d", m.disease, len(m.coef), len(x))
	}

	z := m.bias
	for i, xi := range x {
		if m.scale != nil {
			xi = (xi - m.mean[i]) / m.scale[i]
		}
		z += m.coef[i] * xi
	}
	return sigmoid(z), nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
