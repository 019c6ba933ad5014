// Package scoring turns feature vectors into risk probabilities. Models are
// opaque: anything that maps a vector to P(positive class) can be plugged in.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/medml-risk-server/internal/features"
)

// ErrInvalidProbability is returned when a model produces a value outside [0, 1].
var ErrInvalidProbability = errors.New("model returned an invalid probability")

// Model scores a feature vector. Implementations must be safe for concurrent use.
type Model interface {
	PredictProbability(ctx context.Context, v features.Vector) (float64, error)
}

// ModelFunc adapts a plain function to Model.
type ModelFunc func(ctx context.Context, v features.Vector) (float64, error)

func (f ModelFunc) PredictProbability(ctx context.Context, v features.Vector) (float64, error) {
	return f(ctx, v)
}

func checkProbability(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidProbability, p)
	}
	return nil
}

func sameColumns(want, got []string) error {
	if len(want) != len(got) {
		return fmt.Errorf("expected %d columns, got %d", len(want), len(got))
	}
	for i := range want {
		if want[i] != got[i] {
			return fmt.Errorf("column %d: expected %q, got %q", i, want[i], got[i])
		}
	}
	return nil
}
