package scoring

import (
	"fmt"
	"math"

	"github.com/medml-risk-server/internal/features"
)

// Heuristic computes a rule-based score when no model result is available.
type Heuristic func(v features.Vector) (float64, error)

// HeartHeuristic adds fixed weights for the major cardiovascular risk
// factors, capped at 1.
func HeartHeuristic(v features.Vector) (float64, error) {
	f, ok := v.(*features.HeartFeatures)
	if !ok {
		return 0, fmt.Errorf("heart heuristic cannot score %T", v)
	}

	score := 0.0
	if f.Diabetes > 0 || f.Hypertension > 0 || f.Smoking > 0 {
		score += 0.3
	}
	if f.Obesity > 0 {
		score += 0.2
	}
	if f.FamilyHistory > 0 {
		score += 0.2
	}
	if f.Age > 50 {
		score += 0.2
	}
	if f.StressLevel > 5 {
		score += 0.1
	}
	return math.Min(score, 1.0), nil
}

// MentalHealthHeuristic weights PHQ-9 and GAD-7 severity bands plus the
// screening flags, capped at 1.
func MentalHealthHeuristic(v features.Vector) (float64, error) {
	f, ok := v.(*features.MentalHealthFeatures)
	if !ok {
		return 0, fmt.Errorf("mental health heuristic cannot score %T", v)
	}

	score := 0.0
	switch {
	case f.PHQScore >= 10:
		score += 0.4
	case f.PHQScore >= 5:
		score += 0.2
	}
	switch {
	case f.GADScore >= 10:
		score += 0.3
	case f.GADScore >= 5:
		score += 0.15
	}
	if f.Suicidal > 0 {
		score += 0.3
	}
	if f.Depressiveness > 0 {
		score += 0.2
	}
	if f.Anxiousness > 0 {
		score += 0.2
	}
	if f.Sleepiness > 0 {
		score += 0.1
	}
	return math.Min(score, 1.0), nil
}
