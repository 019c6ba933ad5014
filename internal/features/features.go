// Package features turns stored clinical assessments into the fixed-order
// numeric vectors the disease classifiers were trained on.
package features

import (
	"fmt"
	"math"

	"github.com/medml-risk-server/internal/domain"
)

// Vector is a model-ready feature set. Values() is always aligned with
// Columns().
type Vector interface {
	Disease() domain.Disease
	Columns() []string
	Values() []float64
}

// Build dispatches to the builder for disease. A nil assessment yields
// domain.ErrMissingAssessment.
func Build(disease domain.Disease, assessment domain.Assessment, demo domain.PatientDemographics) (Vector, error) {
	if assessment == nil {
		return nil, fmt.Errorf("%s: %w", disease, domain.ErrMissingAssessment)
	}
	if assessment.Disease() != disease {
		return nil, fmt.Errorf("%w: %s assessment passed to %s builder", domain.ErrPreprocessing, assessment.Disease(), disease)
	}

	switch a := assessment.(type) {
	case *domain.DiabetesAssessment:
		f, err := BuildDiabetes(a, demo)
		if err != nil {
			return nil, err
		}
		return f, nil
	case *domain.LiverAssessment:
		return BuildLiver(a, demo), nil
	case *domain.HeartAssessment:
		f, err := BuildHeart(a, demo)
		if err != nil {
			return nil, err
		}
		return f, nil
	case *domain.MentalHealthAssessment:
		return BuildMentalHealth(a, demo), nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownDisease, disease)
}

// ColumnsFor returns the training-time column order for disease.
func ColumnsFor(disease domain.Disease) ([]string, error) {
	var cols []string
	switch disease {
	case domain.Diabetes:
		cols = diabetesColumns
	case domain.Liver:
		cols = liverColumns
	case domain.Heart:
		cols = heartColumns
	case domain.MentalHealth:
		cols = mentalHealthColumns
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownDisease, disease)
	}
	return append([]string(nil), cols...), nil
}

func bmiOrZero(demo domain.PatientDemographics) float64 {
	if bmi := demo.BMI(); bmi != nil {
		return *bmi
	}
	return 0
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func intOrZero(v *int) float64 {
	if v == nil {
		return 0
	}
	return float64(*v)
}

func ageGroup(age float64) float64 {
	switch {
	case age < 30:
		return 0
	case age < 50:
		return 1
	}
	return 2
}

// checkFinite rejects NaN and infinities, which no encoder can represent.
func checkFinite(disease domain.Disease, columns []string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s column %s is not a finite number", domain.ErrPreprocessing, disease, columns[i])
		}
	}
	return nil
}
