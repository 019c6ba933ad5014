package features

import (
	"github.com/medml-risk-server/internal/domain"
)

var diabetesColumns = []string{
	"Pregnancies", "Glucose", "BloodPressure", "SkinThickness",
	"Insulin", "BMI", "DiabetesPedigreeFunction", "Age",
	"AgeGroup", "BMICategory", "GlucoseCategory",
	"BMIAgeInteraction", "GlucoseBMIInteraction",
}

// DiabetesFeatures is the diabetes model input
type DiabetesFeatures struct {
	Pregnancies              float64
	Glucose                  float64
	BloodPressure            float64
	SkinThickness            float64
	Insulin                  float64
	BMI                      float64
	DiabetesPedigreeFunction float64
	Age                      float64
	AgeGroup                 float64
	BMICategory              float64
	GlucoseCategory          float64
	BMIAgeInteraction        float64
	GlucoseBMIInteraction    float64
}

func (f *DiabetesFeatures) Disease() domain.Disease { return domain.Diabetes }

func (f *DiabetesFeatures) Columns() []string { return append([]string(nil), diabetesColumns...) }

func (f *DiabetesFeatures) Values() []float64 {
	return []float64{
		f.Pregnancies, f.Glucose, f.BloodPressure, f.SkinThickness,
		f.Insulin, f.BMI, f.DiabetesPedigreeFunction, f.Age,
		f.AgeGroup, f.BMICategory, f.GlucoseCategory,
		f.BMIAgeInteraction, f.GlucoseBMIInteraction,
	}
}

// BuildDiabetes derives the diabetes vector. The pedigree function is not
// collected, so it is approximated from glucose, age and BMI, falling back
// to 0.5 when any of them is zero.
func BuildDiabetes(a *domain.DiabetesAssessment, demo domain.PatientDemographics) (*DiabetesFeatures, error) {
	glucose := a.Glucose
	age := float64(demo.Age)
	bmi := bmiOrZero(demo)

	f := &DiabetesFeatures{
		Pregnancies:           flag(a.Pregnancy),
		Glucose:               glucose,
		BloodPressure:         a.BloodPressure,
		SkinThickness:         a.SkinThickness,
		Insulin:               a.Insulin,
		BMI:                   bmi,
		Age:                   age,
		AgeGroup:              ageGroup(age),
		BMICategory:           bmiCategory(bmi),
		GlucoseCategory:       glucoseCategory(glucose),
		BMIAgeInteraction:     bmi * age,
		GlucoseBMIInteraction: glucose * bmi,
	}

	if glucose != 0 && age != 0 && bmi != 0 {
		f.DiabetesPedigreeFunction = glucose * age * bmi / 10000.0
	} else {
		f.DiabetesPedigreeFunction = 0.5
	}

	if err := checkFinite(domain.Diabetes, diabetesColumns, f.Values()); err != nil {
		return nil, err
	}
	return f, nil
}

func bmiCategory(bmi float64) float64 {
	switch {
	case bmi < 18.5:
		return 0
	case bmi < 25:
		return 1
	case bmi < 30:
		return 2
	}
	return 3
}

func glucoseCategory(glucose float64) float64 {
	switch {
	case glucose < 100:
		return 0
	case glucose < 126:
		return 1
	}
	return 2
}
