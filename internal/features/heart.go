package features

import (
	"github.com/medml-risk-server/internal/domain"
)

var heartColumns = []string{
	"Diabetes", "Hypertension", "Obesity", "Smoking", "Alcohol_Consumption",
	"Physical_Activity", "Diet_Score", "Cholesterol_Level", "Triglyceride_Level",
	"LDL_Level", "HDL_Level", "Systolic_BP", "Diastolic_BP", "Air_Pollution_Exposure",
	"Family_History", "Stress_Level", "Heart_Attack_History", "Age", "Gender", "BMI",
	"Cholesterol_HDL_Ratio", "LDL_HDL_Ratio", "Triglyceride_HDL_Ratio", "BP_Difference",
	"Age_BMI_Interaction", "Stress_Diet_Interaction", "Age_Gender_Interaction",
}

// HeartFeatures is the heart model input
type HeartFeatures struct {
	Diabetes              float64
	Hypertension          float64
	Obesity               float64
	Smoking               float64
	AlcoholConsumption    float64
	PhysicalActivity      float64
	DietScore             float64
	CholesterolLevel      float64
	TriglycerideLevel     float64
	LDLLevel              float64
	HDLLevel              float64
	SystolicBP            float64
	DiastolicBP           float64
	AirPollutionExposure  float64
	FamilyHistory         float64
	StressLevel           float64
	HeartAttackHistory    float64
	Age                   float64
	Gender                float64
	BMI                   float64
	CholesterolHDLRatio   float64
	LDLHDLRatio           float64
	TriglycerideHDLRatio  float64
	BPDifference          float64
	AgeBMIInteraction     float64
	StressDietInteraction float64
	AgeGenderInteraction  float64
}

func (f *HeartFeatures) Disease() domain.Disease { return domain.Heart }

func (f *HeartFeatures) Columns() []string { return append([]string(nil), heartColumns...) }

func (f *HeartFeatures) Values() []float64 {
	return []float64{
		f.Diabetes, f.Hypertension, f.Obesity, f.Smoking, f.AlcoholConsumption,
		f.PhysicalActivity, f.DietScore, f.CholesterolLevel, f.TriglycerideLevel,
		f.LDLLevel, f.HDLLevel, f.SystolicBP, f.DiastolicBP, f.AirPollutionExposure,
		f.FamilyHistory, f.StressLevel, f.HeartAttackHistory, f.Age, f.Gender, f.BMI,
		f.CholesterolHDLRatio, f.LDLHDLRatio, f.TriglycerideHDLRatio, f.BPDifference,
		f.AgeBMIInteraction, f.StressDietInteraction, f.AgeGenderInteraction,
	}
}

// BuildHeart derives the heart vector. HDL ratios are zero when HDL is
// missing or not positive.
func BuildHeart(a *domain.HeartAssessment, demo domain.PatientDemographics) (*HeartFeatures, error) {
	age := float64(demo.Age)
	gender := flag(demo.IsMale())
	bmi := bmiOrZero(demo)
	hdl := orZero(a.HDLLevel)
	ldl := orZero(a.LDLLevel)
	trig := orZero(a.TriglycerideLevel)
	diet := intOrZero(a.DietScore)
	stress := intOrZero(a.StressLevel)

	f := &HeartFeatures{
		Diabetes:              flag(a.Diabetes),
		Hypertension:          flag(a.Hypertension),
		Obesity:               flag(a.Obesity),
		Smoking:               flag(a.Smoking),
		AlcoholConsumption:    flag(a.AlcoholConsumption),
		PhysicalActivity:      flag(a.PhysicalActivity),
		DietScore:             diet,
		CholesterolLevel:      a.CholesterolLevel,
		TriglycerideLevel:     trig,
		LDLLevel:              ldl,
		HDLLevel:              hdl,
		SystolicBP:            a.SystolicBP,
		DiastolicBP:           a.DiastolicBP,
		AirPollutionExposure:  orZero(a.AirPollutionExposure),
		FamilyHistory:         flag(a.FamilyHistory),
		StressLevel:           stress,
		HeartAttackHistory:    flag(a.HeartAttackHistory),
		Age:                   age,
		Gender:                gender,
		BMI:                   bmi,
		BPDifference:          a.SystolicBP - a.DiastolicBP,
		AgeBMIInteraction:     age * bmi,
		StressDietInteraction: stress * diet,
		AgeGenderInteraction:  age * gender,
	}

	if hdl > 0 {
		f.CholesterolHDLRatio = a.CholesterolLevel / hdl
		f.LDLHDLRatio = ldl / hdl
		f.TriglycerideHDLRatio = trig / hdl
	}

	if err := checkFinite(domain.Heart, heartColumns, f.Values()); err != nil {
		return nil, err
	}
	return f, nil
}
