package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseDisease(t *testing.T) {
	tests := []struct {
		input    string
		expected Disease
		wantErr  bool
	}{
		{"diabetes", Diabetes, false},
		{"Liver", Liver, false},
		{" heart ", Heart, false},
		{"mental_health", MentalHealth, false},
		{"mental-health", MentalHealth, false},
		{"kidney", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDisease(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownDisease) {
					t.Errorf("Expected ErrUnknownDisease, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestDemographicsBMI(t *testing.T) {
	tests := []struct {
		name     string
		height   float64
		weight   float64
		expected *float64
	}{
		{"Normal", 170, 65, ptr(22.49)},
		{"Rounded to two decimals", 180, 81, ptr(25.0)},
		{"Exact tie rounds to even", 200, 100.5, ptr(25.12)},
		{"Zero height", 0, 70, nil},
		{"Negative height", -10, 70, nil},
		{"Zero weight", 170, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PatientDemographics{HeightCM: tt.height, WeightKG: tt.weight}.BMI()
			if tt.expected == nil {
				if got != nil {
					t.Errorf("Expected nil BMI, got %v", *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Expected BMI %v, got nil", *tt.expected)
			}
			if *got != *tt.expected {
				t.Errorf("Expected BMI %v, got %v", *tt.expected, *got)
			}
		})
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, expected float64
	}{
		{0.125, 0.12},
		{0.375, 0.38},
		{25.125, 25.12},
		{1.3333333, 1.33},
		{2.675, 2.67},
		{-0.125, -0.12},
		{3, 3},
	}

	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.expected {
			t.Errorf("Round2(%v): expected %v, got %v", tt.in, tt.expected, got)
		}
	}
}

func TestPatientValidate(t *testing.T) {
	valid := Patient{Name: "Asha", Age: 42, Gender: GenderFemale, HeightCM: 160, WeightKG: 55, AbhaID: "12345678901234"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Expected valid patient, got %v", err)
	}

	tests := []struct {
		name  string
		mod   func(p *Patient)
		field string
	}{
		{"Missing name", func(p *Patient) { p.Name = " " }, "name"},
		{"Zero age", func(p *Patient) { p.Age = 0 }, "age"},
		{"Bad gender", func(p *Patient) { p.Gender = "unknown" }, "gender"},
		{"Negative weight", func(p *Patient) { p.WeightKG = -1 }, "weight_kg"},
		{"Short ABHA id", func(p *Patient) { p.AbhaID = "123" }, "abha_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mod(&p)
			err := p.Validate()
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if vErr.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, vErr.Field)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Expected error to match ErrValidation")
			}
		})
	}
}

func TestLiverAGRatio(t *testing.T) {
	tests := []struct {
		name     string
		tp, alb  float64
		expected *float64
	}{
		{"Computable", 7.0, 4.0, ptr(1.33)},
		{"Exact tie rounds to even", 9.0, 1.0, ptr(0.12)},
		{"Albumin equals protein", 4.0, 4.0, nil},
		{"Albumin exceeds protein", 3.0, 4.0, nil},
		{"Zero albumin", 7.0, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &LiverAssessment{TotalProtein: tt.tp, Albumin: tt.alb}
			got := a.AGRatio()
			if tt.expected == nil {
				if got != nil {
					t.Errorf("Expected nil ratio, got %v", *got)
				}
				return
			}
			if got == nil || *got != *tt.expected {
				t.Errorf("Expected ratio %v, got %v", *tt.expected, got)
			}
		})
	}
}

func TestAssessmentValidate(t *testing.T) {
	stress := 11
	tests := []struct {
		name       string
		assessment Assessment
		wantErr    bool
	}{
		{"Valid diabetes", &DiabetesAssessment{Glucose: 120, BloodPressure: 70, SkinThickness: 20, Insulin: 80}, false},
		{"Negative glucose", &DiabetesAssessment{Glucose: -1}, true},
		{"Valid liver", &LiverAssessment{TotalBilirubin: 1, DirectBilirubin: 0.3, TotalProtein: 7, Albumin: 4}, false},
		{"Negative SGOT", &LiverAssessment{SGOT: -5}, true},
		{"Valid heart", &HeartAssessment{CholesterolLevel: 200, SystolicBP: 120, DiastolicBP: 80}, false},
		{"Stress out of range", &HeartAssessment{StressLevel: &stress}, true},
		{"Valid mental health", &MentalHealthAssessment{PHQScore: 12, GADScore: 8}, false},
		{"PHQ out of range", &MentalHealthAssessment{PHQScore: 28}, true},
		{"GAD out of range", &MentalHealthAssessment{GADScore: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.assessment.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("Expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestDecodeAssessment(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	original := &HeartAssessment{
		AssessmentMeta:   AssessmentMeta{ID: "a1", PatientID: "p1", AssessedAt: at},
		Diabetes:         true,
		CholesterolLevel: 210,
		HDLLevel:         ptr(45),
		SystolicBP:       130,
		DiastolicBP:      85,
	}
	payload, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	decoded, err := DecodeAssessment(Heart, payload)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	heart, ok := decoded.(*HeartAssessment)
	if !ok {
		t.Fatalf("Expected *HeartAssessment, got %T", decoded)
	}
	if heart.Meta().PatientID != "p1" || !heart.Meta().AssessedAt.Equal(at) {
		t.Errorf("Metadata not preserved: %+v", heart.AssessmentMeta)
	}
	if heart.HDLLevel == nil || *heart.HDLLevel != 45 {
		t.Errorf("Expected HDL 45, got %v", heart.HDLLevel)
	}
	if heart.TriglycerideLevel != nil {
		t.Errorf("Expected absent triglyceride to stay nil")
	}

	if _, err := DecodeAssessment("kidney", payload); !errors.Is(err, ErrUnknownDisease) {
		t.Errorf("Expected ErrUnknownDisease, got %v", err)
	}
}

func TestLatestAssessments(t *testing.T) {
	var latest LatestAssessments
	if !latest.Empty() {
		t.Fatal("Expected empty set")
	}
	if latest.Get(Liver) != nil {
		t.Error("Expected nil interface for missing liver assessment")
	}

	latest.Set(&LiverAssessment{TotalProtein: 7})
	if latest.Empty() {
		t.Error("Expected non-empty set after Set")
	}
	if latest.Get(Liver) == nil {
		t.Error("Expected liver assessment after Set")
	}
	if latest.Get(Heart) != nil {
		t.Error("Expected heart to remain missing")
	}
}

func TestPredictionView(t *testing.T) {
	p := &RiskPrediction{
		ID:           "pred-1",
		PatientID:    "p1",
		Diabetes:     &DiseaseRisk{Score: 0.82, Tier: TierHigh},
		ModelVersion: "1.0",
		PredictedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	view := p.View()
	if view.Diabetes.RiskScore == nil || *view.Diabetes.RiskScore != 0.82 {
		t.Errorf("Expected diabetes score 0.82, got %v", view.Diabetes.RiskScore)
	}
	if view.Liver.RiskScore != nil || view.Liver.RiskLevel != nil {
		t.Errorf("Expected liver score and level to both be null")
	}

	raw, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var generic map[string]interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	liver := generic["liver"].(map[string]interface{})
	if _, ok := liver["risk_score"]; !ok {
		t.Error("Expected explicit null risk_score for liver")
	}

	back := view.Prediction()
	if back.ScoredCount() != 1 {
		t.Errorf("Expected 1 scored disease, got %d", back.ScoredCount())
	}
	if back.Diabetes.Tier != TierHigh {
		t.Errorf("Expected High tier, got %s", back.Diabetes.Tier)
	}
}

func ptr(v float64) *float64 { return &v }
