package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Assessment is a single recorded clinical input set for one disease.
// Assessments are immutable once stored.
type Assessment interface {
	Disease() Disease
	Meta() *AssessmentMeta
	Validate() error
}

// AssessmentMeta carries the fields common to every assessment type
type AssessmentMeta struct {
	ID         string    `json:"id"`
	PatientID  string    `json:"patient_id"`
	AssessedBy string    `json:"assessed_by,omitempty"`
	AssessedAt time.Time `json:"assessed_at"`
}

// Meta returns the common metadata block.
func (m *AssessmentMeta) Meta() *AssessmentMeta { return m }

// DiabetesAssessment records the diabetes screening inputs
type DiabetesAssessment struct {
	AssessmentMeta
	Pregnancy     bool    `json:"pregnancy"`
	Glucose       float64 `json:"glucose"`
	BloodPressure float64 `json:"blood_pressure"`
	SkinThickness float64 `json:"skin_thickness"`
	Insulin       float64 `json:"insulin"`
	FamilyHistory bool    `json:"diabetes_history"`
}

func (a *DiabetesAssessment) Disease() Disease { return Diabetes }

// Validate rejects negative measurements.
func (a *DiabetesAssessment) Validate() error {
	return firstError(
		nonNegative("glucose", a.Glucose),
		nonNegative("blood_pressure", a.BloodPressure),
		nonNegative("skin_thickness", a.SkinThickness),
		nonNegative("insulin", a.Insulin),
	)
}

// LiverAssessment records a liver function panel
type LiverAssessment struct {
	AssessmentMeta
	TotalBilirubin      float64 `json:"total_bilirubin"`
	DirectBilirubin     float64 `json:"direct_bilirubin"`
	AlkalinePhosphatase float64 `json:"alkaline_phosphatase"`
	SGPT                float64 `json:"sgpt_alamine_aminotransferase"`
	SGOT                float64 `json:"sgot_aspartate_aminotransferase"`
	TotalProtein        float64 `json:"total_protein"`
	Albumin             float64 `json:"albumin"`
}

func (a *LiverAssessment) Disease() Disease { return Liver }

// AGRatio returns albumin / globulin rounded to two decimals, or nil when
// globulin (total protein minus albumin) is not positive.
func (a *LiverAssessment) AGRatio() *float64 {
	if a.TotalProtein == 0 || a.Albumin == 0 || a.TotalProtein <= a.Albumin {
		return nil
	}
	r := Round2(a.Albumin / (a.TotalProtein - a.Albumin))
	return &r
}

// Validate rejects negative lab values.
func (a *LiverAssessment) Validate() error {
	return firstError(
		nonNegative("total_bilirubin", a.TotalBilirubin),
		nonNegative("direct_bilirubin", a.DirectBilirubin),
		nonNegative("alkaline_phosphatase", a.AlkalinePhosphatase),
		nonNegative("sgpt_alamine_aminotransferase", a.SGPT),
		nonNegative("sgot_aspartate_aminotransferase", a.SGOT),
		nonNegative("total_protein", a.TotalProtein),
		nonNegative("albumin", a.Albumin),
	)
}

// HeartAssessment records cardiovascular risk factors. Pointer fields are
// optional and score as zero when absent.
type HeartAssessment struct {
	AssessmentMeta
	Diabetes             bool     `json:"diabetes"`
	Hypertension         bool     `json:"hypertension"`
	Obesity              bool     `json:"obesity"`
	Smoking              bool     `json:"smoking"`
	AlcoholConsumption   bool     `json:"alcohol_consumption"`
	PhysicalActivity     bool     `json:"physical_activity"`
	DietScore            *int     `json:"diet_score,omitempty"`
	CholesterolLevel     float64  `json:"cholesterol_level"`
	TriglycerideLevel    *float64 `json:"triglyceride_level,omitempty"`
	LDLLevel             *float64 `json:"ldl_level,omitempty"`
	HDLLevel             *float64 `json:"hdl_level,omitempty"`
	SystolicBP           float64  `json:"systolic_bp"`
	DiastolicBP          float64  `json:"diastolic_bp"`
	AirPollutionExposure *float64 `json:"air_pollution_exposure,omitempty"`
	FamilyHistory        bool     `json:"family_history"`
	StressLevel          *int     `json:"stress_level,omitempty"`
	HeartAttackHistory   bool     `json:"heart_attack_history"`
}

func (a *HeartAssessment) Disease() Disease { return Heart }

// Validate rejects negative measurements and out-of-range scores.
func (a *HeartAssessment) Validate() error {
	errs := []error{
		nonNegative("cholesterol_level", a.CholesterolLevel),
		nonNegative("systolic_bp", a.SystolicBP),
		nonNegative("diastolic_bp", a.DiastolicBP),
	}
	if a.TriglycerideLevel != nil {
		errs = append(errs, nonNegative("triglyceride_level", *a.TriglycerideLevel))
	}
	if a.LDLLevel != nil {
		errs = append(errs, nonNegative("ldl_level", *a.LDLLevel))
	}
	if a.HDLLevel != nil {
		errs = append(errs, nonNegative("hdl_level", *a.HDLLevel))
	}
	if a.AirPollutionExposure != nil {
		errs = append(errs, nonNegative("air_pollution_exposure", *a.AirPollutionExposure))
	}
	if a.DietScore != nil && (*a.DietScore < 0 || *a.DietScore > 10) {
		errs = append(errs, NewValidationError("diet_score", "diet score must be between 0 and 10", *a.DietScore))
	}
	if a.StressLevel != nil && (*a.StressLevel < 0 || *a.StressLevel > 10) {
		errs = append(errs, NewValidationError("stress_level", "stress level must be between 0 and 10", *a.StressLevel))
	}
	return firstError(errs...)
}

// MentalHealthAssessment records PHQ-9 / GAD-7 screening results
type MentalHealthAssessment struct {
	AssessmentMeta
	PHQScore       int  `json:"phq_score"`
	GADScore       int  `json:"gad_score"`
	Depressiveness bool `json:"depressiveness"`
	Suicidal       bool `json:"suicidal"`
	Anxiousness    bool `json:"anxiousness"`
	Sleepiness     bool `json:"sleepiness"`
}

func (a *MentalHealthAssessment) Disease() Disease { return MentalHealth }

// Validate checks the questionnaire score bounds.
func (a *MentalHealthAssessment) Validate() error {
	if a.PHQScore < 0 || a.PHQScore > 27 {
		return NewValidationError("phq_score", "PHQ-9 score must be between 0 and 27", a.PHQScore)
	}
	if a.GADScore < 0 || a.GADScore > 21 {
		return NewValidationError("gad_score", "GAD-7 score must be between 0 and 21", a.GADScore)
	}
	return nil
}

// NewAssessment returns an empty assessment of the type matching disease.
func NewAssessment(disease Disease) (Assessment, error) {
	switch disease {
	case Diabetes:
		return &DiabetesAssessment{}, nil
	case Liver:
		return &LiverAssessment{}, nil
	case Heart:
		return &HeartAssessment{}, nil
	case MentalHealth:
		return &MentalHealthAssessment{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDisease, disease)
}

// DecodeAssessment unmarshals a stored JSON payload into the typed assessment.
func DecodeAssessment(disease Disease, payload []byte) (Assessment, error) {
	a, err := NewAssessment(disease)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, a); err != nil {
		return nil, fmt.Errorf("decoding %s assessment: %w", disease, err)
	}
	return a, nil
}

// LatestAssessments holds the most recent assessment per disease. Any field
// may be nil.
type LatestAssessments struct {
	Diabetes     *DiabetesAssessment
	Liver        *LiverAssessment
	Heart        *HeartAssessment
	MentalHealth *MentalHealthAssessment
}

// Set stores a into the slot for its disease.
func (l *LatestAssessments) Set(a Assessment) {
	switch v := a.(type) {
	case *DiabetesAssessment:
		l.Diabetes = v
	case *LiverAssessment:
		l.Liver = v
	case *HeartAssessment:
		l.Heart = v
	case *MentalHealthAssessment:
		l.MentalHealth = v
	}
}

// Get returns the assessment for disease, or nil.
func (l *LatestAssessments) Get(disease Disease) Assessment {
	switch disease {
	case Diabetes:
		if l.Diabetes != nil {
			return l.Diabetes
		}
	case Liver:
		if l.Liver != nil {
			return l.Liver
		}
	case Heart:
		if l.Heart != nil {
			return l.Heart
		}
	case MentalHealth:
		if l.MentalHealth != nil {
			return l.MentalHealth
		}
	}
	return nil
}

// Empty reports whether no disease has an assessment.
func (l *LatestAssessments) Empty() bool {
	return l == nil || (l.Diabetes == nil && l.Liver == nil && l.Heart == nil && l.MentalHealth == nil)
}

// PatientRecord is everything the orchestrator needs to score one patient
type PatientRecord struct {
	PatientID    string
	Demographics PatientDemographics
	Assessments  LatestAssessments
}

func nonNegative(field string, v float64) error {
	if math.IsNaN(v) || v < 0 {
		return NewValidationError(field, "value must be a non-negative number", v)
	}
	return nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
