package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Disease identifies one of the scored disease domains
type Disease string

const (
	Diabetes     Disease = "diabetes"
	Liver        Disease = "liver"
	Heart        Disease = "heart"
	MentalHealth Disease = "mental_health"
)

// Diseases lists every disease in the order the orchestrator processes them.
var Diseases = []Disease{Diabetes, Liver, Heart, MentalHealth}

// ParseDisease maps a path or tool argument onto a Disease.
func ParseDisease(s string) (Disease, error) {
	switch Disease(strings.ToLower(strings.TrimSpace(s))) {
	case Diabetes:
		return Diabetes, nil
	case Liver:
		return Liver, nil
	case Heart:
		return Heart, nil
	case MentalHealth, "mental-health", "mentalhealth":
		return MentalHealth, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDisease, s)
}

// RiskTier is the discrete label derived from a risk probability
type RiskTier string

const (
	TierLow    RiskTier = "Low"
	TierMedium RiskTier = "Medium"
	TierHigh   RiskTier = "High"
)

// Gender as recorded on the patient profile
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// Valid reports whether g is one of the recognised values.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Patient is a registered patient profile
type Patient struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Gender    Gender    `json:"gender"`
	HeightCM  float64   `json:"height_cm"`
	WeightKG  float64   `json:"weight_kg"`
	AbhaID    string    `json:"abha_id"`
	State     string    `json:"state,omitempty"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Demographics returns the scoring view of the patient.
func (p *Patient) Demographics() PatientDemographics {
	return PatientDemographics{
		Age:      p.Age,
		Gender:   p.Gender,
		HeightCM: p.HeightCM,
		WeightKG: p.WeightKG,
	}
}

// Validate checks the profile fields supplied at registration.
func (p *Patient) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return NewValidationError("name", "name is required", p.Name)
	}
	if p.Age <= 0 || p.Age > 150 {
		return NewValidationError("age", "age must be between 1 and 150", p.Age)
	}
	if !p.Gender.Valid() {
		return NewValidationError("gender", "gender must be Male, Female or Other", p.Gender)
	}
	if p.HeightCM < 0 {
		return NewValidationError("height_cm", "height cannot be negative", p.HeightCM)
	}
	if p.WeightKG < 0 {
		return NewValidationError("weight_kg", "weight cannot be negative", p.WeightKG)
	}
	if len(p.AbhaID) != 14 {
		return NewValidationError("abha_id", "ABHA id must be 14 characters", p.AbhaID)
	}
	return nil
}

// PatientDemographics holds the per-patient values shared by every builder
type PatientDemographics struct {
	Age      int
	Gender   Gender
	HeightCM float64
	WeightKG float64
}

// BMI returns weight / height(m)^2 rounded to two decimals, or nil when
// either measurement is missing.
func (d PatientDemographics) BMI() *float64 {
	if d.HeightCM <= 0 || d.WeightKG <= 0 {
		return nil
	}
	m := d.HeightCM / 100
	bmi := Round2(d.WeightKG / (m * m))
	return &bmi
}

// Round2 rounds x to two decimals with exact ties going to the even digit,
// the rounding the model training data was prepared with.
func Round2(x float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 2, 64), 64)
	if err != nil {
		return x
	}
	return r
}

// IsMale is the 1/0 gender encoding used by the models.
func (d PatientDemographics) IsMale() bool {
	return d.Gender == GenderMale
}
