package features

import (
	"github.com/medml-risk-server/internal/domain"
)

var mentalHealthColumns = []string{
	"phq_score", "gad_score", "depressiveness", "suicidal",
	"anxiousness", "sleepiness", "age", "gender",
}

// MentalHealthFeatures is the mental health model input
type MentalHealthFeatures struct {
	PHQScore       float64
	GADScore       float64
	Depressiveness float64
	Suicidal       float64
	Anxiousness    float64
	Sleepiness     float64
	Age            float64
	Gender         float64
}

func (f *MentalHealthFeatures) Disease() domain.Disease { return domain.MentalHealth }

func (f *MentalHealthFeatures) Columns() []string {
	return append([]string(nil), mentalHealthColumns...)
}

func (f *MentalHealthFeatures) Values() []float64 {
	return []float64{
		f.PHQScore, f.GADScore, f.Depressiveness, f.Suicidal,
		f.Anxiousness, f.Sleepiness, f.Age, f.Gender,
	}
}

// BuildMentalHealth maps the questionnaire scores and flags directly.
func BuildMentalHealth(a *domain.MentalHealthAssessment, demo domain.PatientDemographics) *MentalHealthFeatures {
	return &MentalHealthFeatures{
		PHQScore:       float64(a.PHQScore),
		GADScore:       float64(a.GADScore),
		Depressiveness: flag(a.Depressiveness),
		Suicidal:       flag(a.Suicidal),
		Anxiousness:    flag(a.Anxiousness),
		Sleepiness:     flag(a.Sleepiness),
		Age:            float64(demo.Age),
		Gender:         flag(demo.IsMale()),
	}
}
