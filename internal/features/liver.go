package features

import (
	"math"

	"github.com/medml-risk-server/internal/domain"
)

var liverColumns = []string{
	"Age", "Gender", "TB", "DB", "Alkphos", "Sgpt", "Sgot", "TP", "ALB",
	"AGRatio", "BilirubinRatio", "SGPTSGOTRatio", "TotalEnzymes",
	"AgeGroup", "LowProtein", "HighEnzymes", "AgeGenderInteraction",
}

// defaultAGRatio is used when the albumin/globulin ratio cannot be computed.
const defaultAGRatio = 0.9

// LiverFeatures is the liver model input
type LiverFeatures struct {
	Age                  float64
	Gender               float64
	TB                   float64
	DB                   float64
	Alkphos              float64
	Sgpt                 float64
	Sgot                 float64
	TP                   float64
	ALB                  float64
	AGRatio              float64
	BilirubinRatio       float64
	SGPTSGOTRatio        float64
	TotalEnzymes         float64
	AgeGroup             float64
	LowProtein           float64
	HighEnzymes          float64
	AgeGenderInteraction float64
}

func (f *LiverFeatures) Disease() domain.Disease { return domain.Liver }

func (f *LiverFeatures) Columns() []string { return append([]string(nil), liverColumns...) }

func (f *LiverFeatures) Values() []float64 {
	return []float64{
		f.Age, f.Gender, f.TB, f.DB, f.Alkphos, f.Sgpt, f.Sgot, f.TP, f.ALB,
		f.AGRatio, f.BilirubinRatio, f.SGPTSGOTRatio, f.TotalEnzymes,
		f.AgeGroup, f.LowProtein, f.HighEnzymes, f.AgeGenderInteraction,
	}
}

// BuildLiver derives the liver vector. Unlike the other builders it never
// fails: non-numeric inputs are coerced to zero.
func BuildLiver(a *domain.LiverAssessment, demo domain.PatientDemographics) *LiverFeatures {
	age := coerce(float64(demo.Age))
	gender := flag(demo.IsMale())
	tb := coerce(a.TotalBilirubin)
	db := coerce(a.DirectBilirubin)
	sgpt := coerce(a.SGPT)
	sgot := coerce(a.SGOT)
	tp := coerce(a.TotalProtein)
	alb := coerce(a.Albumin)

	f := &LiverFeatures{
		Age:                  age,
		Gender:               gender,
		TB:                   tb,
		DB:                   db,
		Alkphos:              coerce(a.AlkalinePhosphatase),
		Sgpt:                 sgpt,
		Sgot:                 sgot,
		TP:                   tp,
		ALB:                  alb,
		AGRatio:              defaultAGRatio,
		TotalEnzymes:         sgpt + sgot,
		AgeGroup:             ageGroup(age),
		LowProtein:           flag(tp < 6.0),
		HighEnzymes:          flag(sgpt > 40 || sgot > 40),
		AgeGenderInteraction: age * gender,
	}

	if tp != 0 && alb != 0 && tp > alb {
		f.AGRatio = domain.Round2(alb / (tp - alb))
	}
	if tb > 0 {
		f.BilirubinRatio = db / tb
	}
	if sgot > 0 {
		f.SGPTSGOTRatio = sgpt / sgot
	}
	return f
}

func coerce(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
