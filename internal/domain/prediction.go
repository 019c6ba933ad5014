package domain

import "time"

// DiseaseRisk pairs a probability with its tier. A disease either has both
// or neither.
type DiseaseRisk struct {
	Score float64  `json:"risk_score"`
	Tier  RiskTier `json:"risk_level"`
}

// RiskPrediction is one persisted scoring run for a patient
type RiskPrediction struct {
	ID           string
	PatientID    string
	Diabetes     *DiseaseRisk
	Liver        *DiseaseRisk
	Heart        *DiseaseRisk
	MentalHealth *DiseaseRisk
	ModelVersion string
	PredictedAt  time.Time
}

// Risk returns the result for disease, or nil when it was not scored.
func (p *RiskPrediction) Risk(disease Disease) *DiseaseRisk {
	switch disease {
	case Diabetes:
		return p.Diabetes
	case Liver:
		return p.Liver
	case Heart:
		return p.Heart
	case MentalHealth:
		return p.MentalHealth
	}
	return nil
}

// SetRisk records the result for disease.
func (p *RiskPrediction) SetRisk(disease Disease, risk *DiseaseRisk) {
	switch disease {
	case Diabetes:
		p.Diabetes = risk
	case Liver:
		p.Liver = risk
	case Heart:
		p.Heart = risk
	case MentalHealth:
		p.MentalHealth = risk
	}
}

// ScoredCount returns how many diseases carry a result.
func (p *RiskPrediction) ScoredCount() int {
	n := 0
	for _, d := range Diseases {
		if p.Risk(d) != nil {
			n++
		}
	}
	return n
}

// DiseaseRiskView is the external shape of one disease result
type DiseaseRiskView struct {
	RiskScore *float64  `json:"risk_score"`
	RiskLevel *RiskTier `json:"risk_level"`
}

// PredictionView is the external shape of a RiskPrediction
type PredictionView struct {
	PredictionID string          `json:"prediction_id"`
	PatientID    string          `json:"patient_id"`
	Diabetes     DiseaseRiskView `json:"diabetes"`
	Liver        DiseaseRiskView `json:"liver"`
	Heart        DiseaseRiskView `json:"heart"`
	MentalHealth DiseaseRiskView `json:"mental_health"`
	ModelVersion string          `json:"model_version"`
	PredictedAt  time.Time       `json:"predicted_at"`
}

// View renders the prediction with explicit nulls for unscored diseases.
func (p *RiskPrediction) View() PredictionView {
	return PredictionView{
		PredictionID: p.ID,
		PatientID:    p.PatientID,
		Diabetes:     riskView(p.Diabetes),
		Liver:        riskView(p.Liver),
		Heart:        riskView(p.Heart),
		MentalHealth: riskView(p.MentalHealth),
		ModelVersion: p.ModelVersion,
		PredictedAt:  p.PredictedAt,
	}
}

// Prediction converts the view back into a RiskPrediction.
func (v PredictionView) Prediction() *RiskPrediction {
	return &RiskPrediction{
		ID:           v.PredictionID,
		PatientID:    v.PatientID,
		Diabetes:     v.Diabetes.risk(),
		Liver:        v.Liver.risk(),
		Heart:        v.Heart.risk(),
		MentalHealth: v.MentalHealth.risk(),
		ModelVersion: v.ModelVersion,
		PredictedAt:  v.PredictedAt,
	}
}

func riskView(r *DiseaseRisk) DiseaseRiskView {
	if r == nil {
		return DiseaseRiskView{}
	}
	score, tier := r.Score, r.Tier
	return DiseaseRiskView{RiskScore: &score, RiskLevel: &tier}
}

func (v DiseaseRiskView) risk() *DiseaseRisk {
	if v.RiskScore == nil || v.RiskLevel == nil {
		return nil
	}
	return &DiseaseRisk{Score: *v.RiskScore, Tier: *v.RiskLevel}
}
