package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/medml-risk-server/internal/domain"
)

// assessmentRow is the column layout shared by both stores. The payload holds
// the disease-specific measurements as JSON.
type assessmentRow struct {
	ID         string
	PatientID  string
	Disease    string
	Payload    []byte
	AssessedBy string
	AssessedAt time.Time
}

func encodeAssessment(a domain.Assessment) (assessmentRow, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return assessmentRow{}, fmt.Errorf("encoding %s assessment: %w", a.Disease(), err)
	}
	meta := a.Meta()
	return assessmentRow{
		ID:         meta.ID,
		PatientID:  meta.PatientID,
		Disease:    string(a.Disease()),
		Payload:    payload,
		AssessedBy: meta.AssessedBy,
		AssessedAt: meta.AssessedAt.UTC(),
	}, nil
}

// decode rebuilds the assessment. Column values win over whatever metadata
// the payload carries.
func (r assessmentRow) decode() (domain.Assessment, error) {
	a, err := domain.DecodeAssessment(domain.Disease(r.Disease), r.Payload)
	if err != nil {
		return nil, err
	}
	meta := a.Meta()
	meta.ID = r.ID
	meta.PatientID = r.PatientID
	meta.AssessedBy = r.AssessedBy
	meta.AssessedAt = r.AssessedAt.UTC()
	return a, nil
}

// riskColumns is the nullable (score, tier) pair stored per disease.
type riskColumns struct {
	Score *float64
	Tier  *string
}

func splitRisk(r *domain.DiseaseRisk) riskColumns {
	if r == nil {
		return riskColumns{}
	}
	score := r.Score
	tier := string(r.Tier)
	return riskColumns{Score: &score, Tier: &tier}
}

// join returns nil unless both halves are present.
func (c riskColumns) join() *domain.DiseaseRisk {
	if c.Score == nil || c.Tier == nil {
		return nil
	}
	return &domain.DiseaseRisk{Score: *c.Score, Tier: domain.RiskTier(*c.Tier)}
}

// predictionColumns lists the prediction fields in insert and select order.
const predictionColumns = `id, patient_id,
	diabetes_score, diabetes_tier, liver_score, liver_tier,
	heart_score, heart_tier, mental_health_score, mental_health_tier,
	model_version, predicted_at`

// predictionArgs returns the insert arguments matching predictionColumns.
func predictionArgs(p *domain.RiskPrediction, predictedAt any) []any {
	d, l, h, m := splitRisk(p.Diabetes), splitRisk(p.Liver), splitRisk(p.Heart), splitRisk(p.MentalHealth)
	return []any{
		p.ID, p.PatientID,
		d.Score, d.Tier, l.Score, l.Tier,
		h.Score, h.Tier, m.Score, m.Tier,
		p.ModelVersion, predictedAt,
	}
}

// predictionScan holds scan targets matching predictionColumns.
type predictionScan struct {
	p                          domain.RiskPrediction
	diabetes, liver, heart, mh riskColumns
}

func (s *predictionScan) dest(predictedAt any) []any {
	return []any{
		&s.p.ID, &s.p.PatientID,
		&s.diabetes.Score, &s.diabetes.Tier, &s.liver.Score, &s.liver.Tier,
		&s.heart.Score, &s.heart.Tier, &s.mh.Score, &s.mh.Tier,
		&s.p.ModelVersion, predictedAt,
	}
}

func (s *predictionScan) prediction() *domain.RiskPrediction {
	p := s.p
	p.Diabetes = s.diabetes.join()
	p.Liver = s.liver.join()
	p.Heart = s.heart.join()
	p.MentalHealth = s.mh.join()
	return &p
}

// updatePatientQuery rewrites the mutable profile fields. Postgres
// placeholders; SQLite reads $N as ?N.
const updatePatientQuery = `UPDATE patients
	SET name = $2, age = $3, gender = $4, height_cm = $5, weight_kg = $6,
		abha_id = $7, state = $8, updated_at = $9
	WHERE id = $1`

// dashboardQuery counts registrations per window and at-risk predictions.
// $1/$2 bound today, $3 starts the week and $4 the month.
const dashboardQuery = `SELECT
	(SELECT count(*) FROM patients WHERE created_at >= $1 AND created_at < $2),
	(SELECT count(*) FROM patients WHERE created_at >= $3),
	(SELECT count(*) FROM patients WHERE created_at >= $4),
	(SELECT count(*) FROM patients),
	(SELECT count(*) FROM assessments),
	(SELECT count(*) FROM predictions),
	(SELECT count(*) FROM predictions WHERE diabetes_tier IN ('Medium', 'High')),
	(SELECT count(*) FROM predictions WHERE liver_tier IN ('Medium', 'High')),
	(SELECT count(*) FROM predictions WHERE heart_tier IN ('Medium', 'High')),
	(SELECT count(*) FROM predictions WHERE mental_health_tier IN ('Medium', 'High'))`

func dashboardDest(s *domain.DashboardStats) []any {
	return []any{
		&s.TodayRegistrations, &s.ThisWeekRegistrations, &s.ThisMonthRegistrations,
		&s.TotalPatients, &s.TotalAssessments, &s.TotalPredictions,
		&s.DiabetesRiskCount, &s.LiverRiskCount, &s.HeartRiskCount, &s.MentalHealthRiskCount,
	}
}

// mergeOverviews attaches each patient's latest prediction, keeping the
// patient order.
func mergeOverviews(patients []*domain.Patient, latest []*domain.RiskPrediction) []*domain.PatientOverview {
	byPatient := make(map[string]*domain.RiskPrediction, len(latest))
	for _, p := range latest {
		byPatient[p.PatientID] = p
	}

	overviews := make([]*domain.PatientOverview, 0, len(patients))
	for _, p := range patients {
		overviews = append(overviews, &domain.PatientOverview{Patient: p, LatestPrediction: byPatient[p.ID]})
	}
	return overviews
}
