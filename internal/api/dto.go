package api

import (
	"time"

	"github.com/medml-risk-server/internal/domain"
	"github.com/medml-risk-server/internal/scoring"
)

// CreatePatientRequest is the body of POST /api/v1/patients
type CreatePatientRequest struct {
	Name      string  `json:"name" binding:"required"`
	Age       int     `json:"age" binding:"required,min=1,max=150"`
	Gender    string  `json:"gender" binding:"required,oneof=Male Female Other"`
	HeightCM  float64 `json:"height_cm" binding:"gte=0"`
	WeightKG  float64 `json:"weight_kg" binding:"gte=0"`
	AbhaID    string  `json:"abha_id" binding:"required,len=14"`
	State     string  `json:"state"`
	CreatedBy string  `json:"created_by"`
}

func (r CreatePatientRequest) patient() *domain.Patient {
	return &domain.Patient{
		Name:      r.Name,
		Age:       r.Age,
		Gender:    domain.Gender(r.Gender),
		HeightCM:  r.HeightCM,
		WeightKG:  r.WeightKG,
		AbhaID:    r.AbhaID,
		State:     r.State,
		CreatedBy: r.CreatedBy,
	}
}

// UpdatePatientRequest is the body of PUT /api/v1/patients/:id. Every
// profile field is replaced.
type UpdatePatientRequest struct {
	Name     string  `json:"name" binding:"required"`
	Age      int     `json:"age" binding:"required,min=1,max=150"`
	Gender   string  `json:"gender" binding:"required,oneof=Male Female Other"`
	HeightCM float64 `json:"height_cm" binding:"gte=0"`
	WeightKG float64 `json:"weight_kg" binding:"gte=0"`
	AbhaID   string  `json:"abha_id" binding:"required,len=14"`
	State    string  `json:"state"`
}

func (r UpdatePatientRequest) patient() *domain.Patient {
	return &domain.Patient{
		Name:     r.Name,
		Age:      r.Age,
		Gender:   domain.Gender(r.Gender),
		HeightCM: r.HeightCM,
		WeightKG: r.WeightKG,
		AbhaID:   r.AbhaID,
		State:    r.State,
	}
}

// PatientResponse is a patient profile with its derived BMI
type PatientResponse struct {
	*domain.Patient
	BMI *float64 `json:"bmi"`
}

func newPatientResponse(p *domain.Patient) PatientResponse {
	return PatientResponse{Patient: p, BMI: p.Demographics().BMI()}
}

// PatientOverviewResponse is a listed patient with their latest prediction
type PatientOverviewResponse struct {
	PatientResponse
	LatestPrediction *domain.PredictionView `json:"latest_prediction"`
}

func newPatientOverviewResponse(o *domain.PatientOverview) PatientOverviewResponse {
	resp := PatientOverviewResponse{PatientResponse: newPatientResponse(o.Patient)}
	if o.LatestPrediction != nil {
		view := o.LatestPrediction.View()
		resp.LatestPrediction = &view
	}
	return resp
}

// PageQuery binds limit and offset query parameters
type PageQuery struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// ListPatientsQuery binds the patient listing filters
type ListPatientsQuery struct {
	PageQuery
	Disease string `form:"disease"`
	Sort    string `form:"sort"`
}

func (q ListPatientsQuery) filter() (domain.PatientFilter, error) {
	filter := domain.PatientFilter{Limit: q.Limit, Offset: q.Offset}

	sort, err := domain.ParsePatientSort(q.Sort)
	if err != nil {
		return filter, err
	}
	filter.Sort = sort

	if q.Disease != "" {
		disease, err := domain.ParseDisease(q.Disease)
		if err != nil {
			return filter, err
		}
		filter.Disease = disease
	}
	return filter, nil
}

// ListResponse wraps a page of results
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// AssessmentResponse echoes a stored assessment with its disease
type AssessmentResponse struct {
	Disease    domain.Disease    `json:"disease"`
	Assessment domain.Assessment `json:"assessment"`
}

// AssessmentHistoryResponse groups a patient's assessments by disease
type AssessmentHistoryResponse struct {
	PatientID    string              `json:"patient_id"`
	Diabetes     []domain.Assessment `json:"diabetes"`
	Liver        []domain.Assessment `json:"liver"`
	Heart        []domain.Assessment `json:"heart"`
	MentalHealth []domain.Assessment `json:"mental_health"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status    string                `json:"status"`
	Timestamp time.Time             `json:"timestamp"`
	Version   string                `json:"version"`
	Storage   string                `json:"storage"`
	Models    []scoring.ModelStatus `json:"models"`
}
