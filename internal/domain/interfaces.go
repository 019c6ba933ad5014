package domain

import (
	"context"
)

// PatientRepository persists patient profiles
type PatientRepository interface {
	CreatePatient(ctx context.Context, patient *Patient) error
	GetPatient(ctx context.Context, id string) (*Patient, error)
	UpdatePatient(ctx context.Context, patient *Patient) error
}

// AssessmentRepository persists assessments. Assessments are append only.
type AssessmentRepository interface {
	AppendAssessment(ctx context.Context, assessment Assessment) error
	LatestAssessments(ctx context.Context, patientID string) (*LatestAssessments, error)
	ListAssessments(ctx context.Context, patientID string, disease Disease) ([]Assessment, error)
}

// PredictionWriter appends a completed prediction record
type PredictionWriter interface {
	AppendPrediction(ctx context.Context, prediction *RiskPrediction) error
}

// PredictionRepository persists and reads prediction records
type PredictionRepository interface {
	PredictionWriter
	LatestPrediction(ctx context.Context, patientID string) (*RiskPrediction, error)
	ListPredictions(ctx context.Context, patientID string, limit, offset int) ([]*RiskPrediction, error)
}

// ReportRepository serves the admin listing and dashboard reads
type ReportRepository interface {
	ListPatientOverviews(ctx context.Context) ([]*PatientOverview, error)
	DashboardStats(ctx context.Context, window StatsWindow) (*DashboardStats, error)
}

// Store is the full persistence surface used by the services
type Store interface {
	PatientRepository
	AssessmentRepository
	PredictionRepository
	ReportRepository
	Health(ctx context.Context) error
	Close() error
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	Validate() error
	Reload() error
}

// PredictionCache holds the latest prediction per patient
type PredictionCache interface {
	Get(ctx context.Context, patientID string) (*RiskPrediction, bool, error)
	Set(ctx context.Context, prediction *RiskPrediction) error
	Invalidate(ctx context.Context, patientID string) error
}

// EventPublisher announces completed prediction runs
type EventPublisher interface {
	PublishPredictionCreated(ctx context.Context, prediction *RiskPrediction) error
	Close() error
}
