package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/medml-risk-server/internal/domain"
)

// MockStore is a mock implementation of domain.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreatePatient(ctx context.Context, patient *domain.Patient) error {
	args := m.Called(ctx, patient)
	return args.Error(0)
}

func (m *MockStore) GetPatient(ctx context.Context, id string) (*domain.Patient, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*domain.Patient), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) UpdatePatient(ctx context.Context, patient *domain.Patient) error {
	args := m.Called(ctx, patient)
	return args.Error(0)
}

func (m *MockStore) ListPatientOverviews(ctx context.Context) ([]*domain.PatientOverview, error) {
	args := m.Called(ctx)
	if o := args.Get(0); o != nil {
		return o.([]*domain.PatientOverview), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) DashboardStats(ctx context.Context, window domain.StatsWindow) (*domain.DashboardStats, error) {
	args := m.Called(ctx, window)
	if s := args.Get(0); s != nil {
		return s.(*domain.DashboardStats), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) AppendAssessment(ctx context.Context, assessment domain.Assessment) error {
	args := m.Called(ctx, assessment)
	return args.Error(0)
}

func (m *MockStore) LatestAssessments(ctx context.Context, patientID string) (*domain.LatestAssessments, error) {
	args := m.Called(ctx, patientID)
	if l := args.Get(0); l != nil {
		return l.(*domain.LatestAssessments), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) ListAssessments(ctx context.Context, patientID string, disease domain.Disease) ([]domain.Assessment, error) {
	args := m.Called(ctx, patientID, disease)
	if l := args.Get(0); l != nil {
		return l.([]domain.Assessment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) AppendPrediction(ctx context.Context, prediction *domain.RiskPrediction) error {
	args := m.Called(ctx, prediction)
	return args.Error(0)
}

func (m *MockStore) LatestPrediction(ctx context.Context, patientID string) (*domain.RiskPrediction, error) {
	args := m.Called(ctx, patientID)
	if p := args.Get(0); p != nil {
		return p.(*domain.RiskPrediction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) ListPredictions(ctx context.Context, patientID string, limit, offset int) ([]*domain.RiskPrediction, error) {
	args := m.Called(ctx, patientID, limit, offset)
	if p := args.Get(0); p != nil {
		return p.([]*domain.RiskPrediction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) Health(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockStore) Close() error {
	return m.Called().Error(0)
}

// MockCache is a mock implementation of domain.PredictionCache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, patientID string) (*domain.RiskPrediction, bool, error) {
	args := m.Called(ctx, patientID)
	if p := args.Get(0); p != nil {
		return p.(*domain.RiskPrediction), args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

func (m *MockCache) Set(ctx context.Context, prediction *domain.RiskPrediction) error {
	return m.Called(ctx, prediction).Error(0)
}

func (m *MockCache) Invalidate(ctx context.Context, patientID string) error {
	return m.Called(ctx, patientID).Error(0)
}

// MockPublisher is a mock implementation of domain.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishPredictionCreated(ctx context.Context, prediction *domain.RiskPrediction) error {
	return m.Called(ctx, prediction).Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}
