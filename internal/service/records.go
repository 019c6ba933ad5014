package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/medml-risk-server/internal/domain"
)

// RecordService manages patients and their assessments
type RecordService struct {
	patients    domain.PatientRepository
	assessments domain.AssessmentRepository
	reports     domain.ReportRepository
	logger      *logrus.Logger
	now         func() time.Time
}

// NewRecordService creates a record service
func NewRecordService(store domain.Store, logger *logrus.Logger) *RecordService {
	return &RecordService{
		patients:    store,
		assessments: store,
		reports:     store,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// RegisterPatient validates and stores a new patient.
func (s *RecordService) RegisterPatient(ctx context.Context, patient *domain.Patient) error {
	if err := patient.Validate(); err != nil {
		return err
	}

	now := s.now()
	patient.ID = uuid.New().String()
	patient.CreatedAt = now
	patient.UpdatedAt = now

	if err := s.patients.CreatePatient(ctx, patient); err != nil {
		return fmt.Errorf("creating patient: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"patient_id": patient.ID,
		"created_by": patient.CreatedBy,
	}).Info("Patient registered")
	return nil
}

// GetPatient returns a patient by id.
func (s *RecordService) GetPatient(ctx context.Context, id string) (*domain.Patient, error) {
	return s.patients.GetPatient(ctx, id)
}

// UpdatePatient replaces the profile fields of patient id with those in
// changes. Identity, creator and creation time are kept.
func (s *RecordService) UpdatePatient(ctx context.Context, id string, changes *domain.Patient) (*domain.Patient, error) {
	current, err := s.patients.GetPatient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading patient: %w", err)
	}

	updated := *current
	updated.Name = changes.Name
	updated.Age = changes.Age
	updated.Gender = changes.Gender
	updated.HeightCM = changes.HeightCM
	updated.WeightKG = changes.WeightKG
	updated.AbhaID = changes.AbhaID
	updated.State = changes.State
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	updated.UpdatedAt = s.now()

	if err := s.patients.UpdatePatient(ctx, &updated); err != nil {
		return nil, fmt.Errorf("updating patient: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"patient_id":   id,
		"abha_changed": updated.AbhaID != current.AbhaID,
	}).Info("Patient updated")
	return &updated, nil
}

// ListPatients returns a page of patients with their latest predictions,
// newest registrations first, narrowed by filter.
func (s *RecordService) ListPatients(ctx context.Context, filter domain.PatientFilter) ([]*domain.PatientOverview, error) {
	if filter.Sort == "" {
		filter.Sort = domain.SortRecentlyAdded
	}

	all, err := s.reports.ListPatientOverviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing patients: %w", err)
	}

	matched := make([]*domain.PatientOverview, 0, len(all))
	for _, o := range all {
		if filter.Matches(o) {
			matched = append(matched, o)
		}
	}

	limit, offset := clampPage(filter.Limit, filter.Offset)
	if offset >= len(matched) {
		return []*domain.PatientOverview{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

// SubmitAssessment validates and appends an assessment for patientID.
func (s *RecordService) SubmitAssessment(ctx context.Context, patientID string, a domain.Assessment) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if _, err := s.patients.GetPatient(ctx, patientID); err != nil {
		return fmt.Errorf("loading patient: %w", err)
	}

	meta := a.Meta()
	meta.ID = uuid.New().String()
	meta.PatientID = patientID
	// Client timestamps are ignored so that "latest" always means latest received.
	meta.AssessedAt = s.now()

	if err := s.assessments.AppendAssessment(ctx, a); err != nil {
		return fmt.Errorf("saving %s assessment: %w", a.Disease(), err)
	}

	s.logger.WithFields(logrus.Fields{
		"patient_id":    patientID,
		"assessment_id": meta.ID,
		"disease":       a.Disease(),
	}).Info("Assessment recorded")
	return nil
}

// AssessmentHistory returns every assessment for the patient grouped by
// disease, newest first. Diseases without assessments map to an empty list.
func (s *RecordService) AssessmentHistory(ctx context.Context, patientID string) (map[domain.Disease][]domain.Assessment, error) {
	if _, err := s.patients.GetPatient(ctx, patientID); err != nil {
		return nil, fmt.Errorf("loading patient: %w", err)
	}

	history := make(map[domain.Disease][]domain.Assessment, len(domain.Diseases))
	for _, d := range domain.Diseases {
		list, err := s.assessments.ListAssessments(ctx, patientID, d)
		if err != nil {
			return nil, fmt.Errorf("listing %s assessments: %w", d, err)
		}
		if list == nil {
			list = []domain.Assessment{}
		}
		history[d] = list
	}
	return history, nil
}
