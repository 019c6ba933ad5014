package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/medml-risk-server/internal/database"
	"github.com/medml-risk-server/internal/domain"
)

const uniqueViolation = "23505"

const patientColumns = `id, name, age, gender, height_cm, weight_kg, abha_id, state, created_by, created_at, updated_at`

// PostgresStore persists patients, assessments and predictions in Postgres.
// The schema comes from the migrations directory.
type PostgresStore struct {
	db  *database.DB
	log *logrus.Logger
}

// NewPostgresStore creates a store on an open connection pool
func NewPostgresStore(db *database.DB, logger *logrus.Logger) *PostgresStore {
	return &PostgresStore{
		db:  db,
		log: logger,
	}
}

// CreatePatient inserts a new patient
func (s *PostgresStore) CreatePatient(ctx context.Context, patient *domain.Patient) error {
	query := `INSERT INTO patients (` + patientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.db.Pool.Exec(ctx, query,
		patient.ID,
		patient.Name,
		patient.Age,
		string(patient.Gender),
		patient.HeightCM,
		patient.WeightKG,
		patient.AbhaID,
		patient.State,
		patient.CreatedBy,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("patient with ABHA id %s: %w", patient.AbhaID, domain.ErrDuplicate)
		}
		s.log.WithFields(logrus.Fields{
			"patient_id": patient.ID,
			"error":      err,
		}).Error("Failed to create patient")
		return fmt.Errorf("creating patient: %w", err)
	}
	return nil
}

// GetPatient retrieves a patient by ID
func (s *PostgresStore) GetPatient(ctx context.Context, id string) (*domain.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`

	patient, err := scanPatient(s.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("patient %s: %w", id, domain.ErrNotFound)
		}
		s.log.WithFields(logrus.Fields{
			"patient_id": id,
			"error":      err,
		}).Error("Failed to get patient")
		return nil, fmt.Errorf("getting patient: %w", err)
	}
	return patient, nil
}

// UpdatePatient rewrites the profile fields of an existing patient
func (s *PostgresStore) UpdatePatient(ctx context.Context, patient *domain.Patient) error {
	tag, err := s.db.Pool.Exec(ctx, updatePatientQuery,
		patient.ID,
		patient.Name,
		patient.Age,
		string(patient.Gender),
		patient.HeightCM,
		patient.WeightKG,
		patient.AbhaID,
		patient.State,
		patient.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("patient with ABHA id %s: %w", patient.AbhaID, domain.ErrDuplicate)
		}
		s.log.WithFields(logrus.Fields{
			"patient_id": patient.ID,
			"error":      err,
		}).Error("Failed to update patient")
		return fmt.Errorf("updating patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("patient %s: %w", patient.ID, domain.ErrNotFound)
	}
	return nil
}

// ListPatientOverviews returns every patient, newest first, with their
// latest prediction
func (s *PostgresStore) ListPatientOverviews(ctx context.Context) ([]*domain.PatientOverview, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT `+patientColumns+` FROM patients ORDER BY created_at DESC, id`)
	if err != nil {
		s.log.WithError(err).Error("Failed to list patients")
		return nil, fmt.Errorf("listing patients: %w", err)
	}
	defer rows.Close()

	var patients []*domain.Patient
	for rows.Next() {
		patient, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning patient: %w", err)
		}
		patients = append(patients, patient)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing patients: %w", err)
	}
	rows.Close()

	latest, err := s.queryPredictions(ctx, `SELECT DISTINCT ON (patient_id) `+predictionColumns+`
		FROM predictions
		ORDER BY patient_id, predicted_at DESC, seq DESC`)
	if err != nil {
		return nil, err
	}
	return mergeOverviews(patients, latest), nil
}

// DashboardStats counts registrations in each window and at-risk predictions
func (s *PostgresStore) DashboardStats(ctx context.Context, window domain.StatsWindow) (*domain.DashboardStats, error) {
	var stats domain.DashboardStats
	if err := s.db.Pool.QueryRow(ctx, dashboardQuery,
		window.DayStart, window.DayEnd, window.WeekStart, window.MonthStart,
	).Scan(dashboardDest(&stats)...); err != nil {
		s.log.WithError(err).Error("Failed to compute dashboard stats")
		return nil, fmt.Errorf("computing dashboard stats: %w", err)
	}
	return &stats, nil
}

// AppendAssessment inserts a new assessment history row
func (s *PostgresStore) AppendAssessment(ctx context.Context, assessment domain.Assessment) error {
	row, err := encodeAssessment(assessment)
	if err != nil {
		return err
	}

	query := `INSERT INTO assessments (id, patient_id, disease, payload, assessed_by, assessed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := s.db.Pool.Exec(ctx, query,
		row.ID, row.PatientID, row.Disease, row.Payload, row.AssessedBy, row.AssessedAt,
	); err != nil {
		s.log.WithFields(logrus.Fields{
			"patient_id": row.PatientID,
			"disease":    row.Disease,
			"error":      err,
		}).Error("Failed to append assessment")
		return fmt.Errorf("appending assessment: %w", err)
	}
	return nil
}

// LatestAssessments returns the newest assessment per disease
func (s *PostgresStore) LatestAssessments(ctx context.Context, patientID string) (*domain.LatestAssessments, error) {
	query := `SELECT DISTINCT ON (disease) id, patient_id, disease, payload, assessed_by, assessed_at
		FROM assessments
		WHERE patient_id = $1
		ORDER BY disease, assessed_at DESC, seq DESC`

	assessments, err := s.queryAssessments(ctx, query, patientID)
	if err != nil {
		return nil, err
	}

	latest := &domain.LatestAssessments{}
	for _, a := range assessments {
		latest.Set(a)
	}
	return latest, nil
}

// ListAssessments returns the assessment history for one disease, newest first
func (s *PostgresStore) ListAssessments(ctx context.Context, patientID string, disease domain.Disease) ([]domain.Assessment, error) {
	query := `SELECT id, patient_id, disease, payload, assessed_by, assessed_at
		FROM assessments
		WHERE patient_id = $1 AND disease = $2
		ORDER BY assessed_at DESC, seq DESC`

	return s.queryAssessments(ctx, query, patientID, string(disease))
}

func (s *PostgresStore) queryAssessments(ctx context.Context, query string, args ...any) ([]domain.Assessment, error) {
	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		s.log.WithError(err).Error("Failed to query assessments")
		return nil, fmt.Errorf("querying assessments: %w", err)
	}
	defer rows.Close()

	var assessments []domain.Assessment
	for rows.Next() {
		var row assessmentRow
		if err := rows.Scan(&row.ID, &row.PatientID, &row.Disease, &row.Payload, &row.AssessedBy, &row.AssessedAt); err != nil {
			return nil, fmt.Errorf("scanning assessment: %w", err)
		}
		a, err := row.decode()
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, a)
	}
	return assessments, rows.Err()
}

// AppendPrediction inserts a new prediction record
func (s *PostgresStore) AppendPrediction(ctx context.Context, prediction *domain.RiskPrediction) error {
	query := `INSERT INTO predictions (` + predictionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	if _, err := s.db.Pool.Exec(ctx, query, predictionArgs(prediction, prediction.PredictedAt.UTC())...); err != nil {
		s.log.WithFields(logrus.Fields{
			"patient_id":    prediction.PatientID,
			"prediction_id": prediction.ID,
			"error":         err,
		}).Error("Failed to append prediction")
		return fmt.Errorf("appending prediction: %w", err)
	}
	return nil
}

// LatestPrediction returns the most recent prediction for a patient
func (s *PostgresStore) LatestPrediction(ctx context.Context, patientID string) (*domain.RiskPrediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions
		WHERE patient_id = $1
		ORDER BY predicted_at DESC, seq DESC
		LIMIT 1`

	var scan predictionScan
	var predictedAt time.Time
	if err := s.db.Pool.QueryRow(ctx, query, patientID).Scan(scan.dest(&predictedAt)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("prediction for patient %s: %w", patientID, domain.ErrNotFound)
		}
		s.log.WithFields(logrus.Fields{
			"patient_id": patientID,
			"error":      err,
		}).Error("Failed to get latest prediction")
		return nil, fmt.Errorf("getting latest prediction: %w", err)
	}
	scan.p.PredictedAt = predictedAt.UTC()
	return scan.prediction(), nil
}

// ListPredictions returns prediction history, newest first
func (s *PostgresStore) ListPredictions(ctx context.Context, patientID string, limit, offset int) ([]*domain.RiskPrediction, error) {
	return s.queryPredictions(ctx, `SELECT `+predictionColumns+` FROM predictions
		WHERE patient_id = $1
		ORDER BY predicted_at DESC, seq DESC
		LIMIT $2 OFFSET $3`,
		patientID, limit, offset,
	)
}

func (s *PostgresStore) queryPredictions(ctx context.Context, query string, args ...any) ([]*domain.RiskPrediction, error) {
	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		s.log.WithError(err).Error("Failed to list predictions")
		return nil, fmt.Errorf("listing predictions: %w", err)
	}
	defer rows.Close()

	var predictions []*domain.RiskPrediction
	for rows.Next() {
		var scan predictionScan
		var predictedAt time.Time
		if err := rows.Scan(scan.dest(&predictedAt)...); err != nil {
			return nil, fmt.Errorf("scanning prediction: %w", err)
		}
		scan.p.PredictedAt = predictedAt.UTC()
		predictions = append(predictions, scan.prediction())
	}
	return predictions, rows.Err()
}

// Health pings the pool
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.Health(ctx)
}

// Close releases the connection pool
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

func scanPatient(row pgx.Row) (*domain.Patient, error) {
	var p domain.Patient
	var gender string
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Age,
		&gender,
		&p.HeightCM,
		&p.WeightKG,
		&p.AbhaID,
		&p.State,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Gender = domain.Gender(gender)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}
