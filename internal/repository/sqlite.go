package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/medml-risk-server/internal/domain"
)

// timeLayout keeps stored timestamps fixed width so they order as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements domain.Store on a single SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	log *logrus.Logger
}

// NewSQLiteStore opens (or creates) the database at dbPath and applies the
// schema.
func NewSQLiteStore(dbPath string, logger *logrus.Logger) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serialises writers and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.WithField("path", dbPath).Info("SQLite store opened")
	return newSQLiteStore(db, logger), nil
}

// sqliteDSN appends the connection pragmas to dbPath. The driver applies
// them to every connection it opens, including replacements.
func sqliteDSN(dbPath string) string {
	pragmas := []string{"journal_mode(WAL)", "foreign_keys(1)", "busy_timeout(5000)"}
	if dbPath == ":memory:" {
		pragmas = pragmas[1:]
	}
	q := make([]string, 0, len(pragmas))
	for _, p := range pragmas {
		q = append(q, "_pragma="+p)
	}
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + strings.Join(q, "&")
}

func newSQLiteStore(db *sql.DB, logger *logrus.Logger) *SQLiteStore {
	return &SQLiteStore{db: db, log: logger}
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS patients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		age INTEGER NOT NULL,
		gender TEXT NOT NULL,
		height_cm REAL NOT NULL DEFAULT 0,
		weight_kg REAL NOT NULL DEFAULT 0,
		abha_id TEXT NOT NULL UNIQUE,
		state TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS assessments (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		patient_id TEXT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
		disease TEXT NOT NULL,
		payload TEXT NOT NULL,
		assessed_by TEXT NOT NULL DEFAULT '',
		assessed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assessments_latest ON assessments(patient_id, disease, assessed_at, seq);

	CREATE TABLE IF NOT EXISTS predictions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		patient_id TEXT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
		diabetes_score REAL,
		diabetes_tier TEXT,
		liver_score REAL,
		liver_tier TEXT,
		heart_score REAL,
		heart_tier TEXT,
		mental_health_score REAL,
		mental_health_tier TEXT,
		model_version TEXT NOT NULL,
		predicted_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_predictions_latest ON predictions(patient_id, predicted_at, seq);
	`

	_, err := db.Exec(schema)
	return err
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// sqlitePlaceholders turns $N placeholders into SQLite's ?N form.
func sqlitePlaceholders(query string) string {
	return strings.ReplaceAll(query, "$", "?")
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored time %q: %w", s, err)
	}
	return t.UTC(), nil
}

// CreatePatient inserts a new patient
func (s *SQLiteStore) CreatePatient(ctx context.Context, patient *domain.Patient) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO patients (`+patientColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		patient.ID, patient.Name, patient.Age, string(patient.Gender),
		patient.HeightCM, patient.WeightKG, patient.AbhaID, patient.State, patient.CreatedBy,
		formatTime(patient.CreatedAt), formatTime(patient.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
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

func scanSQLitePatient(sc scanner) (*domain.Patient, error) {
	var p domain.Patient
	var gender, createdAt, updatedAt string
	if err := sc.Scan(
		&p.ID, &p.Name, &p.Age, &gender, &p.HeightCM, &p.WeightKG,
		&p.AbhaID, &p.State, &p.CreatedBy, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	p.Gender = domain.Gender(gender)
	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPatient retrieves a patient by ID
func (s *SQLiteStore) GetPatient(ctx context.Context, id string) (*domain.Patient, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = ?`, id)
	patient, err := scanSQLitePatient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
func (s *SQLiteStore) UpdatePatient(ctx context.Context, patient *domain.Patient) error {
	res, err := s.db.ExecContext(ctx, sqlitePlaceholders(updatePatientQuery),
		patient.ID, patient.Name, patient.Age, string(patient.Gender),
		patient.HeightCM, patient.WeightKG, patient.AbhaID, patient.State,
		formatTime(patient.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("patient with ABHA id %s: %w", patient.AbhaID, domain.ErrDuplicate)
		}
		s.log.WithFields(logrus.Fields{
			"patient_id": patient.ID,
			"error":      err,
		}).Error("Failed to update patient")
		return fmt.Errorf("updating patient: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating patient: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("patient %s: %w", patient.ID, domain.ErrNotFound)
	}
	return nil
}

// ListPatientOverviews returns every patient, newest first, with their
// latest prediction
func (s *SQLiteStore) ListPatientOverviews(ctx context.Context) ([]*domain.PatientOverview, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+patientColumns+` FROM patients ORDER BY created_at DESC, id`)
	if err != nil {
		s.log.WithError(err).Error("Failed to list patients")
		return nil, fmt.Errorf("listing patients: %w", err)
	}
	defer rows.Close()

	var patients []*domain.Patient
	for rows.Next() {
		patient, err := scanSQLitePatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning patient: %w", err)
		}
		patients = append(patients, patient)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing patients: %w", err)
	}
	rows.Close()

	latest, err := s.queryPredictions(ctx, `SELECT `+predictionColumns+` FROM (
		SELECT *, ROW_NUMBER() OVER (PARTITION BY patient_id ORDER BY predicted_at DESC, seq DESC) AS rn
		FROM predictions
	) WHERE rn = 1`)
	if err != nil {
		return nil, err
	}
	return mergeOverviews(patients, latest), nil
}

// DashboardStats counts registrations in each window and at-risk predictions
func (s *SQLiteStore) DashboardStats(ctx context.Context, window domain.StatsWindow) (*domain.DashboardStats, error) {
	var stats domain.DashboardStats
	if err := s.db.QueryRowContext(ctx, sqlitePlaceholders(dashboardQuery),
		formatTime(window.DayStart), formatTime(window.DayEnd),
		formatTime(window.WeekStart), formatTime(window.MonthStart),
	).Scan(dashboardDest(&stats)...); err != nil {
		s.log.WithError(err).Error("Failed to compute dashboard stats")
		return nil, fmt.Errorf("computing dashboard stats: %w", err)
	}
	return &stats, nil
}

// AppendAssessment inserts a new assessment history row
func (s *SQLiteStore) AppendAssessment(ctx context.Context, assessment domain.Assessment) error {
	row, err := encodeAssessment(assessment)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO assessments (id, patient_id, disease, payload, assessed_by, assessed_at) VALUES (?, ?, ?, ?, ?, ?)`,
		row.ID, row.PatientID, row.Disease, string(row.Payload), row.AssessedBy, formatTime(row.AssessedAt),
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
func (s *SQLiteStore) LatestAssessments(ctx context.Context, patientID string) (*domain.LatestAssessments, error) {
	latest := &domain.LatestAssessments{}
	for _, disease := range domain.Diseases {
		found, err := s.queryAssessments(ctx,
			`SELECT id, patient_id, disease, payload, assessed_by, assessed_at FROM assessments
			WHERE patient_id = ? AND disease = ?
			ORDER BY assessed_at DESC, seq DESC LIMIT 1`,
			patientID, string(disease),
		)
		if err != nil {
			return nil, err
		}
		if len(found) == 1 {
			latest.Set(found[0])
		}
	}
	return latest, nil
}

// ListAssessments returns the assessment history for one disease, newest first
func (s *SQLiteStore) ListAssessments(ctx context.Context, patientID string, disease domain.Disease) ([]domain.Assessment, error) {
	return s.queryAssessments(ctx,
		`SELECT id, patient_id, disease, payload, assessed_by, assessed_at FROM assessments
		WHERE patient_id = ? AND disease = ?
		ORDER BY assessed_at DESC, seq DESC`,
		patientID, string(disease),
	)
}

func (s *SQLiteStore) queryAssessments(ctx context.Context, query string, args ...any) ([]domain.Assessment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.log.WithError(err).Error("Failed to query assessments")
		return nil, fmt.Errorf("querying assessments: %w", err)
	}
	defer rows.Close()

	var assessments []domain.Assessment
	for rows.Next() {
		var row assessmentRow
		var payload, assessedAt string
		if err := rows.Scan(&row.ID, &row.PatientID, &row.Disease, &payload, &row.AssessedBy, &assessedAt); err != nil {
			return nil, fmt.Errorf("scanning assessment: %w", err)
		}
		row.Payload = []byte(payload)
		if row.AssessedAt, err = parseTime(assessedAt); err != nil {
			return nil, err
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
func (s *SQLiteStore) AppendPrediction(ctx context.Context, prediction *domain.RiskPrediction) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO predictions (`+predictionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		predictionArgs(prediction, formatTime(prediction.PredictedAt))...,
	); err != nil {
		s.log.WithFields(logrus.Fields{
			"patient_id":    prediction.PatientID,
			"prediction_id": prediction.ID,
			"error":         err,
		}).Error("Failed to append prediction")
		return fmt.Errorf("appending prediction: %w", err)
	}
	return nil
}

func scanSQLitePrediction(sc scanner) (*domain.RiskPrediction, error) {
	var scan predictionScan
	var predictedAt string
	if err := sc.Scan(scan.dest(&predictedAt)...); err != nil {
		return nil, err
	}
	t, err := parseTime(predictedAt)
	if err != nil {
		return nil, err
	}
	scan.p.PredictedAt = t
	return scan.prediction(), nil
}

// LatestPrediction returns the most recent prediction for a patient
func (s *SQLiteStore) LatestPrediction(ctx context.Context, patientID string) (*domain.RiskPrediction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+predictionColumns+` FROM predictions
		WHERE patient_id = ?
		ORDER BY predicted_at DESC, seq DESC LIMIT 1`,
		patientID,
	)
	prediction, err := scanSQLitePrediction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("prediction for patient %s: %w", patientID, domain.ErrNotFound)
		}
		s.log.WithFields(logrus.Fields{
			"patient_id": patientID,
			"error":      err,
		}).Error("Failed to get latest prediction")
		return nil, fmt.Errorf("getting latest prediction: %w", err)
	}
	return prediction, nil
}

// ListPredictions returns prediction history, newest first
func (s *SQLiteStore) ListPredictions(ctx context.Context, patientID string, limit, offset int) ([]*domain.RiskPrediction, error) {
	return s.queryPredictions(ctx,
		`SELECT `+predictionColumns+` FROM predictions
		WHERE patient_id = ?
		ORDER BY predicted_at DESC, seq DESC LIMIT ? OFFSET ?`,
		patientID, limit, offset,
	)
}

func (s *SQLiteStore) queryPredictions(ctx context.Context, query string, args ...any) ([]*domain.RiskPrediction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.log.WithError(err).Error("Failed to list predictions")
		return nil, fmt.Errorf("listing predictions: %w", err)
	}
	defer rows.Close()

	var predictions []*domain.RiskPrediction
	for rows.Next() {
		prediction, err := scanSQLitePrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning prediction: %w", err)
		}
		predictions = append(predictions, prediction)
	}
	return predictions, rows.Err()
}

// Health pings the database
func (s *SQLiteStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
