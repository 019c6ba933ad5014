package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medml-risk-server/internal/domain"
)

var baseTime = time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)

func newPatient(id, abha string) *domain.Patient {
	return &domain.Patient{
		ID:        id,
		Name:      "Meera Iyer",
		Age:       61,
		Gender:    domain.GenderFemale,
		HeightCM:  158,
		WeightKG:  70.5,
		AbhaID:    abha,
		State:     "Karnataka",
		CreatedBy: "admin",
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}
}

func diabetesAt(id, patientID string, glucose float64, at time.Time) *domain.DiabetesAssessment {
	a := &domain.DiabetesAssessment{Glucose: glucose, BloodPressure: 76, Insulin: 90, FamilyHistory: true}
	a.ID = id
	a.PatientID = patientID
	a.AssessedBy = "nurse-1"
	a.AssessedAt = at
	return a
}

// runStoreContract exercises the behaviour every domain.Store must share.
func runStoreContract(t *testing.T, store domain.Store) {
	ctx := context.Background()

	t.Run("patients", func(t *testing.T) {
		p := newPatient("p-1", "11112222333344")
		require.NoError(t, store.CreatePatient(ctx, p))

		got, err := store.GetPatient(ctx, "p-1")
		require.NoError(t, err)
		assert.Equal(t, p, got)

		err = store.CreatePatient(ctx, newPatient("p-dup", "11112222333344"))
		assert.ErrorIs(t, err, domain.ErrDuplicate)

		_, err = store.GetPatient(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		later := newPatient("p-2", "55556666777788")
		later.CreatedAt = baseTime.Add(time.Hour)
		later.UpdatedAt = later.CreatedAt
		require.NoError(t, store.CreatePatient(ctx, later))

		list, err := store.ListPatientOverviews(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "p-2", list[0].Patient.ID)
		assert.Equal(t, "p-1", list[1].Patient.ID)
		assert.Nil(t, list[0].LatestPrediction)
		assert.Nil(t, list[1].LatestPrediction)
	})

	t.Run("update patient", func(t *testing.T) {
		p, err := store.GetPatient(ctx, "p-1")
		require.NoError(t, err)
		p.Name = "Meera Rao"
		p.WeightKG = 68
		p.State = "Kerala"
		p.UpdatedAt = baseTime.Add(2 * time.Hour)
		require.NoError(t, store.UpdatePatient(ctx, p))

		got, err := store.GetPatient(ctx, "p-1")
		require.NoError(t, err)
		assert.Equal(t, "Meera Rao", got.Name)
		assert.Equal(t, 68.0, got.WeightKG)
		assert.Equal(t, "Kerala", got.State)
		assert.True(t, baseTime.Equal(got.CreatedAt))
		assert.True(t, baseTime.Add(2*time.Hour).Equal(got.UpdatedAt))

		conflict := *got
		conflict.AbhaID = "55556666777788"
		assert.ErrorIs(t, store.UpdatePatient(ctx, &conflict), domain.ErrDuplicate)

		unchanged, err := store.GetPatient(ctx, "p-1")
		require.NoError(t, err)
		assert.Equal(t, "11112222333344", unchanged.AbhaID)

		err = store.UpdatePatient(ctx, newPatient("ghost", "99990000111122"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("latest assessment per disease", func(t *testing.T) {
		require.NoError(t, store.AppendAssessment(ctx, diabetesAt("a-1", "p-1", 100, baseTime)))
		require.NoError(t, store.AppendAssessment(ctx, diabetesAt("a-2", "p-1", 180, baseTime.Add(48*time.Hour))))
		require.NoError(t, store.AppendAssessment(ctx, diabetesAt("a-3", "p-1", 140, baseTime.Add(24*time.Hour))))

		mh := &domain.MentalHealthAssessment{PHQScore: 9, GADScore: 7, Sleepiness: true}
		mh.ID = "a-4"
		mh.PatientID = "p-1"
		mh.AssessedAt = baseTime
		require.NoError(t, store.AppendAssessment(ctx, mh))

		latest, err := store.LatestAssessments(ctx, "p-1")
		require.NoError(t, err)
		require.NotNil(t, latest.Diabetes)
		assert.Equal(t, "a-2", latest.Diabetes.ID)
		assert.Equal(t, 180.0, latest.Diabetes.Glucose)
		assert.True(t, latest.Diabetes.FamilyHistory)
		assert.Equal(t, "nurse-1", latest.Diabetes.AssessedBy)
		assert.True(t, baseTime.Add(48*time.Hour).Equal(latest.Diabetes.AssessedAt))

		require.NotNil(t, latest.MentalHealth)
		assert.Equal(t, 9, latest.MentalHealth.PHQScore)
		assert.Nil(t, latest.Liver)
		assert.Nil(t, latest.Heart)

		empty, err := store.LatestAssessments(ctx, "p-2")
		require.NoError(t, err)
		assert.True(t, empty.Empty())
	})

	t.Run("same timestamp resolves to newest insert", func(t *testing.T) {
		at := baseTime.Add(72 * time.Hour)
		require.NoError(t, store.AppendAssessment(ctx, diabetesAt("a-5", "p-2", 110, at)))
		require.NoError(t, store.AppendAssessment(ctx, diabetesAt("a-6", "p-2", 120, at)))

		latest, err := store.LatestAssessments(ctx, "p-2")
		require.NoError(t, err)
		assert.Equal(t, "a-6", latest.Diabetes.ID)
	})

	t.Run("assessment history", func(t *testing.T) {
		history, err := store.ListAssessments(ctx, "p-1", domain.Diabetes)
		require.NoError(t, err)
		require.Len(t, history, 3)
		ids := []string{history[0].Meta().ID, history[1].Meta().ID, history[2].Meta().ID}
		assert.Equal(t, []string{"a-2", "a-3", "a-1"}, ids)

		none, err := store.ListAssessments(ctx, "p-1", domain.Heart)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("predictions", func(t *testing.T) {
		_, err := store.LatestPrediction(ctx, "p-1")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		for i := 0; i < 3; i++ {
			p := &domain.RiskPrediction{
				ID:           fmt.Sprintf("pr-%d", i),
				PatientID:    "p-1",
				Diabetes:     &domain.DiseaseRisk{Score: 0.2 * float64(i+1), Tier: domain.TierLow},
				MentalHealth: &domain.DiseaseRisk{Score: 0.71, Tier: domain.TierHigh},
				ModelVersion: "1.0",
				PredictedAt:  baseTime.Add(time.Duration(i) * time.Minute),
			}
			require.NoError(t, store.AppendPrediction(ctx, p))
		}

		latest, err := store.LatestPrediction(ctx, "p-1")
		require.NoError(t, err)
		assert.Equal(t, "pr-2", latest.ID)
		require.NotNil(t, latest.Diabetes)
		assert.InDelta(t, 0.6, latest.Diabetes.Score, 1e-12)
		assert.Nil(t, latest.Liver)
		assert.Nil(t, latest.Heart)
		assert.Equal(t, domain.TierHigh, latest.MentalHealth.Tier)
		assert.Equal(t, "1.0", latest.ModelVersion)
		assert.True(t, baseTime.Add(2*time.Minute).Equal(latest.PredictedAt))

		page, err := store.ListPredictions(ctx, "p-1", 2, 0)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "pr-2", page[0].ID)
		assert.Equal(t, "pr-1", page[1].ID)

		page, err = store.ListPredictions(ctx, "p-1", 2, 2)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "pr-0", page[0].ID)
	})

	t.Run("patient overviews carry latest prediction", func(t *testing.T) {
		list, err := store.ListPatientOverviews(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)

		assert.Equal(t, "p-2", list[0].Patient.ID)
		assert.Nil(t, list[0].LatestPrediction)

		assert.Equal(t, "p-1", list[1].Patient.ID)
		require.NotNil(t, list[1].LatestPrediction)
		assert.Equal(t, "pr-2", list[1].LatestPrediction.ID)
		assert.Equal(t, domain.TierHigh, list[1].LatestPrediction.MentalHealth.Tier)
	})

	t.Run("dashboard stats", func(t *testing.T) {
		stats, err := store.DashboardStats(ctx, domain.NewStatsWindow(baseTime.Add(30*time.Minute)))
		require.NoError(t, err)
		assert.Equal(t, &domain.DashboardStats{
			TodayRegistrations:     2,
			ThisWeekRegistrations:  2,
			ThisMonthRegistrations: 2,
			TotalPatients:          2,
			TotalAssessments:       6,
			TotalPredictions:       3,
			MentalHealthRiskCount:  3,
		}, stats)

		stats, err = store.DashboardStats(ctx, domain.NewStatsWindow(baseTime.AddDate(0, 1, 0)))
		require.NoError(t, err)
		assert.Zero(t, stats.TodayRegistrations)
		assert.Zero(t, stats.ThisWeekRegistrations)
		assert.Zero(t, stats.ThisMonthRegistrations)
		assert.Equal(t, 2, stats.TotalPatients)
	})

	t.Run("health", func(t *testing.T) {
		assert.NoError(t, store.Health(ctx))
	})
}
