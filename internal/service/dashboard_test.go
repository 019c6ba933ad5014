package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medml-risk-server/internal/domain"
)

func newTestDashboardService(store *MockStore) *DashboardService {
	logger, _ := test.NewNullLogger()
	s := NewDashboardService(store, logger)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestDashboardService_Stats(t *testing.T) {
	store := new(MockStore)
	want := &domain.DashboardStats{TodayRegistrations: 3, TotalPatients: 40, HeartRiskCount: 7}
	store.On("DashboardStats", mock.Anything, domain.StatsWindow{
		DayStart:   time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
		DayEnd:     time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC),
		WeekStart:  time.Date(2026, 4, 27, 0, 0, 0, 0, time.UTC),
		MonthStart: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}).Return(want, nil)

	s := newTestDashboardService(store)
	got, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Same(t, want, got)
	store.AssertExpectations(t)
}

func TestDashboardService_StatsError(t *testing.T) {
	store := new(MockStore)
	store.On("DashboardStats", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	s := newTestDashboardService(store)
	_, err := s.Stats(context.Background())
	assert.ErrorContains(t, err, "loading dashboard stats")
}
