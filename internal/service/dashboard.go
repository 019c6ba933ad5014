package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/medml-risk-server/internal/domain"
)

// DashboardService computes the admin dashboard counters
type DashboardService struct {
	reports domain.ReportRepository
	logger  *logrus.Logger
	now     func() time.Time
}

// NewDashboardService creates a dashboard service
func NewDashboardService(reports domain.ReportRepository, logger *logrus.Logger) *DashboardService {
	return &DashboardService{
		reports: reports,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Stats returns registration counts for the current day, week and month
// together with totals and per-disease at-risk prediction counts.
func (s *DashboardService) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	window := domain.NewStatsWindow(s.now())
	stats, err := s.reports.DashboardStats(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("loading dashboard stats: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"day_start":      window.DayStart,
		"total_patients": stats.TotalPatients,
	}).Debug("Dashboard stats computed")
	return stats, nil
}
