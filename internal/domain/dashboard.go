package domain

import (
	"strings"
	"time"
)

// PatientOverview pairs a patient with their most recent prediction, if any
type PatientOverview struct {
	Patient          *Patient
	LatestPrediction *RiskPrediction
}

// PatientSort selects the listing order and the risk tier filter
type PatientSort string

const (
	SortRecentlyAdded PatientSort = "recently_added"
	SortHighRisk      PatientSort = "high_risk"
	SortMediumRisk    PatientSort = "medium_risk"
	SortLowRisk       PatientSort = "low_risk"
)

// ParsePatientSort maps a query value onto a PatientSort. Empty means
// recently added.
func ParsePatientSort(s string) (PatientSort, error) {
	switch sort := PatientSort(strings.ToLower(strings.TrimSpace(s))); sort {
	case "":
		return SortRecentlyAdded, nil
	case SortRecentlyAdded, SortHighRisk, SortMediumRisk, SortLowRisk:
		return sort, nil
	}
	return "", NewValidationError("sort", "sort must be recently_added, high_risk, medium_risk or low_risk", s)
}

// Tier returns the tier a risk sort filters on.
func (s PatientSort) Tier() (RiskTier, bool) {
	switch s {
	case SortHighRisk:
		return TierHigh, true
	case SortMediumRisk:
		return TierMedium, true
	case SortLowRisk:
		return TierLow, true
	}
	return "", false
}

// PatientFilter narrows a patient listing. An empty Disease matches any
// disease.
type PatientFilter struct {
	Disease Disease
	Sort    PatientSort
	Limit   int
	Offset  int
}

// Matches reports whether o passes the filter. With a disease set, the
// patient's latest prediction must score that disease, at the sort's tier
// when the sort is a risk sort. Without one, a risk sort keeps patients with
// any disease at that tier.
func (f PatientFilter) Matches(o *PatientOverview) bool {
	tier, byTier := f.Sort.Tier()
	if f.Disease == "" && !byTier {
		return true
	}

	latest := o.LatestPrediction
	if latest == nil {
		return false
	}

	if f.Disease != "" {
		risk := latest.Risk(f.Disease)
		return risk != nil && (!byTier || risk.Tier == tier)
	}
	for _, d := range Diseases {
		if risk := latest.Risk(d); risk != nil && risk.Tier == tier {
			return true
		}
	}
	return false
}

// StatsWindow marks the registration periods counted on the dashboard.
// All bounds are UTC.
type StatsWindow struct {
	DayStart   time.Time
	DayEnd     time.Time
	WeekStart  time.Time
	MonthStart time.Time
}

// NewStatsWindow returns the windows containing now: today, the seven days
// before today, and the calendar month.
func NewStatsWindow(now time.Time) StatsWindow {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return StatsWindow{
		DayStart:   day,
		DayEnd:     day.AddDate(0, 0, 1),
		WeekStart:  day.AddDate(0, 0, -7),
		MonthStart: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
	}
}

// DashboardStats are the registration and risk counts shown to admins. The
// per-disease counts cover every stored prediction rated Medium or High.
type DashboardStats struct {
	TodayRegistrations     int `json:"today_registrations"`
	ThisWeekRegistrations  int `json:"this_week_registrations"`
	ThisMonthRegistrations int `json:"this_month_registrations"`
	TotalPatients          int `json:"total_patients"`
	TotalAssessments       int `json:"total_assessments"`
	TotalPredictions       int `json:"total_predictions"`
	DiabetesRiskCount      int `json:"diabetes_risk_count"`
	LiverRiskCount         int `json:"liver_risk_count"`
	HeartRiskCount         int `json:"heart_risk_count"`
	MentalHealthRiskCount  int `json:"mental_health_risk_count"`
}
