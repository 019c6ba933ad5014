package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParsePatientSort(t *testing.T) {
	tests := []struct {
		in       string
		expected PatientSort
		wantErr  bool
	}{
		{"", SortRecentlyAdded, false},
		{"recently_added", SortRecentlyAdded, false},
		{"HIGH_RISK", SortHighRisk, false},
		{" medium_risk ", SortMediumRisk, false},
		{"low_risk", SortLowRisk, false},
		{"oldest", "", true},
	}

	for _, tt := range tests {
		got, err := ParsePatientSort(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrValidation) {
				t.Errorf("ParsePatientSort(%q): expected validation error, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.expected {
			t.Errorf("ParsePatientSort(%q): expected %s, got %s (%v)", tt.in, tt.expected, got, err)
		}
	}
}

func TestPatientFilter_NoPredictionOnlyMatchesUnfiltered(t *testing.T) {
	o := &PatientOverview{Patient: &Patient{ID: "p1"}}

	if !(PatientFilter{Sort: SortRecentlyAdded}).Matches(o) {
		t.Error("Expected unfiltered listing to include patients without predictions")
	}
	if (PatientFilter{Sort: SortLowRisk}).Matches(o) {
		t.Error("Expected risk sort to exclude patients without predictions")
	}
	if (PatientFilter{Disease: Heart, Sort: SortRecentlyAdded}).Matches(o) {
		t.Error("Expected disease filter to exclude patients without predictions")
	}
}

func TestNewStatsWindow(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	// 02:00 IST on the 1st is still the previous day in UTC
	w := NewStatsWindow(time.Date(2026, 3, 1, 2, 0, 0, 0, ist))

	expect := StatsWindow{
		DayStart:   time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		DayEnd:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		WeekStart:  time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC),
		MonthStart: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	if w != expect {
		t.Errorf("Expected %+v, got %+v", expect, w)
	}
}
