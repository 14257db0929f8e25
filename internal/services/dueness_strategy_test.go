package services

import (
	"testing"
	"time"

	"dompet/internal/core"
)

func TestDailyChecker_IsDue(t *testing.T) {
	checker := DailyChecker{}
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		lastExecution time.Time
		want          bool
	}{
		{"never executed - is due", time.Time{}, true},
		{"executed today - not due", time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC), false},
		{"executed yesterday - is due", time.Date(2026, 10, 18, 23, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.lastExecution, now, start); got != tt.want {
				t.Errorf("DailyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDailyChecker_UsesNowLocation(t *testing.T) {
	wib := time.FixedZone("WIB", 7*3600)
	// 18 Oct 20:00 UTC is already 19 Oct 03:00 WIB.
	last := time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, wib)
	if (DailyChecker{}).IsDue(last, now, time.Time{}) {
		t.Fatal("expected execution earlier the same local day to not be due")
	}
}

func TestWeeklyChecker_IsDue(t *testing.T) {
	checker := WeeklyChecker{}
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		lastExecution time.Time
		want          bool
	}{
		{"never executed - is due", time.Time{}, true},
		{"executed 3 days ago - not due", now.AddDate(0, 0, -3), false},
		{"executed 7 days ago - is due", now.AddDate(0, 0, -7), true},
		{"executed 10 days ago - is due", now.AddDate(0, 0, -10), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.lastExecution, now, time.Time{}); got != tt.want {
				t.Errorf("WeeklyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthlyChecker_IsDue(t *testing.T) {
	checker := MonthlyChecker{}
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name          string
		lastExecution time.Time
		now           time.Time
		startDate     time.Time
		want          bool
	}{
		{"never executed - is due", time.Time{}, day(2026, 1, 15), day(2026, 1, 10), true},
		{"executed this month - not due", day(2026, 1, 10), day(2026, 1, 15), day(2026, 1, 10), false},
		{"new month but before target day - not due", day(2026, 1, 15), day(2026, 2, 10), day(2026, 1, 15), false},
		{"new month and on target day - is due", day(2026, 1, 15), day(2026, 2, 15), day(2026, 1, 15), true},
		{"target day 31 in February - clamps to 28", day(2026, 1, 31), day(2026, 2, 28), day(2026, 1, 31), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.lastExecution, tt.now, tt.startDate); got != tt.want {
				t.Errorf("MonthlyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetDuenessChecker(t *testing.T) {
	tests := []struct {
		name    string
		every   core.RepetitionTypes
		wantErr bool
	}{
		{"daily", core.Daily, false},
		{"weekly", core.Weekly, false},
		{"monthly", core.Monthly, false},
		{"unknown", core.RepetitionTypes("yearly"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker, err := GetDuenessChecker(tt.every)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetDuenessChecker() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && checker == nil {
				t.Error("GetDuenessChecker() returned nil checker")
			}
		})
	}
}
