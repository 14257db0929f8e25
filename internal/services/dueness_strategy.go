// Package services executes chat commands and recurring rules.
//
// This file implements the Strategy Pattern for recurring rule dueness
// checking. Each interval (harian, mingguan, bulanan) has its own strategy
// that decides whether a rule should produce a ledger entry now.

package services

import (
	"fmt"
	"time"

	"dompet/internal/core"
)

// DuenessChecker is the strategy interface for checking if a recurring rule is due.
type DuenessChecker interface {
	// IsDue returns true if the rule should run based on the last execution
	// time and the current time. Dates are compared in now's location.
	IsDue(lastExecution, now, startDate time.Time) bool
}

// DailyChecker implements DuenessChecker for harian rules.
type DailyChecker struct{}

// IsDue returns true if last execution was before today.
func (DailyChecker) IsDue(lastExecution, now, _ time.Time) bool {
	if lastExecution.IsZero() {
		return true
	}
	const layout = "2006-01-02"
	return lastExecution.In(now.Location()).Format(layout) != now.Format(layout)
}

// WeeklyChecker implements DuenessChecker for mingguan rules.
type WeeklyChecker struct{}

// IsDue returns true if 7 or more days have passed since last execution.
func (WeeklyChecker) IsDue(lastExecution, now, _ time.Time) bool {
	if lastExecution.IsZero() {
		return true
	}
	return now.Sub(lastExecution) >= 7*24*time.Hour
}

// MonthlyChecker implements DuenessChecker for bulanan rules.
type MonthlyChecker struct{}

// IsDue returns true in a new month once the start date's day is reached.
// Days past the end of a short month clamp to its last day.
func (MonthlyChecker) IsDue(lastExecution, now, startDate time.Time) bool {
	if lastExecution.IsZero() {
		return true
	}

	last := lastExecution.In(now.Location())
	if last.Year() == now.Year() && last.Month() == now.Month() {
		return false
	}

	targetDay := startDate.In(now.Location()).Day()
	lastDayOfMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()
	if targetDay > lastDayOfMonth {
		targetDay = lastDayOfMonth
	}
	return now.Day() >= targetDay
}

var duenessStrategies = map[core.RepetitionTypes]DuenessChecker{
	core.Daily:   DailyChecker{},
	core.Weekly:  WeeklyChecker{},
	core.Monthly: MonthlyChecker{},
}

// GetDuenessChecker returns the checker for an interval.
func GetDuenessChecker(every core.RepetitionTypes) (DuenessChecker, error) {
	checker, ok := duenessStrategies[every]
	if !ok {
		return nil, fmt.Errorf("unknown repetition type: %s", every)
	}
	return checker, nil
}
