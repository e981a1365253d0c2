package model

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date format used on every boundary.
const DateLayout = "2006-01-02"

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	StatusPlanned    ProjectStatus = "planned"
	StatusInProgress ProjectStatus = "in_progress"
	StatusDone       ProjectStatus = "done"
	StatusPaused     ProjectStatus = "paused"
	StatusCancelled  ProjectStatus = "cancelled"
)

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusPlanned, StatusInProgress, StatusDone, StatusPaused, StatusCancelled:
		return true
	}
	return false
}

// RiskLevel is the risk classification assigned to a project by its owners.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// MilestoneStatus tags the progress of a single milestone.
type MilestoneStatus string

const (
	MilestonePending MilestoneStatus = "pending"
	MilestoneDone    MilestoneStatus = "done"
	MilestoneLate    MilestoneStatus = "late"
)

func (s MilestoneStatus) Valid() bool {
	switch s {
	case MilestonePending, MilestoneDone, MilestoneLate:
		return true
	}
	return false
}

// Day truncates t to its calendar date in t's own location and returns that
// date at UTC midnight, so day arithmetic never crosses a DST shift.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date in loc.
func Today(loc *time.Location) time.Time {
	return Day(time.Now().In(loc))
}

// Date builds a calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from -> to.
// The result is negative when to is before from. Unix seconds are used
// because time.Duration saturates after roughly 292 years.
func DaysBetween(from, to time.Time) int {
	return int((Day(to).Unix() - Day(from).Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// calendar date it names.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: expected YYYY-MM-DD or RFC 3339", s)
	}
	return Day(t), nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return Day(t).Format(DateLayout)
}
