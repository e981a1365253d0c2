package monitor

import (
	"context"
	"fmt"
	"time"
)

// Clock is a time of day.
type Clock struct {
	Hour   int
	Minute int
}

// DefaultClock is the daily run time used when none is configured.
var DefaultClock = Clock{Hour: 8}

// ParseClock parses an HH:MM time of day.
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid time of day %q: expected HH:MM", s)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// NextRun returns the first occurrence of at in loc strictly after now.
func NextRun(now time.Time, at Clock, loc *time.Location) time.Time {
	local := now.In(loc)
	y, m, d := local.Date()
	next := time.Date(y, m, d, at.Hour, at.Minute, 0, 0, loc)
	if !next.After(now) {
		next = time.Date(y, m, d+1, at.Hour, at.Minute, 0, 0, loc)
	}
	return next
}

// Run executes a cycle every day at the given time until ctx is cancelled.
// Cycles never overlap. A failed cycle is logged and the loop continues.
func (m *Monitor) Run(ctx context.Context, at Clock) error {
	th := m.checker.Thresholds()
	m.logger.Info("scheduler started",
		"at", at.String(),
		"location", m.location.String(),
		"project_thresholds", th.ProjectDeadline,
		"milestone_thresholds", th.Milestone,
	)
	for {
		next := NextRun(m.now(), at, m.location)
		m.logger.Info("next deadline check scheduled", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(next.Sub(m.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			m.logger.Info("scheduler stopped")
			return nil
		case <-timer.C:
		}

		if _, err := m.RunOnce(ctx); err != nil {
			m.logger.Error("scheduled deadline check failed", "error", err)
		}
	}
}
