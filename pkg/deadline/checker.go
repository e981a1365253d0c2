// Package deadline evaluates projects against day-offset thresholds and
// aggregates the resulting alerts across a portfolio.
//
// Alerts fire only when the remaining day count equals a threshold exactly, so
// the checker expects to be run once per calendar day.
package deadline

import (
	"fmt"
	"slices"
	"time"

	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/model"
)

// Checker evaluates projects. It holds no mutable state and is safe for
// concurrent use.
type Checker struct {
	thresholds Thresholds
}

// NewChecker creates a checker for the given thresholds. The slices are copied.
func NewChecker(t Thresholds) *Checker {
	return &Checker{
		thresholds: Thresholds{
			ProjectDeadline: slices.Clone(t.ProjectDeadline),
			Milestone:       slices.Clone(t.Milestone),
		},
	}
}

// Thresholds returns the offsets the checker was built with.
func (c *Checker) Thresholds() Thresholds {
	return Thresholds{
		ProjectDeadline: slices.Clone(c.thresholds.ProjectDeadline),
		Milestone:       slices.Clone(c.thresholds.Milestone),
	}
}

// CheckProject returns the alerts p raises on the given day. Done projects
// raise nothing.
func (c *Checker) CheckProject(p model.Project, today time.Time) []model.Alert {
	if p.Status == model.StatusDone {
		return nil
	}

	var alerts []model.Alert

	if days, ok := p.DaysUntilDeadline(today); ok && matches(c.thresholds.ProjectDeadline, days) {
		alerts = append(alerts, model.Alert{
			Type:      model.AlertProjectDeadline,
			ProjectID: p.ID,
			Target:    p.Name,
			Days:      days,
			Severity:  SeverityFor(days),
			Message: fmt.Sprintf("Project '%s' is due in %d days (%s)",
				p.Name, days, model.FormatDate(p.ExpectedEndDate)),
		})
	}

	for _, m := range p.Milestones {
		days, ok := m.DaysUntil(today)
		if !ok {
			continue
		}
		target := p.Name + " > " + m.Title

		if days < 0 {
			late := -days
			alerts = append(alerts, model.Alert{
				Type:      model.AlertMilestoneOverdue,
				ProjectID: p.ID,
				Target:    target,
				Days:      late,
				Severity:  model.SeverityCritical,
				Message: fmt.Sprintf("MILESTONE OVERDUE: '%s' was due on %s (%d days late)",
					m.Title, model.FormatDate(m.ExpectedDate), late),
			})
			continue
		}

		if matches(c.thresholds.Milestone, days) {
			alerts = append(alerts, model.Alert{
				Type:      model.AlertMilestoneApproaching,
				ProjectID: p.ID,
				Target:    target,
				Days:      days,
				Severity:  SeverityFor(days),
				Message:   fmt.Sprintf("Milestone '%s' in %s is due in %d days", m.Title, p.Name, days),
			})
		}
	}

	return alerts
}
