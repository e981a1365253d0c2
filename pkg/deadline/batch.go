package deadline

import (
	"time"

	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/model"
)

// BatchCheck evaluates every project on the given day and folds the alerts
// into a report. A project counts as at risk when it raised an alert or
// IsAtRisk holds; the two signals are independent.
func (c *Checker) BatchCheck(projects []model.Project, today time.Time) *model.Report {
	report := &model.Report{
		TotalProjects:    len(projects),
		AlertsBySeverity: make(map[model.Severity][]model.Alert, 4),
		AllAlerts:        []model.Alert{},
		GeneratedAt:      model.FormatDate(today),
	}
	for _, s := range model.Severities() {
		report.AlertsBySeverity[s] = []model.Alert{}
	}

	for _, p := range projects {
		alerts := c.CheckProject(p, today)
		if len(alerts) > 0 || p.IsAtRisk(today) {
			report.ProjectsAtRisk++
		}
		report.AllAlerts = append(report.AllAlerts, alerts...)
	}

	for _, a := range report.AllAlerts {
		report.AlertsBySeverity[a.Severity] = append(report.AlertsBySeverity[a.Severity], a)
	}

	return report
}
