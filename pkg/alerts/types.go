package alerts

import (
	"context"
	"strings"

	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/model"
)

// NotInformed stands in for the responsible parties of a project that is not
// part of the evaluated portfolio.
const NotInformed = "not informed"

// ProjectAlerts groups the alerts raised by a single project.
type ProjectAlerts struct {
	ProjectID   string        `json:"project_id"`
	Project     string        `json:"project"`
	Responsible []string      `json:"responsible"`
	Alerts      []model.Alert `json:"alerts"`
}

// Notification is the consolidated message for one evaluation cycle.
type Notification struct {
	GeneratedAt  string          `json:"generated_at"`
	TotalAlerts  int             `json:"total_alerts"`
	Projects     []ProjectAlerts `json:"projects"`
	DashboardURL string          `json:"dashboard_url,omitempty"`
}

// Notifier sends notifications to external systems.
type Notifier interface {
	// Name returns the notifier identifier.
	Name() string

	// Send delivers a notification. Implementations must be safe for concurrent use.
	Send(ctx context.Context, n Notification) error
}

// Group builds a notification from alerts, grouping them by project in order
// of first appearance.
func Group(generatedAt string, alerts []model.Alert, projects []model.Project) Notification {
	byID := make(map[string]model.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}

	n := Notification{
		GeneratedAt: generatedAt,
		TotalAlerts: len(alerts),
		Projects:    []ProjectAlerts{},
	}
	index := make(map[string]int)
	for _, a := range alerts {
		i, seen := index[a.ProjectID]
		if !seen {
			name, _, _ := strings.Cut(a.Target, " > ")
			group := ProjectAlerts{ProjectID: a.ProjectID, Project: name, Responsible: []string{NotInformed}}
			if p, ok := byID[a.ProjectID]; ok {
				group.Project = p.Name
				if len(p.Responsible) > 0 {
					group.Responsible = p.Responsible
				}
			}
			i = len(n.Projects)
			index[a.ProjectID] = i
			n.Projects = append(n.Projects, group)
		}
		n.Projects[i].Alerts = append(n.Projects[i].Alerts, a)
	}
	return n
}
