package model

// Severity ranks how urgent an alert is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Severities lists every severity from most to least urgent.
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
}

// AlertType names the rule that produced an alert.
type AlertType string

const (
	AlertProjectDeadline      AlertType = "project_deadline"
	AlertMilestoneOverdue     AlertType = "milestone_overdue"
	AlertMilestoneApproaching AlertType = "milestone_approaching"
)

func (t AlertType) Valid() bool {
	switch t {
	case AlertProjectDeadline, AlertMilestoneOverdue, AlertMilestoneApproaching:
		return true
	}
	return false
}

// Alert is a single deadline notification produced by one evaluation cycle.
type Alert struct {
	Type      AlertType `json:"type"`
	ProjectID string    `json:"project_id"`
	Target    string    `json:"target"`
	Days      int       `json:"days"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
}

// Report aggregates the alerts of a whole portfolio.
type Report struct {
	TotalProjects    int                  `json:"total_projects"`
	ProjectsAtRisk   int                  `json:"projects_at_risk"`
	AlertsBySeverity map[Severity][]Alert `json:"alerts_by_severity"`
	AllAlerts        []Alert              `json:"all_alerts"`
	GeneratedAt      string               `json:"generated_at"`
}

// CountBySeverity returns the number of alerts in each bucket.
func (r *Report) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int, len(r.AlertsBySeverity))
	for _, s := range Severities() {
		counts[s] = len(r.AlertsBySeverity[s])
	}
	return counts
}
