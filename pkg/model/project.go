package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AtRiskWindowDays is the deadline distance at or under which a project is at risk.
const AtRiskWindowDays = 15

var (
	ErrInvalidProject   = errors.New("invalid project")
	ErrEndBeforeStart   = errors.New("expected end date is before start date")
	ErrInvalidStatus    = errors.New("unknown project status")
	ErrInvalidRisk      = errors.New("unknown risk level")
	ErrInvalidMilestone = errors.New("invalid milestone")
)

// Milestone is a dated checkpoint inside a project.
type Milestone struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	ExpectedDate time.Time       `json:"expected_date"`
	ActualDate   *time.Time      `json:"actual_date,omitempty"`
	Status       MilestoneStatus `json:"status"`
}

// Completed reports whether the milestone no longer needs watching.
func (m Milestone) Completed() bool {
	return m.Status == MilestoneDone || m.ActualDate != nil
}

// DaysUntil returns expected - today in days. ok is false for completed milestones.
func (m Milestone) DaysUntil(today time.Time) (days int, ok bool) {
	if m.Completed() {
		return 0, false
	}
	return DaysBetween(today, m.ExpectedDate), true
}

// IsOverdue reports whether an open milestone's expected date has passed.
func (m Milestone) IsOverdue(today time.Time) bool {
	if m.Completed() {
		return false
	}
	return Day(today).After(Day(m.ExpectedDate))
}

// Project is a monitored project with its deadline and milestones.
// Build one with NewProject; the zero value is not valid.
type Project struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Description     string        `json:"description,omitempty"`
	Unit            string        `json:"unit"`
	Responsible     []string      `json:"responsible"`
	Status          ProjectStatus `json:"status"`
	Risk            RiskLevel     `json:"risk_level"`
	StartDate       time.Time     `json:"start_date"`
	ExpectedEndDate time.Time     `json:"expected_end_date"`
	Milestones      []Milestone   `json:"milestones"`
	Tags            []string      `json:"tags"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// NewProject normalizes p, applies defaults and validates it.
func NewProject(p Project) (Project, error) {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	if p.ID == "" {
		return Project{}, fmt.Errorf("%w: missing id", ErrInvalidProject)
	}
	if p.Name == "" {
		return Project{}, fmt.Errorf("%w %s: missing name", ErrInvalidProject, p.ID)
	}

	if p.Status == "" {
		p.Status = StatusInProgress
	}
	if !p.Status.Valid() {
		return Project{}, fmt.Errorf("project %s: %w %q", p.ID, ErrInvalidStatus, p.Status)
	}
	if p.Risk == "" {
		p.Risk = RiskLow
	}
	if !p.Risk.Valid() {
		return Project{}, fmt.Errorf("project %s: %w %q", p.ID, ErrInvalidRisk, p.Risk)
	}

	if p.StartDate.IsZero() {
		return Project{}, fmt.Errorf("%w %s: missing start date", ErrInvalidProject, p.ID)
	}
	if p.ExpectedEndDate.IsZero() {
		return Project{}, fmt.Errorf("%w %s: missing expected end date", ErrInvalidProject, p.ID)
	}
	p.StartDate = Day(p.StartDate)
	p.ExpectedEndDate = Day(p.ExpectedEndDate)
	if p.ExpectedEndDate.Before(p.StartDate) {
		return Project{}, fmt.Errorf("project %s: %w (%s < %s)", p.ID, ErrEndBeforeStart,
			FormatDate(p.ExpectedEndDate), FormatDate(p.StartDate))
	}

	milestones := make([]Milestone, 0, len(p.Milestones))
	for i, m := range p.Milestones {
		if strings.TrimSpace(m.Title) == "" {
			return Project{}, fmt.Errorf("project %s: %w at position %d: missing title", p.ID, ErrInvalidMilestone, i)
		}
		if m.Status == "" {
			m.Status = MilestonePending
		}
		if !m.Status.Valid() {
			return Project{}, fmt.Errorf("project %s: %w %q: unknown status %q", p.ID, ErrInvalidMilestone, m.Title, m.Status)
		}
		if m.ExpectedDate.IsZero() {
			return Project{}, fmt.Errorf("project %s: %w %q: missing expected date", p.ID, ErrInvalidMilestone, m.Title)
		}
		m.ExpectedDate = Day(m.ExpectedDate)
		if m.ActualDate != nil {
			actual := Day(*m.ActualDate)
			m.ActualDate = &actual
		}
		milestones = append(milestones, m)
	}
	p.Milestones = milestones

	if p.Responsible == nil {
		p.Responsible = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return p, nil
}

// DaysUntilDeadline returns expected end - today in days. ok is false once the
// project is done.
func (p Project) DaysUntilDeadline(today time.Time) (days int, ok bool) {
	if p.Status == StatusDone {
		return 0, false
	}
	return DaysBetween(today, p.ExpectedEndDate), true
}

// IsAtRisk reports whether the deadline is within AtRiskWindowDays or any
// milestone is overdue.
func (p Project) IsAtRisk(today time.Time) bool {
	if days, ok := p.DaysUntilDeadline(today); ok && days <= AtRiskWindowDays {
		return true
	}
	for _, m := range p.Milestones {
		if m.IsOverdue(today) {
			return true
		}
	}
	return false
}

// ProjectUpdate is a dated note about a project: a decision, a risk, a document.
type ProjectUpdate struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Timestamp   time.Time `json:"timestamp"`
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	URL         string    `json:"url,omitempty"`
}
