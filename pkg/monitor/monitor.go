// Package monitor drives evaluation cycles: it loads the portfolio, runs the
// deadline checker against a single reference date and hands any alerts to
// the dispatcher.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ogulcanaydogan/project-deadline-monitor/internal/metrics"
	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/alerts"
	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/deadline"
	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/model"
)

// ErrProjectNotFound is returned when a project ID is not in the portfolio.
var ErrProjectNotFound = errors.New("project not found")

// Source supplies the portfolio for a cycle.
type Source interface {
	ListProjects(ctx context.Context) ([]model.Project, error)
}

// RunResult describes one completed cycle.
type RunResult struct {
	Date     string                `json:"date"`
	Projects int                   `json:"projects"`
	Report   *model.Report         `json:"report,omitempty"`
	Dispatch alerts.DispatchResult `json:"dispatch"`
	Skipped  bool                  `json:"skipped"`
}

// Monitor is the main entry point for evaluating a portfolio.
type Monitor struct {
	source     Source
	checker    *deadline.Checker
	dispatcher *alerts.Dispatcher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	location   *time.Location
	now        func() time.Time
}

// New creates a monitor. dispatcher and m may be nil.
func New(src Source, checker *deadline.Checker, dispatcher *alerts.Dispatcher, m *metrics.Metrics, logger *slog.Logger) *Monitor {
	return &Monitor{
		source:     src,
		checker:    checker,
		dispatcher: dispatcher,
		metrics:    m,
		logger:     logger,
		location:   time.Local,
		now:        time.Now,
	}
}

// SetLocation sets the time zone used to decide which calendar day it is.
func (m *Monitor) SetLocation(loc *time.Location) {
	if loc != nil {
		m.location = loc
	}
}

// SetClock replaces the wall clock.
func (m *Monitor) SetClock(now func() time.Time) {
	m.now = now
}

// Today returns the current calendar date in the monitor's time zone.
func (m *Monitor) Today() time.Time {
	return model.Day(m.now().In(m.location))
}

// Thresholds returns the day offsets alerts fire at.
func (m *Monitor) Thresholds() deadline.Thresholds {
	return m.checker.Thresholds()
}

// Projects returns the current portfolio.
func (m *Monitor) Projects(ctx context.Context) ([]model.Project, error) {
	projects, err := m.source.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	return projects, nil
}

// Evaluate builds the report for the given day without dispatching.
func (m *Monitor) Evaluate(ctx context.Context, today time.Time) (*model.Report, []model.Project, error) {
	projects, err := m.Projects(ctx)
	if err != nil {
		return nil, nil, err
	}
	return m.checker.BatchCheck(projects, model.Day(today)), projects, nil
}

// CheckProject returns the alerts a single project raises on the given day.
func (m *Monitor) CheckProject(ctx context.Context, id string, today time.Time) ([]model.Alert, error) {
	projects, err := m.Projects(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		if p.ID == id {
			found := m.checker.CheckProject(p, model.Day(today))
			if found == nil {
				found = []model.Alert{}
			}
			return found, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
}

// RunOnce runs a full cycle for today: load, evaluate, dispatch. The date is
// read once and shared by every check in the cycle. An empty portfolio skips
// evaluation and a report without alerts skips dispatch.
func (m *Monitor) RunOnce(ctx context.Context) (RunResult, error) {
	start := m.now()
	today := model.Day(start.In(m.location))
	result := RunResult{
		Date:     model.FormatDate(today),
		Dispatch: alerts.DispatchResult{Errors: []string{}},
	}

	m.logger.Info("starting deadline check", "date", result.Date)

	projects, err := m.Projects(ctx)
	if err != nil {
		m.logger.Error("deadline check failed", "date", result.Date, "error", err)
		m.metrics.RecordCycle(nil, err, m.now().Sub(start), m.now())
		return result, err
	}

	if len(projects) == 0 {
		m.logger.Warn("no projects loaded, skipping evaluation", "date", result.Date)
		result.Skipped = true
		m.metrics.RecordCycle(&model.Report{}, nil, m.now().Sub(start), m.now())
		return result, nil
	}

	report := m.checker.BatchCheck(projects, today)
	result.Projects = len(projects)
	result.Report = report

	m.logger.Info("deadline check evaluated",
		"date", result.Date,
		"projects", report.TotalProjects,
		"at_risk", report.ProjectsAtRisk,
		"alerts", len(report.AllAlerts),
	)

	if len(report.AllAlerts) > 0 && m.dispatcher != nil {
		result.Dispatch = m.dispatcher.Dispatch(ctx, report, projects)
		m.metrics.RecordDispatch(result.Dispatch.Sent, result.Dispatch.Failed)
	}

	m.metrics.RecordCycle(report, nil, m.now().Sub(start), m.now())

	m.logger.Info("deadline check completed",
		"date", result.Date,
		"sent", result.Dispatch.Sent,
		"failed", result.Dispatch.Failed,
	)
	return result, nil
}
