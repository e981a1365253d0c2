package alerts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/model"
)

// DispatchResult counts delivered and failed alerts across all notifiers.
type DispatchResult struct {
	Sent   int      `json:"sent"`
	Failed int      `json:"failed"`
	Errors []string `json:"errors"`
}

// Dispatcher fans a report's alerts out to every configured notifier.
type Dispatcher struct {
	notifiers    []Notifier
	dashboardURL string
	logger       *slog.Logger
}

// NewDispatcher creates a dispatcher. dashboardURL is optional and is
// forwarded with every notification.
func NewDispatcher(notifiers []Notifier, dashboardURL string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		notifiers:    notifiers,
		dashboardURL: dashboardURL,
		logger:       logger,
	}
}

// Dispatch sends one consolidated notification per notifier. Failures are
// logged and counted; they never alter the report.
func (d *Dispatcher) Dispatch(ctx context.Context, report *model.Report, projects []model.Project) DispatchResult {
	result := DispatchResult{Errors: []string{}}
	if len(report.AllAlerts) == 0 {
		d.logger.Info("no alerts to send")
		return result
	}

	count := len(report.AllAlerts)
	if len(d.notifiers) == 0 {
		d.logger.Warn("no notifier configured, alerts not sent", "alerts", count)
		result.Failed = count
		result.Errors = append(result.Errors, "no notifier configured")
		return result
	}

	n := Group(report.GeneratedAt, report.AllAlerts, projects)
	n.DashboardURL = d.dashboardURL

	for _, notifier := range d.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			d.logger.Error("send notification failed",
				"notifier", notifier.Name(),
				"alerts", count,
				"error", err,
			)
			result.Failed += count
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", notifier.Name(), err))
			continue
		}
		d.logger.Info("notification sent", "notifier", notifier.Name(), "alerts", count, "projects", len(n.Projects))
		result.Sent += count
	}

	return result
}
