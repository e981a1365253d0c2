package monitor_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ogulcanaydogan/project-deadline-monitor/internal/metrics"
	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/alerts"
	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/deadline"
	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/model"
	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/monitor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	projects []model.Project
	err      error
	calls    atomic.Int32
}

func (s *stubSource) ListProjects(_ context.Context) ([]model.Project, error) {
	s.calls.Add(1)
	return s.projects, s.err
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []alerts.Notification
	err  error
}

func (r *recordingNotifier) Name() string { return "recording" }

func (r *recordingNotifier) Send(_ context.Context, n alerts.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return r.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func mustProject(t *testing.T, p model.Project) model.Project {
	t.Helper()
	built, err := model.NewProject(p)
	require.NoError(t, err)
	return built
}

// portfolio returns two projects relative to 2026-05-20: one due in exactly
// 30 days and one comfortably far away.
func portfolio(t *testing.T) []model.Project {
	return []model.Project{
		mustProject(t, model.Project{
			ID:              "P1",
			Name:            "Portal",
			Responsible:     []string{"team@example.org"},
			StartDate:       model.Date(2026, 1, 1),
			ExpectedEndDate: model.Date(2026, 6, 19),
		}),
		mustProject(t, model.Project{
			ID:              "P2",
			Name:            "Archive",
			StartDate:       model.Date(2026, 1, 1),
			ExpectedEndDate: model.Date(2027, 1, 1),
		}),
	}
}

func newMonitor(t *testing.T, src monitor.Source, notifiers []alerts.Notifier) (*monitor.Monitor, *metrics.Metrics) {
	t.Helper()
	logger := testLogger()
	m := metrics.New(prometheus.NewRegistry())
	mon := monitor.New(src,
		deadline.NewChecker(deadline.DefaultThresholds()),
		alerts.NewDispatcher(notifiers, "https://dash.example.org", logger),
		m, logger)
	mon.SetLocation(time.UTC)
	mon.SetClock(func() time.Time { return time.Date(2026, 5, 20, 8, 0, 0, 0, time.UTC) })
	return mon, m
}

func TestMonitor_RunOnce(t *testing.T) {
	src := &stubSource{projects: portfolio(t)}
	notifier := &recordingNotifier{}
	mon, m := newMonitor(t, src, []alerts.Notifier{notifier})

	result, err := mon.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2026-05-20", result.Date)
	assert.Equal(t, 2, result.Projects)
	assert.False(t, result.Skipped)
	require.NotNil(t, result.Report)
	require.Len(t, result.Report.AllAlerts, 1)
	assert.Equal(t, 30, result.Report.AllAlerts[0].Days)
	assert.Equal(t, 1, result.Dispatch.Sent)
	assert.Equal(t, 0, result.Dispatch.Failed)

	require.Len(t, notifier.sent, 1)
	n := notifier.sent[0]
	assert.Equal(t, "2026-05-20", n.GeneratedAt)
	assert.Equal(t, "https://dash.example.org", n.DashboardURL)
	require.Len(t, n.Projects, 1)
	assert.Equal(t, []string{"team@example.org"}, n.Projects[0].Responsible)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CycleRuns.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProjectsEvaluated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProjectsAtRisk))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlertsRaised.WithLabelValues("project_deadline", "medium")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("sent")))
}

func TestMonitor_RunOnce_UsesLocationForToday(t *testing.T) {
	src := &stubSource{projects: portfolio(t)}
	mon, _ := newMonitor(t, src, nil)

	// 23:30 UTC on the 19th is already the 20th in Istanbul.
	mon.SetLocation(time.FixedZone("TRT", 3*60*60))
	mon.SetClock(func() time.Time { return time.Date(2026, 5, 19, 23, 30, 0, 0, time.UTC) })

	result, err := mon.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-05-20", result.Date)
	assert.Len(t, result.Report.AllAlerts, 1)
}

func TestMonitor_RunOnce_NoProjects(t *testing.T) {
	notifier := &recordingNotifier{}
	mon, m := newMonitor(t, &stubSource{}, []alerts.Notifier{notifier})

	result, err := mon.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Nil(t, result.Report)
	assert.Empty(t, notifier.sent)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CycleRuns.WithLabelValues("success")))
}

func TestMonitor_RunOnce_NoAlertsSkipsDispatch(t *testing.T) {
	src := &stubSource{projects: portfolio(t)[1:]}
	notifier := &recordingNotifier{}
	mon, _ := newMonitor(t, src, []alerts.Notifier{notifier})

	result, err := mon.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Report.AllAlerts)
	assert.Empty(t, notifier.sent)
	assert.Equal(t, 0, result.Dispatch.Sent)
	assert.Equal(t, 0, result.Dispatch.Failed)
}

func TestMonitor_RunOnce_NotifierFailureKeepsReport(t *testing.T) {
	src := &stubSource{projects: portfolio(t)}
	notifier := &recordingNotifier{err: errors.New("connection refused")}
	mon, m := newMonitor(t, src, []alerts.Notifier{notifier})

	result, err := mon.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Report.AllAlerts, 1)
	assert.Equal(t, 1, result.Dispatch.Failed)
	require.Len(t, result.Dispatch.Errors, 1)
	assert.Contains(t, result.Dispatch.Errors[0], "connection refused")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("failed")))
}

func TestMonitor_RunOnce_SourceError(t *testing.T) {
	src := &stubSource{err: errors.New("disk gone")}
	mon, m := newMonitor(t, src, nil)

	_, err := mon.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CycleRuns.WithLabelValues("failed")))
}

func TestMonitor_Evaluate(t *testing.T) {
	src := &stubSource{projects: portfolio(t)}
	notifier := &recordingNotifier{}
	mon, _ := newMonitor(t, src, []alerts.Notifier{notifier})

	report, projects, err := mon.Evaluate(context.Background(), time.Date(2026, 5, 20, 17, 45, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, projects, 2)
	assert.Equal(t, "2026-05-20", report.GeneratedAt)
	assert.Len(t, report.AllAlerts, 1)
	assert.Empty(t, notifier.sent)
}

func TestMonitor_CheckProject(t *testing.T) {
	src := &stubSource{projects: portfolio(t)}
	mon, _ := newMonitor(t, src, nil)
	ctx := context.Background()
	today := model.Date(2026, 5, 20)

	found, err := mon.CheckProject(ctx, "P1", today)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	quiet, err := mon.CheckProject(ctx, "P2", today)
	require.NoError(t, err)
	assert.NotNil(t, quiet)
	assert.Empty(t, quiet)

	_, err = mon.CheckProject(ctx, "nope", today)
	assert.ErrorIs(t, err, monitor.ErrProjectNotFound)
}

func TestMonitor_NilMetricsAndDispatcher(t *testing.T) {
	src := &stubSource{projects: portfolio(t)}
	mon := monitor.New(src, deadline.NewChecker(deadline.DefaultThresholds()), nil, nil, testLogger())
	mon.SetClock(func() time.Time { return time.Date(2026, 5, 20, 8, 0, 0, 0, time.UTC) })
	mon.SetLocation(time.UTC)

	result, err := mon.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Report.AllAlerts, 1)
	assert.Equal(t, 0, result.Dispatch.Sent)
}
