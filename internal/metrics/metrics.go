// Package metrics exposes Prometheus collectors for evaluation cycles.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/model"
)

// Metrics holds the collectors registered for one monitor instance.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	CycleRuns          *prometheus.CounterVec
	CycleDuration      prometheus.Histogram
	AlertsRaised       *prometheus.CounterVec
	ProjectsEvaluated  prometheus.Gauge
	ProjectsAtRisk     prometheus.Gauge
	NotificationsTotal *prometheus.CounterVec
	LastSuccess        prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CycleRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deadline_monitor_cycles_total",
				Help: "Total number of evaluation cycles",
			},
			[]string{"status"}, // status: success, failed
		),
		CycleDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "deadline_monitor_cycle_duration_seconds",
				Help:    "Evaluation cycle duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
			},
		),
		AlertsRaised: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deadline_monitor_alerts_total",
				Help: "Total number of alerts raised",
			},
			[]string{"type", "severity"},
		),
		ProjectsEvaluated: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "deadline_monitor_projects",
				Help: "Projects evaluated in the last cycle",
			},
		),
		ProjectsAtRisk: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "deadline_monitor_projects_at_risk",
				Help: "Projects at risk in the last cycle",
			},
		),
		NotificationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deadline_monitor_notifications_total",
				Help: "Alerts handed to notifiers",
			},
			[]string{"status"}, // status: sent, failed
		),
		LastSuccess: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "deadline_monitor_last_success_timestamp_seconds",
				Help: "Unix time of the last successful cycle",
			},
		),
	}
}

// RecordCycle records the outcome of one evaluation cycle. report may be nil
// when the cycle failed before evaluation.
func (m *Metrics) RecordCycle(report *model.Report, err error, duration time.Duration, finished time.Time) {
	if m == nil {
		return
	}
	m.CycleDuration.Observe(duration.Seconds())
	if err != nil {
		m.CycleRuns.WithLabelValues("failed").Inc()
		return
	}
	m.CycleRuns.WithLabelValues("success").Inc()
	m.LastSuccess.Set(float64(finished.Unix()))

	if report == nil {
		return
	}
	m.ProjectsEvaluated.Set(float64(report.TotalProjects))
	m.ProjectsAtRisk.Set(float64(report.ProjectsAtRisk))
	for _, a := range report.AllAlerts {
		m.AlertsRaised.WithLabelValues(string(a.Type), string(a.Severity)).Inc()
	}
}

// RecordDispatch counts delivered and failed alerts.
func (m *Metrics) RecordDispatch(sent, failed int) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues("sent").Add(float64(sent))
	m.NotificationsTotal.WithLabelValues("failed").Add(float64(failed))
}
