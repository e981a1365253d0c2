package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/project-deadline-monitor/internal/config"
	"github.com/ogulcanaydogan/project-deadline-monitor/internal/metrics"
	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/alerts"
	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/deadline"
	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/monitor"
	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/source"
	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/storage"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "pdm",
	Short: "Project Deadline Monitor - threshold alerts for project portfolios",
	Long: `Project Deadline Monitor evaluates a portfolio of projects and milestones
once a day and raises alerts when a deadline is a fixed number of days away or a
milestone has slipped. Alerts are grouped by project and sent to the configured
notifiers; reports are also available from the CLI and the HTTP API.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.pdm/config.yaml)")
}

// loadConfig loads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initStorage creates a storage backend from config.
func initStorage(cfg *config.Config) (storage.Storage, error) {
	return storage.NewSQLite(cfg.Storage.Path)
}

// initSource opens the configured portfolio source. The returned close
// function releases any database handle.
func initSource(cfg *config.Config, logger *slog.Logger) (monitor.Source, func() error, error) {
	if cfg.Source.Kind == config.SourceFile {
		return source.NewFile(cfg.Source.File, logger), func() error { return nil }, nil
	}
	store, err := storage.NewSQLite(cfg.Storage.Path)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

// initNotifiers creates alert notifiers from config.
func initNotifiers(cfg *config.Config) []alerts.Notifier {
	var notifiers []alerts.Notifier

	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alerts.NewWebhookNotifier(
			cfg.Alerts.Webhook.URL,
			cfg.Alerts.Webhook.Secret,
		))
	}

	return notifiers
}

// initMonitor creates a fully wired monitor. reg may be nil, in which case no
// metrics are recorded.
func initMonitor(cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*monitor.Monitor, func() error, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	src, closeSource, err := initSource(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	var m *metrics.Metrics
	if reg != nil {
		m = metrics.New(reg)
	}

	dispatcher := alerts.NewDispatcher(initNotifiers(cfg), cfg.Alerts.DashboardURL, logger)
	mon := monitor.New(src, deadline.NewChecker(cfg.DeadlineThresholds()), dispatcher, m, logger)
	mon.SetLocation(loc)

	return mon, closeSource, nil
}
