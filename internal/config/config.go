package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/deadline"
	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/monitor"
)

// Source kinds.
const (
	SourceSQLite = "sqlite"
	SourceFile   = "file"
)

// Config holds all Project Deadline Monitor configuration.
type Config struct {
	Storage    StorageConfig    `mapstructure:"storage"`
	Source     SourceConfig     `mapstructure:"source"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
	Server     ServerConfig     `mapstructure:"server"`
	Alerts     AlertsConfig     `mapstructure:"alerts"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// StorageConfig defines database settings.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// SourceConfig selects where the portfolio is read from.
type SourceConfig struct {
	Kind string `mapstructure:"kind"`
	File string `mapstructure:"file"`
}

// ThresholdsConfig lists the day offsets at which alerts fire.
type ThresholdsConfig struct {
	ProjectDeadline []int `mapstructure:"project_deadline"`
	Milestone       []int `mapstructure:"milestone"`
}

// ScheduleConfig defines when the daily check runs.
type ScheduleConfig struct {
	At       string `mapstructure:"at"`
	Timezone string `mapstructure:"timezone"`
}

// ServerConfig defines HTTP API settings.
type ServerConfig struct {
	Listen       string `mapstructure:"listen"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// AlertsConfig defines alerting integrations.
type AlertsConfig struct {
	Webhook      WebhookConfig `mapstructure:"webhook"`
	DashboardURL string        `mapstructure:"dashboard_url"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Secret  string `mapstructure:"secret"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".pdm"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	home, _ := os.UserHomeDir()
	defaults := deadline.DefaultThresholds()
	v.SetDefault("storage.path", filepath.Join(home, ".pdm", "monitor.db"))
	v.SetDefault("source.kind", SourceSQLite)
	v.SetDefault("source.file", "")
	v.SetDefault("thresholds.project_deadline", defaults.ProjectDeadline)
	v.SetDefault("thresholds.milestone", defaults.Milestone)
	v.SetDefault("schedule.at", monitor.DefaultClock.String())
	v.SetDefault("schedule.timezone", "Local")
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("alerts.webhook.enabled", false)
	v.SetDefault("alerts.webhook.url", "")
	v.SetDefault("alerts.webhook.secret", "")
	v.SetDefault("alerts.dashboard_url", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Environment variables
	v.SetEnvPrefix("PDM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks values that cannot be expressed as defaults.
func (c *Config) Validate() error {
	var errs []error

	if err := c.DeadlineThresholds().Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.ScheduleClock(); err != nil {
		errs = append(errs, fmt.Errorf("schedule.at: %w", err))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("schedule.timezone: %w", err))
	}

	switch c.Source.Kind {
	case SourceSQLite:
	case SourceFile:
		if c.Source.File == "" {
			errs = append(errs, errors.New("source.file is required when source.kind is file"))
		}
	default:
		errs = append(errs, fmt.Errorf("source.kind: unknown kind %q", c.Source.Kind))
	}

	for key, value := range map[string]string{
		"server.read_timeout":  c.Server.ReadTimeout,
		"server.write_timeout": c.Server.WriteTimeout,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}

	if c.Alerts.Webhook.Enabled && c.Alerts.Webhook.URL == "" {
		errs = append(errs, errors.New("alerts.webhook.url is required when the webhook is enabled"))
	}
	if f := c.Logging.Format; f != "json" && f != "text" {
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", f))
	}

	return errors.Join(errs...)
}

// DeadlineThresholds returns the configured alert offsets.
func (c *Config) DeadlineThresholds() deadline.Thresholds {
	return deadline.Thresholds{
		ProjectDeadline: c.Thresholds.ProjectDeadline,
		Milestone:       c.Thresholds.Milestone,
	}
}

// ScheduleClock parses schedule.at.
func (c *Config) ScheduleClock() (monitor.Clock, error) {
	return monitor.ParseClock(c.Schedule.At)
}

// Location resolves schedule.timezone. An empty value means the local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Schedule.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Schedule.Timezone)
}
