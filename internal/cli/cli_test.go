package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/alerts"
	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/deadline"
	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/model"
	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/source"
	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/storage"
)

const testPortfolio = `
projects:
  - id: P1
    name: Portal
    responsible: team@example.org
    start_date: 2026-01-01
    expected_end_date: 2026-06-19
    milestones:
      - title: MVP
        expected_date: 2026-05-10
  - id: BAD
    name: Broken
    start_date: 2026-05-01
    expected_end_date: 2026-04-01
`

func writeTestConfig(t *testing.T) (cfgPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "monitor.db")
	cfgPath = filepath.Join(dir, "config.yaml")
	cfg := "storage:\n  path: " + dbPath + "\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return cfgPath, dbPath
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	return rootCmd.ExecuteContext(context.Background())
}

func TestProjectImportAndUpdate(t *testing.T) {
	cfgPath, dbPath := writeTestConfig(t)
	portfolio := filepath.Join(t.TempDir(), "portfolio.yaml")
	require.NoError(t, os.WriteFile(portfolio, []byte(testPortfolio), 0o644))

	require.NoError(t, execute(t, "--config", cfgPath, "project", "import", portfolio))
	require.NoError(t, execute(t, "--config", cfgPath, "update", "add", "P1", "--title", "Vendor selected", "--category", "decision"))
	assert.Error(t, execute(t, "--config", cfgPath, "update", "add", "nope", "--title", "x"))

	store, err := storage.NewSQLite(dbPath)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	projects, err := store.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "P1", projects[0].ID)
	assert.Equal(t, []string{"team@example.org"}, projects[0].Responsible)

	updates, err := store.ListUpdates(ctx, "P1")
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, "decision", updates[0].Category)

	exported := filepath.Join(t.TempDir(), "export.yaml")
	require.NoError(t, execute(t, "--config", cfgPath, "project", "export", exported))
	data, err := os.ReadFile(exported)
	require.NoError(t, err)
	roundTrip, skipped, err := source.Parse(data)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, roundTrip, 1)
	assert.Equal(t, projects[0].Milestones, roundTrip[0].Milestones)
}

func TestCheck_RejectsDispatchWithAsOf(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)
	err := execute(t, "--config", cfgPath, "check", "--dispatch", "--as-of", "2026-05-20")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--as-of")
	// Reset flag state shared through the package-level command.
	require.NoError(t, checkCmd.Flags().Set("dispatch", "false"))
	require.NoError(t, checkCmd.Flags().Set("as-of", ""))
}

func TestPrintReport(t *testing.T) {
	p, err := model.NewProject(model.Project{
		ID:              "P1",
		Name:            "Portal",
		StartDate:       model.Date(2026, 1, 1),
		ExpectedEndDate: model.Date(2026, 6, 19),
		Milestones:      []model.Milestone{{Title: "MVP", ExpectedDate: model.Date(2026, 5, 10)}},
	})
	require.NoError(t, err)

	report := deadline.NewChecker(deadline.DefaultThresholds()).
		BatchCheck([]model.Project{p}, model.Date(2026, 5, 20))

	var buf bytes.Buffer
	printReport(&buf, report)
	out := buf.String()

	assert.Contains(t, out, "Deadline Report (2026-05-20)")
	assert.Contains(t, out, "Projects at risk: 1")
	assert.Contains(t, out, "critical (1):")
	assert.Contains(t, out, "medium (1):")
	assert.Contains(t, out, "MILESTONE OVERDUE: 'MVP'")
	assert.NotContains(t, out, "high (")
}

func TestPrintDispatch(t *testing.T) {
	var buf bytes.Buffer
	printDispatch(&buf, alerts.DispatchResult{Sent: 2, Failed: 1, Errors: []string{"webhook: timeout"}})
	assert.Contains(t, buf.String(), "2 sent, 1 failed")
	assert.Contains(t, buf.String(), "error: webhook: timeout")
}

func TestDaysLabel(t *testing.T) {
	assert.Equal(t, "-", daysLabel(0, false))
	assert.Equal(t, "12", daysLabel(12, true))
	assert.Equal(t, "0", daysLabel(0, true))
	assert.Equal(t, "3 late", daysLabel(-3, true))
}
