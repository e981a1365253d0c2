package model_test

import (
	"testing"
	"time"

	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDay_TruncatesInOwnLocation(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	late := time.Date(2026, 3, 10, 23, 30, 0, 0, loc)

	day := model.Day(late)
	assert.Equal(t, model.Date(2026, 3, 10), day)
	assert.Equal(t, time.UTC, day.Location())
}

func TestDaysBetween(t *testing.T) {
	base := model.Date(2026, 3, 10)

	assert.Equal(t, 0, model.DaysBetween(base, base))
	assert.Equal(t, 7, model.DaysBetween(base, base.AddDate(0, 0, 7)))
	assert.Equal(t, -5, model.DaysBetween(base, base.AddDate(0, 0, -5)))
	assert.Equal(t, 365, model.DaysBetween(model.Date(2025, 1, 1), model.Date(2026, 1, 1)))
}

func TestDaysBetween_Centuries(t *testing.T) {
	asOf := model.Date(2026, 10, 18)

	assert.Equal(t, 172835, model.DaysBetween(asOf, model.Date(2500, 1, 1)))
	assert.Equal(t, -155884, model.DaysBetween(asOf, model.Date(1600, 1, 1)))
	assert.Equal(t, 365243, model.DaysBetween(model.Date(1500, 1, 1), model.Date(2500, 1, 1)))
}

func TestDaysBetween_IgnoresTimeOfDay(t *testing.T) {
	from := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	to := time.Date(2026, 3, 11, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, model.DaysBetween(from, to))
}

func TestParseDate(t *testing.T) {
	d, err := model.ParseDate("2026-04-01")
	require.NoError(t, err)
	assert.Equal(t, model.Date(2026, 4, 1), d)

	d, err = model.ParseDate("2026-04-01T15:04:05Z")
	require.NoError(t, err)
	assert.Equal(t, model.Date(2026, 4, 1), d)

	_, err = model.ParseDate("01/04/2026")
	assert.Error(t, err)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2026-12-31", model.FormatDate(time.Date(2026, 12, 31, 18, 0, 0, 0, time.UTC)))
}

func TestEnumValid(t *testing.T) {
	assert.True(t, model.StatusCancelled.Valid())
	assert.False(t, model.ProjectStatus("archived").Valid())
	assert.True(t, model.RiskCritical.Valid())
	assert.False(t, model.RiskLevel("extreme").Valid())
	assert.True(t, model.MilestoneLate.Valid())
	assert.False(t, model.MilestoneStatus("skipped").Valid())
	assert.True(t, model.SeverityMedium.Valid())
	assert.False(t, model.Severity("info").Valid())
	assert.True(t, model.AlertMilestoneOverdue.Valid())
	assert.False(t, model.AlertType("budget").Valid())
}
