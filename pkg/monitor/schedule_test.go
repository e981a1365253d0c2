package monitor_test

import (
	"context"
	"testing"
	"time"

	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	c, err := monitor.ParseClock("08:00")
	require.NoError(t, err)
	assert.Equal(t, monitor.Clock{Hour: 8}, c)
	assert.Equal(t, "08:00", c.String())

	c, err = monitor.ParseClock("23:59")
	require.NoError(t, err)
	assert.Equal(t, monitor.Clock{Hour: 23, Minute: 59}, c)

	for _, bad := range []string{"", "8", "24:00", "12:60", "noon"} {
		_, err := monitor.ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestNextRun(t *testing.T) {
	at := monitor.Clock{Hour: 8}

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"before run time", time.Date(2026, 5, 20, 7, 0, 0, 0, time.UTC), time.Date(2026, 5, 20, 8, 0, 0, 0, time.UTC)},
		{"exactly at run time", time.Date(2026, 5, 20, 8, 0, 0, 0, time.UTC), time.Date(2026, 5, 21, 8, 0, 0, 0, time.UTC)},
		{"after run time", time.Date(2026, 5, 20, 9, 30, 0, 0, time.UTC), time.Date(2026, 5, 21, 8, 0, 0, 0, time.UTC)},
		{"month rollover", time.Date(2026, 5, 31, 12, 0, 0, 0, time.UTC), time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, monitor.NextRun(tt.now, at, time.UTC))
		})
	}
}

func TestNextRun_Location(t *testing.T) {
	loc := time.FixedZone("TRT", 3*60*60)
	now := time.Date(2026, 5, 20, 6, 0, 0, 0, time.UTC) // 09:00 local
	next := monitor.NextRun(now, monitor.Clock{Hour: 8}, loc)
	assert.True(t, next.Equal(time.Date(2026, 5, 21, 5, 0, 0, 0, time.UTC)))
}

func TestMonitor_Run(t *testing.T) {
	src := &stubSource{projects: portfolio(t)}
	mon, _ := newMonitor(t, src, nil)

	// The fake clock starts just before 08:00 and advances with real time.
	base := time.Date(2026, 5, 20, 7, 59, 59, 950_000_000, time.UTC)
	started := time.Now()
	mon.SetClock(func() time.Time { return base.Add(time.Since(started)) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mon.Run(ctx, monitor.Clock{Hour: 8}) }()

	require.Eventually(t, func() bool { return src.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, int32(1), src.calls.Load())
}
