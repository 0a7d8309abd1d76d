// pkg/ratdriver/timer_test.go
package ratdriver

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/ratdriver/internal/monitoring"
)

// fakeNow returns a clock that advances by step on every call.
func fakeNow(step time.Duration) func() time.Time {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func TestTimer(t *testing.T) {
	timer := &Timer{duration: -1, now: fakeNow(time.Second)}
	assert.Equal(t, time.Duration(-1), timer.Duration())

	timer.Stop()
	assert.Equal(t, time.Duration(-1), timer.Duration())

	timer.Start()
	assert.Equal(t, time.Duration(0), timer.Duration())
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 1, 0, time.UTC), timer.StartTime())

	timer.Stop()
	assert.Equal(t, time.Second, timer.Duration())

	assert.Equal(t, time.Duration(-1), NewTimer().Duration())
}

func TestClock(t *testing.T) {
	clock := &Clock{now: fakeNow(250 * time.Millisecond)}
	boom := errors.New("boom")

	first, err := clock.Measure("login", func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, "login", first.Name)
	assert.Equal(t, 250*time.Millisecond, first.Duration)
	assert.Empty(t, first.Error)

	_, err = clock.Measure("checkout", func() error { return boom })
	assert.ErrorIs(t, err, boom)

	timings := clock.Timings()
	require.Len(t, timings, 2)
	assert.Equal(t, "checkout", timings[1].Name)
	assert.Equal(t, "boom", timings[1].Error)
	assert.Equal(t, 500*time.Millisecond, clock.Total())

	clock.Reset()
	assert.Empty(t, clock.Timings())
	assert.Zero(t, clock.Total())
}

func TestClock_RecordExternalTimer(t *testing.T) {
	clock := NewClock()
	timer := &Timer{duration: -1, now: fakeNow(time.Minute)}
	timer.Start()
	timer.Stop()

	timing := clock.Record("report", timer, nil)
	assert.Equal(t, time.Minute, timing.Duration)
	assert.Equal(t, []Timing{timing}, clock.Timings())
}

func TestTimed(t *testing.T) {
	mm := monitoring.NewMetricsManager(monitoring.MetricsConfig{Namespace: "test"})
	_, r, _ := newTestDriver(t, WithMetrics(mm))
	clock := NewClock()

	err := r.Timed(clock, "open next", func() error {
		return r.NavigateToPage(baseURL + "next")
	})
	require.NoError(t, err)

	timings := clock.Timings()
	require.Len(t, timings, 1)
	assert.Equal(t, "open next", timings[0].Name)
	assert.GreaterOrEqual(t, timings[0].Duration, time.Duration(0))

	// One series for the navigation, one for the timed block.
	count, err := testutil.GatherAndCount(mm.Registry(), "test_driver_actions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
