// pkg/ratdriver/timer.go
package ratdriver

import (
	"sync"
	"time"
)

// Timer measures one span. Duration is -1 before Start and 0 until Stop.
type Timer struct {
	start    time.Time
	end      time.Time
	duration time.Duration
	now      func() time.Time
}

func NewTimer() *Timer {
	return &Timer{duration: -1, now: time.Now}
}

func (t *Timer) Start() {
	t.start = t.now()
	t.end = t.start
	t.duration = 0
}

func (t *Timer) Stop() {
	if t.duration < 0 {
		return
	}
	t.end = t.now()
	t.duration = t.end.Sub(t.start)
}

func (t *Timer) Duration() time.Duration { return t.duration }

func (t *Timer) StartTime() time.Time { return t.start }

// Timing is one named measurement.
type Timing struct {
	Name     string        `json:"name" yaml:"name"`
	Start    time.Time     `json:"start" yaml:"start"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Clock collects timings in the order they were recorded.
type Clock struct {
	mu      sync.Mutex
	timings []Timing
	now     func() time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Record appends a finished measurement.
func (c *Clock) Record(name string, t *Timer, err error) Timing {
	timing := Timing{Name: name, Start: t.StartTime(), Duration: t.Duration()}
	if err != nil {
		timing.Error = err.Error()
	}
	c.mu.Lock()
	c.timings = append(c.timings, timing)
	c.mu.Unlock()
	return timing
}

// Measure times fn and records it under name.
func (c *Clock) Measure(name string, fn func() error) (Timing, error) {
	t := &Timer{duration: -1, now: c.now}
	t.Start()
	err := fn()
	t.Stop()
	return c.Record(name, t, err), err
}

func (c *Clock) Timings() []Timing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Timing(nil), c.timings...)
}

// Total sums every recorded duration.
func (c *Clock) Total() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total time.Duration
	for _, t := range c.timings {
		total += t.Duration
	}
	return total
}

func (c *Clock) Reset() {
	c.mu.Lock()
	c.timings = nil
	c.mu.Unlock()
}

// Timed runs fn, records its duration on clock under name and reports it as
// a helper action.
func (r *RatDriver) Timed(clock *Clock, name string, fn func() error) error {
	timing, err := clock.Measure(name, fn)
	r.metrics.RecordAction("timed:"+name, timing.Duration, err)
	r.logger.WithFields(map[string]interface{}{
		"action":   name,
		"duration": timing.Duration.String(),
	}).Debug("timed")
	return err
}
