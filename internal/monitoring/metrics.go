// internal/monitoring/metrics.go
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsManager records RatDriver activity on its own Prometheus registry.
// A nil *MetricsManager is valid and records nothing.
type MetricsManager struct {
	registry *prometheus.Registry

	// Helper actions
	actionsTotal   *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
	waitTimeouts   *prometheus.CounterVec

	// Driver sessions
	driverStarts        *prometheus.CounterVec
	driverStartDuration *prometheus.HistogramVec
	activeSessions      prometheus.Gauge

	// Scenario steps
	stepsTotal   *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec

	namespace string
	subsystem string
}

// MetricsConfig configuration for metrics
type MetricsConfig struct {
	Namespace       string            `json:"namespace"`
	Subsystem       string            `json:"subsystem"`
	Labels          map[string]string `json:"labels"`
	EnableGoMetrics bool              `json:"enable_go_metrics"`
}

// NewMetricsManager creates a new metrics manager
func NewMetricsManager(config MetricsConfig) *MetricsManager {
	if config.Namespace == "" {
		config.Namespace = "ratdriver"
	}
	if config.Subsystem == "" {
		config.Subsystem = "driver"
	}

	mm := &MetricsManager{
		registry:  prometheus.NewRegistry(),
		namespace: config.Namespace,
		subsystem: config.Subsystem,
	}
	mm.initializeMetrics(prometheus.Labels(config.Labels))

	if config.EnableGoMetrics {
		mm.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return mm
}

// initializeMetrics creates and registers all collectors
func (mm *MetricsManager) initializeMetrics(labels prometheus.Labels) {
	mm.actionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   mm.namespace,
			Subsystem:   mm.subsystem,
			Name:        "actions_total",
			Help:        "Total number of helper actions by outcome",
			ConstLabels: labels,
		},
		[]string{"action", "status"},
	)

	mm.actionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   mm.namespace,
			Subsystem:   mm.subsystem,
			Name:        "action_duration_seconds",
			Help:        "Helper action duration in seconds",
			Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			ConstLabels: labels,
		},
		[]string{"action"},
	)

	mm.waitTimeouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   mm.namespace,
			Subsystem:   mm.subsystem,
			Name:        "wait_timeouts_total",
			Help:        "Total number of waits that ran out of time",
			ConstLabels: labels,
		},
		[]string{"condition"},
	)

	mm.driverStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   mm.namespace,
			Subsystem:   mm.subsystem,
			Name:        "starts_total",
			Help:        "Total number of driver start attempts by mode and outcome",
			ConstLabels: labels,
		},
		[]string{"mode", "status"},
	)

	mm.driverStartDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   mm.namespace,
			Subsystem:   mm.subsystem,
			Name:        "start_duration_seconds",
			Help:        "Time taken to open a driver session",
			Buckets:     []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
			ConstLabels: labels,
		},
		[]string{"mode"},
	)

	mm.activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   mm.namespace,
			Subsystem:   mm.subsystem,
			Name:        "active_sessions",
			Help:        "Number of driver sessions currently open",
			ConstLabels: labels,
		},
	)

	mm.stepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   mm.namespace,
			Subsystem:   "scenario",
			Name:        "steps_total",
			Help:        "Total number of scenario steps by kind and outcome",
			ConstLabels: labels,
		},
		[]string{"step", "status"},
	)

	mm.stepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   mm.namespace,
			Subsystem:   "scenario",
			Name:        "step_duration_seconds",
			Help:        "Scenario step duration in seconds",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		},
		[]string{"step"},
	)

	mm.registry.MustRegister(
		mm.actionsTotal, mm.actionDuration, mm.waitTimeouts,
		mm.driverStarts, mm.driverStartDuration, mm.activeSessions,
		mm.stepsTotal, mm.stepDuration,
	)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// Helper action metrics
func (mm *MetricsManager) RecordAction(action string, duration time.Duration, err error) {
	if mm == nil {
		return
	}
	mm.actionsTotal.WithLabelValues(action, status(err)).Inc()
	mm.actionDuration.WithLabelValues(action).Observe(duration.Seconds())
}

func (mm *MetricsManager) RecordWaitTimeout(condition string) {
	if mm == nil {
		return
	}
	mm.waitTimeouts.WithLabelValues(condition).Inc()
}

// Driver metrics
func (mm *MetricsManager) RecordDriverStart(mode string, duration time.Duration, err error) {
	if mm == nil {
		return
	}
	mm.driverStarts.WithLabelValues(mode, status(err)).Inc()
	if err == nil {
		mm.driverStartDuration.WithLabelValues(mode).Observe(duration.Seconds())
	}
}

func (mm *MetricsManager) SessionOpened() {
	if mm == nil {
		return
	}
	mm.activeSessions.Inc()
}

func (mm *MetricsManager) SessionClosed() {
	if mm == nil {
		return
	}
	mm.activeSessions.Dec()
}

// Scenario metrics
func (mm *MetricsManager) RecordStep(step string, duration time.Duration, err error) {
	if mm == nil {
		return
	}
	mm.stepsTotal.WithLabelValues(step, status(err)).Inc()
	mm.stepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

// Registry exposes the private registry, mainly for tests
func (mm *MetricsManager) Registry() *prometheus.Registry {
	return mm.registry
}

// MetricsHandler returns an HTTP handler for the metrics endpoint
func (mm *MetricsManager) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(mm.registry, promhttp.HandlerOpts{})
}
