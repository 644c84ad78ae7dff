package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Command outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeSoftFail = "soft_fail"
	OutcomeError    = "error"
)

// Metrics provides Prometheus metrics for a quicksetup process.
// A nil *Metrics and a disabled instance are both valid no-ops.
type Metrics struct {
	config MetricsConfig

	// Run metrics
	runsCompleted *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec

	// Command metrics
	commandsExecuted *prometheus.CounterVec
	commandDuration  *prometheus.HistogramVec

	// Include metrics
	includes *prometheus.CounterVec

	// Parallel metrics
	parallelTasks       prometheus.Counter
	activeParallelTasks prometheus.Gauge

	// Template metrics
	templateMisses prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		runsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_completed_total",
				Help:      "Total number of runs completed",
			},
			[]string{"action", "status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of a whole run in seconds",
				Buckets:   buckets,
			},
			[]string{"action"},
		),

		commandsExecuted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_executed_total",
				Help:      "Total number of command nodes executed",
			},
			[]string{"tag", "outcome"},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "command_duration_seconds",
				Help:      "Duration of command node execution in seconds",
				Buckets:   buckets,
			},
			[]string{"tag"},
		),

		includes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "includes_total",
				Help:      "Include resolutions by result (rendered, skipped)",
			},
			[]string{"result"},
		),

		parallelTasks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "parallel_tasks_started_total",
				Help:      "Total number of parallel child tasks started",
			},
		),
		activeParallelTasks: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "parallel_tasks_active",
				Help:      "Current number of running parallel child tasks",
			},
		),

		templateMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "template_misses_total",
				Help:      "Placeholders left unresolved during template expansion",
			},
		),
	}

	registry.MustRegister(
		m.runsCompleted,
		m.runDuration,
		m.commandsExecuted,
		m.commandDuration,
		m.includes,
		m.parallelTasks,
		m.activeParallelTasks,
		m.templateMisses,
	)

	return m, nil
}

// RecordRunCompleted records a completed run with its status and duration.
func (m *Metrics) RecordRunCompleted(action, status string, duration time.Duration) {
	if m == nil || m.runsCompleted == nil {
		return
	}
	m.runsCompleted.WithLabelValues(action, status).Inc()
	m.runDuration.WithLabelValues(action).Observe(duration.Seconds())
}

// RecordCommand records the execution of one command node.
func (m *Metrics) RecordCommand(tag, outcome string, duration time.Duration) {
	if m == nil || m.commandsExecuted == nil {
		return
	}
	m.commandsExecuted.WithLabelValues(tag, outcome).Inc()
	m.commandDuration.WithLabelValues(tag).Observe(duration.Seconds())
}

// RecordInclude records an include that was rendered or skipped as a duplicate.
func (m *Metrics) RecordInclude(skipped bool) {
	if m == nil || m.includes == nil {
		return
	}
	result := "rendered"
	if skipped {
		result = "skipped"
	}
	m.includes.WithLabelValues(result).Inc()
}

// ParallelTaskStarted marks a parallel child task as running.
func (m *Metrics) ParallelTaskStarted() {
	if m == nil || m.parallelTasks == nil {
		return
	}
	m.parallelTasks.Inc()
	m.activeParallelTasks.Inc()
}

// ParallelTaskFinished marks a parallel child task as done.
func (m *Metrics) ParallelTaskFinished() {
	if m == nil || m.activeParallelTasks == nil {
		return
	}
	m.activeParallelTasks.Dec()
}

// RecordTemplateMiss counts an unresolved placeholder.
func (m *Metrics) RecordTemplateMiss() {
	if m == nil || m.templateMisses == nil {
		return
	}
	m.templateMisses.Inc()
}

// Registry exposes the private registry, nil when metrics are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// WriteTextfile writes all metrics to the configured textfile path.
// It is a no-op when metrics are disabled or no path is configured.
func (m *Metrics) WriteTextfile() error {
	if m == nil || m.registry == nil || m.config.TextfilePath == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(m.config.TextfilePath, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
