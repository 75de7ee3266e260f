package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/harun/toolpilot/pkg/toolexecutor"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry *prometheus.Registry

	// Run metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec

	// Step metrics
	StepsTotal   *prometheus.CounterVec
	StepDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics on a private registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolpilot_runs_total",
				Help: "Total number of agent runs by agent and outcome",
			},
			[]string{"agent", "outcome"},
		),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "toolpilot_run_duration_seconds",
				Help:    "Duration of agent runs in seconds, model request included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"agent"},
		),

		StepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolpilot_steps_total",
				Help: "Total number of plan steps by tool and status",
			},
			[]string{"tool", "status"},
		),
		StepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "toolpilot_step_duration_seconds",
				Help:    "Duration of executed plan steps in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
	}

	m.registerMetrics()

	return m
}

func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(m.RunsTotal)
	m.registry.MustRegister(m.RunDuration)
	m.registry.MustRegister(m.StepsTotal)
	m.registry.MustRegister(m.StepDuration)
}

// ObserveStep records one step; skipped steps are counted but not timed
func (m *Metrics) ObserveStep(tool string, status toolexecutor.StepStatus, duration time.Duration) {
	m.StepsTotal.WithLabelValues(tool, string(status)).Inc()
	if status != toolexecutor.StepSkipped {
		m.StepDuration.WithLabelValues(tool).Observe(duration.Seconds())
	}
}

// ObserveRun records one finished run
func (m *Metrics) ObserveRun(agent, outcome string, duration time.Duration) {
	m.RunsTotal.WithLabelValues(agent, outcome).Inc()
	m.RunDuration.WithLabelValues(agent).Observe(duration.Seconds())
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteToTextfile writes the current metrics in the Prometheus text format,
// as read by the node exporter textfile collector
func (m *Metrics) WriteToTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create metrics directory: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
