package install

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSkipped   = "skipped"
	outcomeCompleted = "completed"
	outcomeFailed    = "failed"
)

// Metrics records the outcome of each step of a run in the node_exporter
// textfile collector format.
type Metrics struct {
	registry *prometheus.Registry
	duration *prometheus.GaugeVec
	outcome  *prometheus.GaugeVec
	lastRun  prometheus.Gauge

	mu sync.Mutex
}

// NewMetrics creates an empty metrics registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "bigdata",
			Subsystem: "install",
			Name:      "step_duration_seconds",
			Help:      "Wall time of the last execution of each install step.",
		}, []string{"step"}),
		outcome: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "bigdata",
			Subsystem: "install",
			Name:      "step_outcome",
			Help:      "Outcome of each install step during the last run (1 for the current outcome).",
		}, []string{"step", "outcome"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bigdata",
			Subsystem: "install",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last install run finished.",
		}),
	}
	m.registry.MustRegister(m.duration, m.outcome, m.lastRun)
	return m
}

func (m *Metrics) observe(step, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range []string{outcomeSkipped, outcomeCompleted, outcomeFailed} {
		v := 0.0
		if o == outcome {
			v = 1
		}
		m.outcome.WithLabelValues(step, o).Set(v)
	}
	if outcome != outcomeSkipped {
		m.duration.WithLabelValues(step).Set(took.Seconds())
	}
}

// Gather exposes the registry, for tests and the status command.
func (m *Metrics) Gather() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile stamps the finish time and writes the metrics to path.
func (m *Metrics) WriteTextfile(path string, finished time.Time) error {
	if m == nil {
		return nil
	}
	m.lastRun.Set(float64(finished.Unix()))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
