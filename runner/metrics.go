// Copyright © 2024 The ELPS authors

package runner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts checked files and warnings. Each Metrics owns its
// registry so runs do not share counters.
type Metrics struct {
	Registry *prometheus.Registry

	files    *prometheus.CounterVec
	warnings *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics registers the runner metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		files: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pyrefcheck_files_total",
			Help: "Files processed, by outcome.",
		}, []string{"outcome"}),
		warnings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pyrefcheck_warnings_total",
			Help: "Warnings reported, by kind.",
		}, []string{"kind"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pyrefcheck_check_duration_seconds",
			Help:    "Time spent checking a single file.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
}

func (m *Metrics) observe(res Result) {
	if m == nil {
		return
	}
	m.files.WithLabelValues(res.Outcome.String()).Inc()
	for _, w := range res.Warnings {
		m.warnings.WithLabelValues(w.Kind()).Inc()
	}
	m.duration.Observe(res.Duration.Seconds())
}

// WriteTextfile writes the current values in the node exporter textfile
// format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
