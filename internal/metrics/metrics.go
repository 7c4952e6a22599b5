// Package metrics records audit outcomes for the node-exporter textfile
// collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"monori/internal/core"
)

// Recorder receives per-check and per-run measurements.
type Recorder interface {
	RecordVerdict(code string, status core.CheckStatus)
	RecordDuration(code string, d time.Duration)
	RecordRun(summary core.Summary, finished time.Time)
}

// NoOp discards everything.
type NoOp struct{}

func (NoOp) RecordVerdict(string, core.CheckStatus) {}
func (NoOp) RecordDuration(string, time.Duration) {}
func (NoOp) RecordRun(core.Summary, time.Time) {}

// Prometheus keeps the measurements in a private registry.
type Prometheus struct {
	registry *prometheus.Registry

	results  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	lastRun  prometheus.Gauge
	summary  *prometheus.GaugeVec
}

func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Prometheus{
		registry: reg,
		results: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "monori_check_results_total",
				Help: "Check verdicts by check code and status",
			},
			[]string{"code", "status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "monori_check_duration_seconds",
				Help:    "Check evaluation duration in seconds",
				Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30},
			},
			[]string{"code"},
		),
		lastRun: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "monori_last_run_timestamp_seconds",
				Help: "Unix time the last audit finished",
			},
		),
		summary: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "monori_last_run_results",
				Help: "Result count of the last audit by status",
			},
			[]string{"status"},
		),
	}
}

func (p *Prometheus) RecordVerdict(code string, status core.CheckStatus) {
	p.results.WithLabelValues(code, status.Name()).Inc()
}

func (p *Prometheus) RecordDuration(code string, d time.Duration) {
	p.duration.WithLabelValues(code).Observe(d.Seconds())
}

func (p *Prometheus) RecordRun(summary core.Summary, finished time.Time) {
	p.lastRun.Set(float64(finished.Unix()))
	for _, s := range core.Statuses() {
		p.summary.WithLabelValues(s.Name()).Set(float64(summary.Count(s)))
	}
}

// Gatherer exposes the registry.
func (p *Prometheus) Gatherer() prometheus.Gatherer {
	return p.registry
}

// WriteTextfile writes the registry in text exposition format to path,
// replacing it atomically.
func (p *Prometheus) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, p.registry)
}
