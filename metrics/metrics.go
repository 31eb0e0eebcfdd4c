// Package metrics exports Prometheus metrics for ingestion and scheduling.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gleaner"

// Metrics holds every gleaner collector on its own registry. It satisfies the
// ingestion and scheduler Recorder interfaces.
type Metrics struct {
	registry *prometheus.Registry

	// Pipeline
	StageOutcomes *prometheus.CounterVec

	// Scheduler
	Ticks      *prometheus.CounterVec
	ActiveJobs prometheus.Gauge

	// Collectors
	Collections *prometheus.CounterVec
	HashIndex   prometheus.Gauge
}

// New creates the metrics on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		StageOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_outcomes_total",
			Help:      "Pipeline stage executions by stage and outcome",
		}, []string{"stage", "outcome"}),
		Ticks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_ticks_total",
			Help:      "Scheduled job ticks by outcome",
		}, []string{"outcome"}),
		ActiveJobs: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_active_jobs",
			Help:      "Number of live scheduled jobs",
		}),
		Collections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collections_total",
			Help:      "Collector runs by source and outcome",
		}, []string{"source", "outcome"}),
		HashIndex: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hash_index_size",
			Help:      "Number of content hashes accepted for storage",
		}),
	}
}

// RecordStage counts one pipeline stage outcome.
func (m *Metrics) RecordStage(stage, outcome string) {
	if outcome == "" {
		outcome = "none"
	}
	m.StageOutcomes.WithLabelValues(stage, outcome).Inc()
}

// RecordTick counts one scheduler tick.
func (m *Metrics) RecordTick(outcome string) {
	m.Ticks.WithLabelValues(outcome).Inc()
}

// SetActiveJobs sets the live job gauge.
func (m *Metrics) SetActiveJobs(n int) {
	m.ActiveJobs.Set(float64(n))
}

// RecordCollection counts one collector run.
func (m *Metrics) RecordCollection(source string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Collections.WithLabelValues(source, outcome).Inc()
}

// SetHashIndexSize sets the hash index gauge.
func (m *Metrics) SetHashIndexSize(n int) {
	m.HashIndex.Set(float64(n))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
