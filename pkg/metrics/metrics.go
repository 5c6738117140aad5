// Package metrics defines the Prometheus collectors of a split build and
// exposes them through an HTTP handler or a node-exporter textfile.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for a build. Each instance owns
// its registry so repeated runs in one process do not collide.
type Metrics struct {
	Registry *prometheus.Registry

	CaptionsTagged      prometheus.Counter
	TaggerErrors        *prometheus.CounterVec
	TaggerLatency       prometheus.Histogram
	TagCacheHitsTotal   prometheus.Counter
	TagCacheMissesTotal prometheus.Counter
	PairsExtracted      prometheus.Counter
	DistinctPairs       prometheus.Gauge
	HeldoutPairs        prometheus.Gauge
	DominantPairs       prometheus.Gauge
	SplitItems          *prometheus.GaugeVec
	SwapsTotal          *prometheus.CounterVec
	StageDuration       *prometheus.HistogramVec
	SinkWritesTotal     *prometheus.CounterVec
	RunsTotal           *prometheus.CounterVec
	CircuitBreakerState *prometheus.GaugeVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		CaptionsTagged: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "compsplit_captions_tagged_total",
				Help: "Captions passed through the tagger.",
			},
		),
		TaggerErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "compsplit_tagger_errors_total",
				Help: "Tagger failures by tagger kind.",
			},
			[]string{"kind"},
		),
		TaggerLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "compsplit_tagger_latency_seconds",
				Help:    "Latency of a single tagger call.",
				Buckets: []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		TagCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "compsplit_tag_cache_hits_total",
				Help: "Tag results served from the Redis cache.",
			},
		),
		TagCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "compsplit_tag_cache_misses_total",
				Help: "Tag results computed because the cache had no entry.",
			},
		),
		PairsExtracted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "compsplit_pairs_extracted_total",
				Help: "Adjective-noun occurrences counted by the frequency pass.",
			},
		),
		DistinctPairs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "compsplit_distinct_pairs",
				Help: "Distinct adjective-noun pair keys in the corpus.",
			},
		),
		HeldoutPairs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "compsplit_heldout_pairs",
				Help: "Pairs withheld into test_unseen.",
			},
		),
		DominantPairs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "compsplit_dominant_pairs",
				Help: "Top-table pairs above the dominance percentile.",
			},
		),
		SplitItems: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "compsplit_split_items",
				Help: "Items per split (train, test_seen, test_unseen).",
			},
			[]string{"split"},
		),
		SwapsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "compsplit_swaps_total",
				Help: "Caption swap decisions by case.",
			},
			[]string{"case"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "compsplit_stage_duration_seconds",
				Help:    "Wall time of each build stage.",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120, 600},
			},
			[]string{"stage"},
		),
		SinkWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "compsplit_sink_writes_total",
				Help: "Result writes by sink and status.",
			},
			[]string{"sink", "status"},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "compsplit_runs_total",
				Help: "Completed builds by status.",
			},
			[]string{"status"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "compsplit_circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	m.Registry.MustRegister(
		m.CaptionsTagged,
		m.TaggerErrors,
		m.TaggerLatency,
		m.TagCacheHitsTotal,
		m.TagCacheMissesTotal,
		m.PairsExtracted,
		m.DistinctPairs,
		m.HeldoutPairs,
		m.DominantPairs,
		m.SplitItems,
		m.SwapsTotal,
		m.StageDuration,
		m.SinkWritesTotal,
		m.RunsTotal,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the current values in the text exposition format,
// for pickup by the node-exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
