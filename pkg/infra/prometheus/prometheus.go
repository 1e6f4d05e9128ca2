package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

var (
	// Classification runs in memory, so buckets are far below request latency.
	classificationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25}

	RequestsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "botgate_requests_total",
			Help: "Total number of requests processed",
		},
		[]string{"method", "status"},
	)

	DecisionsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "botgate_decisions_total",
			Help: "Access decisions by action and bot category",
		},
		[]string{"action", "category"},
	)

	ClassificationLatency = promauto.With(registerer).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "botgate_classification_latency_ms",
			Help:    "Time spent classifying a request and evaluating the policy",
			Buckets: classificationBuckets,
		},
	)

	TimingWindows = promauto.With(registerer).NewGauge(
		prometheus.GaugeOpts{
			Name: "botgate_timing_windows",
			Help: "Identities currently tracked by the behavioral cache",
		},
	)

	AuditDropped = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "botgate_audit_dropped_total",
			Help: "Audit records dropped because the queue was full",
		},
	)

	AuditSinkFailures = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "botgate_audit_sink_failures_total",
			Help: "Audit sink write failures",
		},
		[]string{"sink"},
	)
)

type MetricsConfig struct {
	EnableLatency bool
}

func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{EnableLatency: true}
}

var Config = DefaultMetricsConfig()

func Initialize(cfg MetricsConfig) {
	Config = cfg
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
}

func Gatherer() prometheus.Gatherer {
	return registry
}
