// # internal/shared/observability/metrics.go
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "didact_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "didact_analysis_seconds",
		Help:    "Time spent on high-level analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	FilesAnalyzedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "didact_files_analyzed_total",
		Help: "Total number of file analyses by outcome.",
	}, []string{"outcome"})

	CacheRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "didact_cache_requests_total",
		Help: "Total number of cache lookups by tier and result.",
	}, []string{"tier", "result"})

	CacheEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "didact_cache_evictions_total",
		Help: "Total number of entries evicted from the memory tier.",
	})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "didact_graph_nodes_total",
		Help: "Total number of nodes in the dependency graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "didact_graph_edges_total",
		Help: "Total number of edges in the dependency graph.",
	})

	GraphCycles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "didact_graph_cycles_total",
		Help: "Circular dependencies found in the latest codebase analysis.",
	})

	WorkersInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "didact_workers_in_flight",
		Help: "File analysis workers currently running.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "didact_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
