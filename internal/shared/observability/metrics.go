package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	OutlineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pyoutline_outline_seconds",
		Help:    "Time spent producing an outline, end to end.",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend"})

	OutlinesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyoutline_outlines_total",
		Help: "Total number of outline requests, by backend and result.",
	}, []string{"backend", "result"})

	SymbolsEmitted = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pyoutline_symbols_per_file",
		Help:    "Number of symbols emitted per outlined file.",
		Buckets: []float64{0, 5, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"backend"})

	ParseErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyoutline_parse_errors_total",
		Help: "Total number of files whose trees contained error nodes.",
	})

	WorkerRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyoutline_worker_runs_total",
		Help: "Total number of external analyzer invocations, by result.",
	}, []string{"result"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyoutline_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	GrammarCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pyoutline_grammar_cache_entries",
		Help: "Number of grammars currently held in the loader cache.",
	})

	SnapshotWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyoutline_snapshot_writes_total",
		Help: "Total number of history snapshots persisted.",
	})
)
