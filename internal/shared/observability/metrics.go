package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "usagelens_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "usagelens_analysis_seconds",
		Help:    "Time spent on high-level analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	FilesAnalyzedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usagelens_files_analyzed_total",
		Help: "Total number of source files classified.",
	})

	FileErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "usagelens_file_errors_total",
		Help: "Total number of files that failed to analyze, by error code.",
	}, []string{"code"})

	PatternsDetectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "usagelens_patterns_detected_total",
		Help: "Total number of usage pattern records emitted, by pattern.",
	}, []string{"pattern"})

	ComponentsTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "usagelens_components_tracked",
		Help: "Number of distinct library components in the latest aggregate.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usagelens_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	ContentCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usagelens_content_cache_hits_total",
		Help: "Total number of watch-mode re-analyses skipped because content was unchanged.",
	})

	RepositoryClonesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "usagelens_repository_clones_total",
		Help: "Total number of repository clone attempts, by result.",
	}, []string{"result"})

	HistoryWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usagelens_history_writes_total",
		Help: "Total number of scan snapshots persisted.",
	})
)
