package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ClassifyRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "caprobe_classify_requests_total",
		Help: "Total number of classify requests",
	})
	ClassifyDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "caprobe_classify_duration_ms",
		Help:    "Classify request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
	ClassifyBadRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "caprobe_classify_bad_requests_total",
		Help: "Total number of classify requests with undecodable snapshots",
	})
	VerdictsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "caprobe_verdicts_total",
		Help: "Verdicts produced per technology",
	}, []string{"technology", "verdict"})
	CellsDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "caprobe_cells_dropped_total",
		Help: "Cell records dropped during partitioning (null, unknown technology, missing fields)",
	})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "caprobe_cache_hits_total",
		Help: "Report cache hits by tier",
	}, []string{"tier"})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "caprobe_cache_misses_total",
		Help: "Report cache misses",
	})
	DedupeSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "caprobe_dedupe_skipped_total",
		Help: "Submissions not recorded because an identical snapshot was seen recently",
	})
	HistoryWritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "caprobe_history_writes_total",
		Help: "History writes by status",
	}, []string{"status"})
	HealthChecksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "caprobe_health_checks_total",
		Help: "Health check count by check and status",
	}, []string{"check", "status"})
	PrunedRowsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "caprobe_pruned_rows_total",
		Help: "History runs removed by retention",
	})
)

func init() {
	prometheus.MustRegister(ClassifyRequestsTotal)
	prometheus.MustRegister(ClassifyDurationMs)
	prometheus.MustRegister(ClassifyBadRequestsTotal)
	prometheus.MustRegister(VerdictsTotal)
	prometheus.MustRegister(CellsDroppedTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(DedupeSkippedTotal)
	prometheus.MustRegister(HistoryWritesTotal)
	prometheus.MustRegister(HealthChecksTotal)
	prometheus.MustRegister(PrunedRowsTotal)
}

// 文档注释：返回 Prometheus 指标处理器，在主入口挂载到 <api>/metrics
func Handler() http.Handler { return promhttp.Handler() }
