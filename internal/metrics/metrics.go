package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "festdir"

// Registry holds every festdir metric plus the Go runtime collectors.
var Registry = prometheus.NewRegistry()

// DatasetLoads counts dataset fetches by dataset ("festivals", "venues") and
// outcome ("ok", "error").
var DatasetLoads = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dataset_loads_total",
		Help:      "Dataset fetches by dataset and outcome",
	},
	[]string{"dataset", "outcome"},
)

// SkippedRecords counts records dropped while expanding a dataset.
var SkippedRecords = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "skipped_records_total",
		Help:      "Dataset records skipped because required fields were missing",
	},
	[]string{"dataset"},
)

// CalendarTruncated counts instances whose calendar span hit the day cap.
var CalendarTruncated = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calendar_truncated_total",
		Help:      "Instances whose calendar span was truncated by the per-instance day cap",
	},
)

// Sessions counts dataset sessions started (process start plus each refresh).
var Sessions = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_total",
		Help:      "Dataset sessions started",
	},
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
