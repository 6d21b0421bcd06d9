package splitter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	splits       *prometheus.CounterVec
	partsWritten prometheus.Counter
	partFailures prometheus.Counter
	duration     prometheus.Histogram
}

// newMetrics creates the splitter metrics. A nil registerer leaves them
// unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		splits: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "column_splitter",
			Name:      "splits_total",
			Help:      "Total number of split operations by outcome.",
		}, []string{"outcome"}),
		partsWritten: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "column_splitter",
			Name:      "parts_written_total",
			Help:      "Total number of partition files written and verified.",
		}),
		partFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "column_splitter",
			Name:      "part_failures_total",
			Help:      "Total number of partition files that failed to persist.",
		}),
		duration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: "column_splitter",
			Name:      "split_duration_seconds",
			Help:      "Time (in seconds) spent on a split operation.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
}
