package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	activityPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "feed_service",
		Subsystem: "persistence",
		Name:      "last_activity_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity persisted to Postgres.",
	})
	feedBuildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "feed_service",
		Subsystem: "feed",
		Name:      "build_duration_seconds",
		Help:      "Time spent grouping and aggregating one feed page.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	})
	feedGroupsBuilt = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "feed_service",
		Subsystem: "feed",
		Name:      "day_groups_built_total",
		Help:      "Number of day groups produced across all feed builds.",
	})
)

func init() {
	prometheus.MustRegister(activityPersistGauge, feedBuildDuration, feedGroupsBuilt)
}

// RecordActivityPersisted updates the persistence watermark gauge.
func RecordActivityPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	activityPersistGauge.Set(float64(ts.Unix()))
}

// RecordFeedBuild records the duration of one feed build and the number
// of day groups it produced.
func RecordFeedBuild(elapsed time.Duration, groups int) {
	feedBuildDuration.Observe(elapsed.Seconds())
	feedGroupsBuilt.Add(float64(groups))
}
