// Package metrics provides Prometheus metrics for recorss.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "recorss"

var (
	// FeedPassTotal counts feed passes by outcome. stage is "" on success.
	FeedPassTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_pass_total",
			Help:      "Total number of feed passes",
		},
		[]string{"feed", "result", "stage"},
	)

	// FeedPassDuration measures one feed pass end to end.
	FeedPassDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_pass_duration_seconds",
			Help:      "Duration of feed passes in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"feed"},
	)

	// ItemsStoredTotal counts newly persisted items by verdict.
	ItemsStoredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_stored_total",
			Help:      "Total number of items persisted",
		},
		[]string{"feed", "verdict"},
	)

	// ItemsSkippedTotal counts entries dropped as already seen.
	ItemsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_skipped_total",
			Help:      "Total number of duplicate entries skipped",
		},
		[]string{"feed"},
	)

	// PassDuration measures a whole refresh pass over all feeds.
	PassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of refresh passes in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	// LastPassTimestamp is the unix time the last pass finished.
	LastPassTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_pass_timestamp_seconds",
			Help:      "Unix time of the last finished refresh pass",
		},
	)

	// FeedbackTotal counts labels set through the feedback endpoint.
	FeedbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_total",
			Help:      "Total number of user labels recorded",
		},
		[]string{"label"},
	)
)

// RecordFeedPass records the outcome of one feed pass.
func RecordFeedPass(feed, stage string, ok bool, duration float64) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	FeedPassTotal.WithLabelValues(feed, result, stage).Inc()
	FeedPassDuration.WithLabelValues(feed).Observe(duration)
}

// RecordItems records stored and skipped counts for a feed.
func RecordItems(feed string, positive, negative, skipped int) {
	ItemsStoredTotal.WithLabelValues(feed, "positive").Add(float64(positive))
	ItemsStoredTotal.WithLabelValues(feed, "negative").Add(float64(negative))
	ItemsSkippedTotal.WithLabelValues(feed).Add(float64(skipped))
}

// RecordPass records a finished refresh pass.
func RecordPass(duration float64, finishedAt int64) {
	PassDuration.Observe(duration)
	LastPassTimestamp.Set(float64(finishedAt))
}

// RecordFeedback records a user label.
func RecordFeedback(label string) {
	FeedbackTotal.WithLabelValues(label).Inc()
}
