package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics track article flow through the processing stages.
var (
	// ArticlesIngestedTotal counts articles admitted into the pipeline.
	ArticlesIngestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "articles_ingested_total",
			Help: "Total number of articles admitted into the pipeline",
		},
	)

	// ArticlesMergedTotal counts articles folded into an existing article
	// by near-duplicate detection.
	ArticlesMergedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "articles_merged_total",
			Help: "Total number of articles merged as near-duplicates",
		},
	)

	// ArticlesScoredTotal counts scoring outcomes by grade and fallback.
	ArticlesScoredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "articles_scored_total",
			Help: "Total number of articles scored, by grade band",
		},
		[]string{"grade", "fallback"},
	)

	// ScoreDistribution observes composite totals to expose the score shape.
	ScoreDistribution = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "article_score_distribution",
			Help:    "Distribution of composite article scores (1-100)",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	// AutoPublishTotal counts articles that crossed the auto-publish
	// threshold.
	AutoPublishTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auto_publish_total",
			Help: "Total number of articles auto-published to social platforms",
		},
	)
)

// Dispatch metrics track deliveries to external surfaces.
var (
	// SocialPublishTotal counts per-platform delivery outcomes.
	SocialPublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_publish_total",
			Help: "Total number of social platform deliveries by platform and status",
		},
		[]string{"platform", "status"},
	)

	// NotificationsTotal counts subscriber notification outcomes.
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Total number of subscriber notifications by channel and status",
		},
		[]string{"channel", "status"},
	)
)

// Database metrics track persistence performance.
var (
	// DBQueryDuration measures database query duration per operation.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsActive tracks active database connections.
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections.
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)
