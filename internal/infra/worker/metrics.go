package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lyyw205/stock-news/internal/pkg/config"
)

// Metrics tracks scheduled job execution. It embeds the shared config
// metrics and adds per-job run counters and durations. Jobs are labeled by
// name: "process_articles", "dispatch_notifications", "update_posts".
type Metrics struct {
	*config.ConfigMetrics

	// JobRunsTotal counts job runs by job name and status (success/failure).
	JobRunsTotal *prometheus.CounterVec

	// JobDurationSeconds measures job execution time per job.
	JobDurationSeconds *prometheus.HistogramVec

	// JobLastSuccessTimestamp records the last successful completion per job.
	JobLastSuccessTimestamp *prometheus.GaugeVec

	// ArticlesProcessedTotal counts articles handled by the processing job.
	ArticlesProcessedTotal prometheus.Counter

	// PostsRefreshedTotal counts social posts re-dispatched after a merge.
	PostsRefreshedTotal prometheus.Counter

	// NotificationsSentTotal counts subscriber deliveries by channel.
	NotificationsSentTotal *prometheus.CounterVec
}

// NewMetrics creates and registers the worker metric set.
func NewMetrics() *Metrics {
	return &Metrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		JobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_job_runs_total",
			Help: "Total number of scheduled job runs by job and status",
		}, []string{"job", "status"}),

		JobDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of scheduled job execution in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}, []string{"job"}),

		JobLastSuccessTimestamp: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "worker_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful run per job",
		}, []string{"job"}),

		ArticlesProcessedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_articles_processed_total",
			Help: "Total number of articles run through the processing pipeline",
		}),

		PostsRefreshedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_posts_refreshed_total",
			Help: "Total number of social posts re-dispatched after content updates",
		}),

		NotificationsSentTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_notifications_sent_total",
			Help: "Total number of subscriber notifications delivered by channel",
		}, []string{"channel"}),
	}
}

// RecordJobRun records one job execution with its duration.
func (m *Metrics) RecordJobRun(job string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.JobRunsTotal.WithLabelValues(job, status).Inc()
	m.JobDurationSeconds.WithLabelValues(job).Observe(duration.Seconds())
	if err == nil {
		m.JobLastSuccessTimestamp.WithLabelValues(job).SetToCurrentTime()
	}
}

// RecordArticlesProcessed adds to the processed-article counter.
func (m *Metrics) RecordArticlesProcessed(count int) {
	m.ArticlesProcessedTotal.Add(float64(count))
}

// RecordPostsRefreshed adds to the refreshed-post counter.
func (m *Metrics) RecordPostsRefreshed(count int) {
	m.PostsRefreshedTotal.Add(float64(count))
}

// RecordNotificationsSent adds channel deliveries from one dispatch run.
func (m *Metrics) RecordNotificationsSent(emails, pushes int) {
	m.NotificationsSentTotal.WithLabelValues("email").Add(float64(emails))
	m.NotificationsSentTotal.WithLabelValues("push").Add(float64(pushes))
}
