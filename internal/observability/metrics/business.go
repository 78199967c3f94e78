package metrics

import (
	"strconv"
	"time"
)

// RecordArticleIngested counts one article entering the pipeline.
func RecordArticleIngested() {
	ArticlesIngestedTotal.Inc()
}

// RecordArticleMerged counts one near-duplicate merge.
func RecordArticleMerged() {
	ArticlesMergedTotal.Inc()
}

// RecordArticleScored records one scoring outcome. Grade is the display band
// ("S" through "D"); fallback marks neutral-default substitutions.
func RecordArticleScored(grade string, fallback bool, total int) {
	ArticlesScoredTotal.WithLabelValues(grade, strconv.FormatBool(fallback)).Inc()
	ScoreDistribution.Observe(float64(total))
}

// RecordAutoPublish counts one article crossing the auto-publish threshold.
func RecordAutoPublish() {
	AutoPublishTotal.Inc()
}

// RecordSocialPublish records one platform delivery outcome.
// Status should be "sent" or "failed".
func RecordSocialPublish(platform string, success bool) {
	status := "sent"
	if !success {
		status = "failed"
	}
	SocialPublishTotal.WithLabelValues(platform, status).Inc()
}

// RecordNotification records one subscriber delivery outcome.
func RecordNotification(channel string, success bool) {
	status := "sent"
	if !success {
		status = "failed"
	}
	NotificationsTotal.WithLabelValues(channel, status).Inc()
}

// RecordDBQuery records the duration of one database operation, labeled by
// operation name ("insert_article", "list_unprocessed").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats publishes connection pool state.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
