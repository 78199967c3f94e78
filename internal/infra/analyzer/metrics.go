package analyzer

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AnalysisMetricsRecorder records analysis call outcomes per provider.
// The interface keeps the adapters testable without a live Prometheus
// registry and leaves room for other metrics backends.
type AnalysisMetricsRecorder interface {
	// RecordSuccess increments the success counter for a provider.
	RecordSuccess(provider string)

	// RecordFailure increments the failure counter for a provider.
	RecordFailure(provider string)

	// RecordDuration records the time taken by one analysis call.
	RecordDuration(provider string, duration time.Duration)
}

// PrometheusAnalysisMetrics implements AnalysisMetricsRecorder using
// Prometheus metrics.
type PrometheusAnalysisMetrics struct {
	successCounter    *prometheus.CounterVec
	failureCounter    *prometheus.CounterVec
	durationHistogram *prometheus.HistogramVec
}

var (
	analysisMetricsInstance *PrometheusAnalysisMetrics
	analysisMetricsOnce     sync.Once
)

// NewPrometheusAnalysisMetrics creates a Prometheus-based metrics recorder.
// Uses singleton pattern to avoid duplicate metric registration in tests.
func NewPrometheusAnalysisMetrics() *PrometheusAnalysisMetrics {
	analysisMetricsOnce.Do(func() {
		analysisMetricsInstance = &PrometheusAnalysisMetrics{
			successCounter: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "article_analysis_success_total",
				Help: "Total number of successful article analysis calls",
			}, []string{"provider"}),
			failureCounter: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "article_analysis_failure_total",
				Help: "Total number of failed article analysis calls",
			}, []string{"provider"}),
			durationHistogram: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "article_analysis_duration_seconds",
				Help:    "Time taken to analyze an article via AI API",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			}, []string{"provider"}),
		}
	})
	return analysisMetricsInstance
}

// RecordSuccess implements AnalysisMetricsRecorder.RecordSuccess
func (p *PrometheusAnalysisMetrics) RecordSuccess(provider string) {
	p.successCounter.WithLabelValues(provider).Inc()
}

// RecordFailure implements AnalysisMetricsRecorder.RecordFailure
func (p *PrometheusAnalysisMetrics) RecordFailure(provider string) {
	p.failureCounter.WithLabelValues(provider).Inc()
}

// RecordDuration implements AnalysisMetricsRecorder.RecordDuration
func (p *PrometheusAnalysisMetrics) RecordDuration(provider string, duration time.Duration) {
	p.durationHistogram.WithLabelValues(provider).Observe(duration.Seconds())
}
