// Package worker provides the background worker's configuration, health
// endpoints and execution metrics. The worker runs three scheduled jobs:
// processing pending articles, dispatching subscriber notifications and
// refreshing outdated social posts.
package worker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/lyyw205/stock-news/internal/pkg/config"
)

// Config holds the worker's operational parameters. Every field has a safe
// default; loading is fail-open so a bad environment value degrades to the
// default instead of keeping the worker down.
type Config struct {
	// ProcessSchedule is the cron expression for the article processing job.
	ProcessSchedule string

	// NotifySchedule is the cron expression for the notification dispatch job.
	NotifySchedule string

	// UpdatePostsSchedule is the cron expression for the post refresh job.
	UpdatePostsSchedule string

	// Timezone is the IANA timezone the schedules are evaluated in.
	Timezone string

	// ProcessLimit caps articles handled per processing run.
	ProcessLimit int

	// NotifyWindow is how far back the notification job looks for scored
	// articles.
	NotifyWindow time.Duration

	// NotifyLimit caps articles per notification run.
	NotifyLimit int

	// UpdatePostsLimit caps posts refreshed per update run.
	UpdatePostsLimit int

	// JobTimeout bounds one job execution.
	JobTimeout time.Duration

	// HealthPort serves the liveness/readiness endpoints.
	HealthPort int

	// MetricsPort serves the Prometheus /metrics endpoint.
	MetricsPort int
}

// DefaultConfig returns production defaults: frequent article processing,
// notification dispatch on a wider cadence, post refresh behind both.
func DefaultConfig() Config {
	return Config{
		ProcessSchedule:     "*/5 * * * *",
		NotifySchedule:      "*/10 * * * *",
		UpdatePostsSchedule: "*/15 * * * *",
		Timezone:            "Asia/Seoul",
		ProcessLimit:        50,
		NotifyWindow:        time.Hour,
		NotifyLimit:         100,
		UpdatePostsLimit:    20,
		JobTimeout:          10 * time.Minute,
		HealthPort:          9091,
		MetricsPort:         9090,
	}
}

// Validate checks every field and aggregates all failures.
func (c *Config) Validate() error {
	var errs []error

	for field, schedule := range map[string]string{
		"process schedule":      c.ProcessSchedule,
		"notify schedule":       c.NotifySchedule,
		"update posts schedule": c.UpdatePostsSchedule,
	} {
		if err := config.ValidateCronSchedule(schedule); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateIntRange(c.ProcessLimit, 1, 1000); err != nil {
		errs = append(errs, fmt.Errorf("process limit: %w", err))
	}
	if err := config.ValidateDuration(c.NotifyWindow, time.Minute, 24*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("notify window: %w", err))
	}
	if err := config.ValidateIntRange(c.NotifyLimit, 1, 1000); err != nil {
		errs = append(errs, fmt.Errorf("notify limit: %w", err))
	}
	if err := config.ValidateIntRange(c.UpdatePostsLimit, 1, 200); err != nil {
		errs = append(errs, fmt.Errorf("update posts limit: %w", err))
	}
	if err := config.ValidateDuration(c.JobTimeout, time.Minute, 4*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("job timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv loads worker configuration from environment variables.
// Each field validates independently and falls back to its default on
// failure, recording the fallback in metrics and logging a warning. The
// returned config is always valid.
//
// Environment variables:
//   - PROCESS_SCHEDULE, NOTIFY_SCHEDULE, UPDATE_POSTS_SCHEDULE
//   - WORKER_TIMEZONE
//   - PROCESS_LIMIT, NOTIFY_LIMIT, UPDATE_POSTS_LIMIT
//   - NOTIFY_WINDOW, JOB_TIMEOUT
//   - WORKER_HEALTH_PORT, WORKER_METRICS_PORT
func LoadConfigFromEnv(logger *slog.Logger, metrics *Metrics) *Config {
	cfg := DefaultConfig()
	fallbackApplied := false

	loadString := func(envKey, field string, target *string, validator func(string) error) {
		result := config.LoadEnvWithFallback(envKey, *target, validator)
		*target = result.Value.(string)
		recordFallback(logger, metrics, field, result, &fallbackApplied)
	}
	loadInt := func(envKey, field string, target *int, min, max int) {
		result := config.LoadEnvInt(envKey, *target, func(v int) error {
			return config.ValidateIntRange(v, min, max)
		})
		*target = result.Value.(int)
		recordFallback(logger, metrics, field, result, &fallbackApplied)
	}
	loadDuration := func(envKey, field string, target *time.Duration, min, max time.Duration) {
		result := config.LoadEnvDuration(envKey, *target, func(d time.Duration) error {
			return config.ValidateDuration(d, min, max)
		})
		*target = result.Value.(time.Duration)
		recordFallback(logger, metrics, field, result, &fallbackApplied)
	}

	loadString("PROCESS_SCHEDULE", "process_schedule", &cfg.ProcessSchedule, config.ValidateCronSchedule)
	loadString("NOTIFY_SCHEDULE", "notify_schedule", &cfg.NotifySchedule, config.ValidateCronSchedule)
	loadString("UPDATE_POSTS_SCHEDULE", "update_posts_schedule", &cfg.UpdatePostsSchedule, config.ValidateCronSchedule)
	loadString("WORKER_TIMEZONE", "timezone", &cfg.Timezone, config.ValidateTimezone)
	loadInt("PROCESS_LIMIT", "process_limit", &cfg.ProcessLimit, 1, 1000)
	loadDuration("NOTIFY_WINDOW", "notify_window", &cfg.NotifyWindow, time.Minute, 24*time.Hour)
	loadInt("NOTIFY_LIMIT", "notify_limit", &cfg.NotifyLimit, 1, 1000)
	loadInt("UPDATE_POSTS_LIMIT", "update_posts_limit", &cfg.UpdatePostsLimit, 1, 200)
	loadDuration("JOB_TIMEOUT", "job_timeout", &cfg.JobTimeout, time.Minute, 4*time.Hour)
	loadInt("WORKER_HEALTH_PORT", "health_port", &cfg.HealthPort, 1024, 65535)
	loadInt("WORKER_METRICS_PORT", "metrics_port", &cfg.MetricsPort, 1024, 65535)

	metrics.SetFallbackActive(fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg
}

func recordFallback(logger *slog.Logger, metrics *Metrics, field string, result config.LoadResult, fallbackApplied *bool) {
	if !result.FallbackApplied {
		return
	}
	*fallbackApplied = true
	metrics.RecordValidationError(field)
	metrics.RecordFallback(field)
	for _, warning := range result.Warnings {
		logger.Warn("configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", warning))
	}
}
