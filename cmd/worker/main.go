package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/lyyw205/stock-news/internal/infra/adapter/persistence/postgres"
	"github.com/lyyw205/stock-news/internal/infra/analyzer"
	"github.com/lyyw205/stock-news/internal/infra/db"
	"github.com/lyyw205/stock-news/internal/infra/mailer"
	"github.com/lyyw205/stock-news/internal/infra/push"
	"github.com/lyyw205/stock-news/internal/infra/social"
	workerPkg "github.com/lyyw205/stock-news/internal/infra/worker"
	"github.com/lyyw205/stock-news/internal/observability/logging"
	obsmetrics "github.com/lyyw205/stock-news/internal/observability/metrics"
	"github.com/lyyw205/stock-news/internal/resilience/circuitbreaker"
	"github.com/lyyw205/stock-news/internal/usecase/dedup"
	"github.com/lyyw205/stock-news/internal/usecase/notify"
	"github.com/lyyw205/stock-news/internal/usecase/pipeline"
	"github.com/lyyw205/stock-news/internal/usecase/publish"
	"github.com/lyyw205/stock-news/internal/usecase/scoring"
)

func main() {
	_ = godotenv.Load()

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	database, err := db.Open(logger)
	if err != nil {
		logger.Error("database connection failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	if err := db.MigrateUp(database); err != nil {
		logger.Error("migration failed", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	workerMetrics := workerPkg.NewMetrics()
	cfg := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	logger.Info("worker configuration loaded",
		slog.String("process_schedule", cfg.ProcessSchedule),
		slog.String("notify_schedule", cfg.NotifySchedule),
		slog.String("update_posts_schedule", cfg.UpdatePostsSchedule),
		slog.String("timezone", cfg.Timezone),
		slog.Duration("job_timeout", cfg.JobTimeout))

	pipelineSvc, notifySvc, publishSvc := buildServices(logger, database)

	startMetricsServer(ctx, logger, cfg.MetricsPort)
	go pollConnectionStats(ctx, database)

	healthServer := workerPkg.NewHealthServer(fmt.Sprintf(":%d", cfg.HealthPort), logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	if err := runScheduler(ctx, logger, cfg, workerMetrics, healthServer, pipelineSvc, notifySvc, publishSvc); err != nil {
		logger.Error("scheduler failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker stopped")
}

// buildServices wires the repositories, external adapters and usecase
// services. Missing platform or channel credentials degrade that surface to
// a no-op rather than keeping the worker down.
func buildServices(logger *slog.Logger, database *sql.DB) (*pipeline.Service, *notify.Service, *publish.Service) {
	handle := postgres.Instrument(circuitbreaker.NewDBCircuitBreaker(database))
	articleRepo := postgres.NewArticleRepo(handle)
	scoreRepo := postgres.NewScoreRepo(handle)
	publishRepo := postgres.NewPublishRepo(handle)
	subscriptionRepo := postgres.NewSubscriptionRepo(handle)
	notificationRepo := postgres.NewNotificationRepo(handle)

	publishers := social.LoadPublishers()
	logger.Info("social publishers loaded", slog.Int("count", len(publishers)))

	publishSvc := publish.NewService(articleRepo, scoreRepo, publishRepo, publishers)

	dedupSvc := dedup.NewService(articleRepo, publishRepo)
	scoringSvc := scoring.NewService(createAnalyzer(logger), articleRepo, scoreRepo)
	pipelineSvc := pipeline.NewService(dedupSvc, scoringSvc, publishSvc, articleRepo, scoreRepo)

	notifySvc := notify.NewService(
		articleRepo,
		scoreRepo,
		subscriptionRepo,
		notificationRepo,
		mailer.New(mailer.LoadConfig()),
		push.New(push.LoadConfig()),
	)

	return pipelineSvc, notifySvc, publishSvc
}

// pollConnectionStats publishes connection pool gauges every 30 seconds.
func pollConnectionStats(ctx context.Context, database *sql.DB) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := database.Stats()
			obsmetrics.UpdateDBConnectionStats(stats.InUse, stats.Idle)
		}
	}
}

// createAnalyzer picks the scoring backend from available credentials,
// preferring Claude. Without any key the pipeline runs on neutral fallback
// scores, which never auto-publish.
func createAnalyzer(logger *slog.Logger) analyzer.Analyzer {
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		a, err := analyzer.NewClaude(apiKey)
		if err != nil {
			logger.Error("failed to create Claude analyzer", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("using Claude for article analysis")
		return a
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		a, err := analyzer.NewOpenAI(apiKey)
		if err != nil {
			logger.Error("failed to create OpenAI analyzer", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("using OpenAI for article analysis")
		return a
	}
	logger.Warn("no analyzer credentials set, articles get fallback scores")
	return analyzer.NewNoop()
}

// runScheduler registers the three cron jobs and blocks until the context is
// cancelled. Each job runs under its own timeout so a stuck run cannot block
// the next schedule indefinitely.
func runScheduler(
	ctx context.Context,
	logger *slog.Logger,
	cfg *workerPkg.Config,
	metrics *workerPkg.Metrics,
	healthServer *workerPkg.HealthServer,
	pipelineSvc *pipeline.Service,
	notifySvc *notify.Service,
	publishSvc *publish.Service,
) error {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	if _, err := c.AddFunc(cfg.ProcessSchedule, func() {
		runProcessJob(logger, pipelineSvc, cfg, metrics)
	}); err != nil {
		return fmt.Errorf("add process job: %w", err)
	}
	if _, err := c.AddFunc(cfg.NotifySchedule, func() {
		runNotifyJob(logger, notifySvc, cfg, metrics)
	}); err != nil {
		return fmt.Errorf("add notify job: %w", err)
	}
	if _, err := c.AddFunc(cfg.UpdatePostsSchedule, func() {
		runUpdatePostsJob(logger, publishSvc, cfg, metrics)
	}); err != nil {
		return fmt.Errorf("add update posts job: %w", err)
	}

	c.Start()
	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.String("process_schedule", cfg.ProcessSchedule),
		slog.String("notify_schedule", cfg.NotifySchedule),
		slog.String("update_posts_schedule", cfg.UpdatePostsSchedule))

	<-ctx.Done()

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		logger.Warn("cron jobs did not finish within shutdown deadline")
	}
	return nil
}

func runProcessJob(logger *slog.Logger, svc *pipeline.Service, cfg *workerPkg.Config, metrics *workerPkg.Metrics) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.JobTimeout)
	defer cancel()
	ctx = logging.WithDispatchID(ctx)
	log := logging.WithDispatchLogger(ctx, logger)

	log.Info("article processing started", slog.Int("limit", cfg.ProcessLimit))
	stats, err := svc.ProcessPending(ctx, cfg.ProcessLimit)
	metrics.RecordJobRun("process_articles", err, time.Since(start))
	if err != nil {
		log.Error("article processing failed", slog.Any("error", err))
		return
	}

	metrics.RecordArticlesProcessed(stats.Processed)
	log.Info("article processing completed",
		slog.Int("processed", stats.Processed),
		slog.Int("merged", stats.Merged),
		slog.Int("scored", stats.Scored),
		slog.Int("auto_published", stats.AutoPublished),
		slog.Int("failed", stats.Failed),
		slog.Duration("duration", time.Since(start)))
}

func runNotifyJob(logger *slog.Logger, svc *notify.Service, cfg *workerPkg.Config, metrics *workerPkg.Metrics) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.JobTimeout)
	defer cancel()
	ctx = logging.WithDispatchID(ctx)
	log := logging.WithDispatchLogger(ctx, logger)

	log.Info("notification dispatch started",
		slog.Duration("window", cfg.NotifyWindow),
		slog.Int("limit", cfg.NotifyLimit))
	stats, err := svc.Dispatch(ctx, cfg.NotifyWindow, cfg.NotifyLimit)
	metrics.RecordJobRun("dispatch_notifications", err, time.Since(start))
	if err != nil {
		log.Error("notification dispatch failed", slog.Any("error", err))
		return
	}

	metrics.RecordNotificationsSent(stats.EmailsSent, stats.PushSent)
	log.Info("notification dispatch completed",
		slog.Int("subscribers", stats.Subscribers),
		slog.Int("emails_sent", stats.EmailsSent),
		slog.Int("emails_failed", stats.EmailsFailed),
		slog.Int("push_sent", stats.PushSent),
		slog.Int("push_failed", stats.PushFailed),
		slog.Int("skipped", stats.Skipped),
		slog.Duration("duration", time.Since(start)))
}

func runUpdatePostsJob(logger *slog.Logger, svc *publish.Service, cfg *workerPkg.Config, metrics *workerPkg.Metrics) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.JobTimeout)
	defer cancel()
	ctx = logging.WithDispatchID(ctx)
	log := logging.WithDispatchLogger(ctx, logger)

	log.Info("post refresh started", slog.Int("limit", cfg.UpdatePostsLimit))
	updated, err := svc.UpdateOutdatedPosts(ctx, cfg.UpdatePostsLimit)
	metrics.RecordJobRun("update_posts", err, time.Since(start))
	if err != nil {
		log.Error("post refresh failed", slog.Any("error", err))
		return
	}

	metrics.RecordPostsRefreshed(updated)
	log.Info("post refresh completed",
		slog.Int("updated", updated),
		slog.Duration("duration", time.Since(start)))
}
