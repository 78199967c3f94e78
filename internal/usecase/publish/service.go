// Package publish dispatches scored articles to social platforms and keeps
// an auditable per-platform delivery log for every dispatch.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lyyw205/stock-news/internal/domain/entity"
	"github.com/lyyw205/stock-news/internal/infra/social"
	"github.com/lyyw205/stock-news/internal/observability/metrics"
	"github.com/lyyw205/stock-news/internal/repository"
)

// ErrNoSummary is returned when dispatch is requested for an article whose
// score carries no usable summary text.
var ErrNoSummary = errors.New("article has no summary to publish")

// maxConcurrentPlatforms bounds the per-dispatch fan-out.
const maxConcurrentPlatforms = 4

// retryBaseDelay is the first wait between publish attempts when the
// platform did not dictate one via Retry-After; it doubles per attempt.
const retryBaseDelay = time.Second

// Service orchestrates one dispatch: format per platform, deliver
// concurrently, log every outcome and settle the aggregate post status.
type Service struct {
	articleRepo repository.ArticleRepository
	scoreRepo   repository.ScoreRepository
	publishRepo repository.PublishRepository
	publishers  map[entity.Platform]social.Publisher
	now         func() time.Time
}

// NewService creates a publish service over the given publisher set.
func NewService(
	articleRepo repository.ArticleRepository,
	scoreRepo repository.ScoreRepository,
	publishRepo repository.PublishRepository,
	publishers []social.Publisher,
) *Service {
	return &Service{
		articleRepo: articleRepo,
		scoreRepo:   scoreRepo,
		publishRepo: publishRepo,
		publishers:  social.PublishersByPlatform(publishers),
		now:         time.Now,
	}
}

// platformOutcome is the in-memory result of one platform delivery before it
// settles onto its log row.
type platformOutcome struct {
	platform   entity.Platform
	response   string
	retryCount int
	err        error
}

// Publish dispatches one article to the given platforms. Platforms fail
// independently: one platform's failure never aborts the others, and the
// post settles into completed, partial_failure or failed from the counts.
// The returned post reflects the terminal state.
func (s *Service) Publish(ctx context.Context, articleID int64, platforms []entity.Platform) (*entity.PublishPost, error) {
	article, err := s.articleRepo.Get(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("load article: %w", err)
	}
	score, err := s.scoreRepo.GetByArticleID(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("load score: %w", err)
	}
	if !score.HasSummary() {
		return nil, fmt.Errorf("article %d: %w", articleID, ErrNoSummary)
	}

	targets := make([]entity.Platform, 0, len(platforms))
	for _, p := range platforms {
		if !entity.ValidPlatform(p) {
			return nil, fmt.Errorf("platform %q: %w", p, entity.ErrInvalidInput)
		}
		targets = append(targets, p)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no platforms requested: %w", entity.ErrInvalidInput)
	}

	now := s.now()
	post := &entity.PublishPost{
		ArticleID: articleID,
		Platforms: targets,
		Status:    entity.PostStatusProcessing,
		CreatedAt: now,
	}
	if err := s.publishRepo.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	content := social.PostContent{
		Title:   article.Title,
		Summary: *score.Summary,
		URL:     article.URL,
		Ticker:  article.TickerOrEmpty(),
	}

	// One pending log row per platform before any delivery starts, so an
	// in-flight dispatch is visible in the audit trail.
	entries := make([]*entity.PublishLogEntry, len(targets))
	for i, platform := range targets {
		entry := &entity.PublishLogEntry{
			PostID:           post.ID,
			ArticleID:        articleID,
			Platform:         platform,
			Status:           entity.LogStatusPending,
			FormattedContent: social.FormatPost(platform, content),
			MaxRetries:       entity.DefaultMaxPublishRetries,
			CreatedAt:        s.now(),
		}
		if err := s.publishRepo.AppendLog(ctx, entry); err != nil {
			return nil, fmt.Errorf("append publish log: %w", err)
		}
		entries[i] = entry
	}

	outcomes := s.fanOut(ctx, entries)

	successCount, failureCount := 0, 0
	for i, outcome := range outcomes {
		s.settleLog(entries[i], outcome)
		if err := s.publishRepo.FinalizeLog(ctx, entries[i]); err != nil {
			return nil, fmt.Errorf("finalize publish log: %w", err)
		}
		metrics.RecordSocialPublish(string(outcome.platform), outcome.err == nil)
		if outcome.err == nil {
			successCount++
		} else {
			failureCount++
		}
	}

	status := entity.AggregatePostStatus(successCount, failureCount)
	completedAt := s.now()
	if err := s.publishRepo.CompletePost(ctx, post.ID, status, successCount, failureCount, completedAt); err != nil {
		return nil, fmt.Errorf("complete post: %w", err)
	}

	if successCount > 0 {
		if err := s.scoreRepo.MarkSocialPosted(ctx, articleID, completedAt); err != nil {
			return nil, fmt.Errorf("mark social posted: %w", err)
		}
	}

	post.Status = status
	post.SuccessCount = successCount
	post.FailureCount = failureCount
	post.CompletedAt = &completedAt

	slog.Info("dispatch settled",
		slog.Int64("post_id", post.ID),
		slog.Int64("article_id", articleID),
		slog.String("status", string(status)),
		slog.Int("success", successCount),
		slog.Int("failure", failureCount))

	return post, nil
}

// fanOut delivers to every platform concurrently and returns outcomes in the
// same order as entries. Errors are captured per slot, never propagated, so
// every platform gets its attempt.
func (s *Service) fanOut(ctx context.Context, entries []*entity.PublishLogEntry) []platformOutcome {
	outcomes := make([]platformOutcome, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPlatforms)
	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			outcomes[i] = s.deliverOne(gctx, entry)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// deliverOne delivers the entry's formatted content to its platform, retrying
// only transient failures up to the per-platform budget. Each retry is
// recorded on the log entry before the next attempt.
func (s *Service) deliverOne(ctx context.Context, entry *entity.PublishLogEntry) platformOutcome {
	outcome := platformOutcome{platform: entry.Platform}

	publisher, ok := s.publishers[entry.Platform]
	if !ok {
		outcome.err = fmt.Errorf("no publisher configured for %s", entry.Platform)
		return outcome
	}

	for attempt := 0; attempt <= entity.DefaultMaxPublishRetries; attempt++ {
		if attempt > 0 {
			outcome.retryCount = attempt
			if err := s.publishRepo.UpdateLogRetry(ctx, entry.ID, attempt); err != nil {
				slog.Warn("failed to record retry transition",
					slog.Int64("log_id", entry.ID),
					slog.Any("error", err))
			}
			if err := sleepContext(ctx, retryDelay(outcome.err, attempt)); err != nil {
				outcome.err = err
				return outcome
			}
		}

		result, err := publisher.Publish(ctx, entry.FormattedContent)
		if err == nil {
			outcome.response = result.Response
			outcome.err = nil
			return outcome
		}
		outcome.err = err

		if !social.Classify(err).Retryable() {
			return outcome
		}
		slog.Warn("platform delivery failed, will retry",
			slog.String("platform", string(entry.Platform)),
			slog.Int("attempt", attempt+1),
			slog.Any("error", err))
	}
	return outcome
}

// settleLog moves a pending log entry to its terminal state.
func (s *Service) settleLog(log *entity.PublishLogEntry, outcome platformOutcome) {
	now := s.now()
	log.RetryCount = outcome.retryCount
	if outcome.err == nil {
		log.Status = entity.LogStatusSent
		log.Response = outcome.response
		log.SentAt = &now
		return
	}
	log.Status = entity.LogStatusFailed
	log.ErrorCode = social.Classify(outcome.err)
	log.ErrorMessage = outcome.err.Error()
	log.FailedAt = &now
}

// retryDelay picks the wait before the next attempt. A rate limited platform
// dictates its own wait; everything else backs off exponentially from the
// base delay (1s, 2s, 4s for attempts 1..3).
func retryDelay(err error, attempt int) time.Duration {
	var rateLimitErr *social.RateLimitError
	if errors.As(err, &rateLimitErr) && rateLimitErr.RetryAfter > 0 {
		return rateLimitErr.RetryAfter
	}
	return retryBaseDelay << (attempt - 1)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// PostDetail pairs a post with its per-platform delivery logs.
type PostDetail struct {
	Post *entity.PublishPost
	Logs []*entity.PublishLogEntry
}

// Status returns one dispatch with all its per-platform logs.
func (s *Service) Status(ctx context.Context, postID int64) (*PostDetail, error) {
	post, err := s.publishRepo.GetPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("load post: %w", err)
	}
	logs, err := s.publishRepo.ListLogsByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("load post logs: %w", err)
	}
	return &PostDetail{Post: post, Logs: logs}, nil
}

// UpdateOutdatedPosts re-dispatches posts whose article content changed after
// publishing. History is immutable: the refresh is a new dispatch with the
// merged content, limited to platforms that allow replacing published
// content. Returns the number of posts refreshed.
func (s *Service) UpdateOutdatedPosts(ctx context.Context, limit int) (int, error) {
	posts, err := s.publishRepo.ListNeedsUpdate(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list outdated posts: %w", err)
	}

	updated := 0
	for _, post := range posts {
		targets := editablePlatforms(post.Platforms)
		if len(targets) > 0 {
			if _, err := s.Publish(ctx, post.ArticleID, targets); err != nil {
				slog.Error("refresh dispatch failed",
					slog.Int64("post_id", post.ID),
					slog.Int64("article_id", post.ArticleID),
					slog.Any("error", err))
				continue
			}
			updated++
		}
		if err := s.publishRepo.ClearNeedsUpdate(ctx, post.ID); err != nil {
			return updated, fmt.Errorf("clear needs_update on post %d: %w", post.ID, err)
		}
	}
	return updated, nil
}

// editablePlatforms filters a platform set down to those whose published
// content can be superseded by a refresh.
func editablePlatforms(platforms []entity.Platform) []entity.Platform {
	var out []entity.Platform
	for _, p := range platforms {
		if social.SpecFor(p).SupportsEdit {
			out = append(out, p)
		}
	}
	return out
}
