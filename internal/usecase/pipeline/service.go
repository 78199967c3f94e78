// Package pipeline chains the per-article processing stages: deduplication,
// AI scoring and the auto-publish decision. It is the unit of work the
// background worker runs for every ingested article.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lyyw205/stock-news/internal/domain/entity"
	"github.com/lyyw205/stock-news/internal/observability/metrics"
	"github.com/lyyw205/stock-news/internal/repository"
	"github.com/lyyw205/stock-news/internal/usecase/dedup"
	"github.com/lyyw205/stock-news/internal/usecase/publish"
	"github.com/lyyw205/stock-news/internal/usecase/scoring"
)

const (
	// batchSize bounds how many articles are processed concurrently before
	// the worker pauses, keeping AI API pressure steady.
	batchSize = 10

	// batchDelay is the pause between article batches.
	batchDelay = time.Second
)

// Stats summarizes one batch-processing run.
type Stats struct {
	Processed     int
	Merged        int
	Scored        int
	AutoPublished int
	Failed        int
}

// Service runs the article processing pipeline.
type Service struct {
	dedup       *dedup.Service
	scoring     *scoring.Service
	publish     *publish.Service
	articleRepo repository.ArticleRepository
	scoreRepo   repository.ScoreRepository
	now         func() time.Time
}

// NewService creates the pipeline over its stage services.
func NewService(
	d *dedup.Service,
	s *scoring.Service,
	p *publish.Service,
	articleRepo repository.ArticleRepository,
	scoreRepo repository.ScoreRepository,
) *Service {
	return &Service{
		dedup:       d,
		scoring:     s,
		publish:     p,
		articleRepo: articleRepo,
		scoreRepo:   scoreRepo,
		now:         time.Now,
	}
}

// Outcome describes what the pipeline did with one article.
type Outcome struct {
	Merged        bool
	Score         *entity.Score
	AutoPublished bool
}

// ProcessArticle runs one article through deduplication, scoring and the
// auto-publish decision. A merged duplicate stops after deduplication; it is
// never scored on its own. An auto-publish dispatch failure is absorbed so a
// platform outage cannot fail the article itself.
func (s *Service) ProcessArticle(ctx context.Context, article *entity.Article) (*Outcome, error) {
	metrics.RecordArticleIngested()

	mergeResult, err := s.dedup.Admit(ctx, article)
	if err != nil {
		return nil, fmt.Errorf("deduplicate: %w", err)
	}
	if mergeResult.Merged {
		return &Outcome{Merged: true}, nil
	}

	score, err := s.scoring.ScoreArticle(ctx, article)
	if err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}

	outcome := &Outcome{Score: score}
	if !scoring.ShouldAutoPublish(score) {
		return outcome, nil
	}

	if err := s.scoreRepo.MarkAutoPublished(ctx, article.ID, s.now()); err != nil {
		return nil, fmt.Errorf("mark auto published: %w", err)
	}
	outcome.AutoPublished = true
	metrics.RecordAutoPublish()

	if _, err := s.publish.Publish(ctx, article.ID, entity.AllPlatforms()); err != nil {
		slog.Warn("auto-publish dispatch failed",
			slog.Int64("article_id", article.ID),
			slog.Any("error", err))
	}
	return outcome, nil
}

// ProcessPending drains unprocessed articles in concurrent batches.
// Per-article failures are counted and logged; the run keeps going. The run
// stops early only when the context is cancelled.
func (s *Service) ProcessPending(ctx context.Context, limit int) (*Stats, error) {
	articles, err := s.articleRepo.ListUnprocessed(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed articles: %w", err)
	}

	stats := &Stats{}
	var mu sync.Mutex

	for start := 0; start < len(articles); start += batchSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if start > 0 {
			if err := sleepContext(ctx, batchDelay); err != nil {
				return stats, err
			}
		}

		end := start + batchSize
		if end > len(articles) {
			end = len(articles)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(batchSize)
		for _, article := range articles[start:end] {
			article := article
			g.Go(func() error {
				outcome, err := s.ProcessArticle(gctx, article)

				mu.Lock()
				defer mu.Unlock()
				stats.Processed++
				switch {
				case err != nil:
					stats.Failed++
					slog.Error("article processing failed",
						slog.Int64("article_id", article.ID),
						slog.Any("error", err))
				case outcome.Merged:
					stats.Merged++
				default:
					stats.Scored++
					if outcome.AutoPublished {
						stats.AutoPublished++
					}
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	if stats.Processed > 0 {
		slog.Info("pending articles processed",
			slog.Int("processed", stats.Processed),
			slog.Int("merged", stats.Merged),
			slog.Int("scored", stats.Scored),
			slog.Int("auto_published", stats.AutoPublished),
			slog.Int("failed", stats.Failed))
	}
	return stats, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
