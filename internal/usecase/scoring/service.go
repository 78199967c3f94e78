package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lyyw205/stock-news/internal/domain/entity"
	"github.com/lyyw205/stock-news/internal/infra/analyzer"
	"github.com/lyyw205/stock-news/internal/observability/metrics"
	"github.com/lyyw205/stock-news/internal/repository"
)

// Service scores articles through an AI analyzer and persists the result.
type Service struct {
	analyzer    analyzer.Analyzer
	articleRepo repository.ArticleRepository
	scoreRepo   repository.ScoreRepository
}

// NewService creates a scoring service.
func NewService(a analyzer.Analyzer, articleRepo repository.ArticleRepository, scoreRepo repository.ScoreRepository) *Service {
	return &Service{
		analyzer:    a,
		articleRepo: articleRepo,
		scoreRepo:   scoreRepo,
	}
}

// ScoreArticle analyzes one article, computes its composite total and
// persists the score. An analyzer failure is absorbed: the article gets the
// neutral fallback score instead and the error never propagates, so a model
// outage degrades the pipeline instead of stopping it. Repository errors do
// propagate.
func (s *Service) ScoreArticle(ctx context.Context, article *entity.Article) (*entity.Score, error) {
	now := time.Now()

	score := s.analyze(ctx, article)
	score.CreatedAt = now
	score.UpdatedAt = now

	if err := s.scoreRepo.Upsert(ctx, score); err != nil {
		return nil, fmt.Errorf("persist score: %w", err)
	}

	if score.HasSummary() {
		if err := s.scoreRepo.SetSummary(ctx, article.ID, *score.Summary); err != nil {
			return nil, fmt.Errorf("persist summary: %w", err)
		}
	}

	if err := s.articleRepo.MarkProcessed(ctx, article.ID); err != nil {
		return nil, fmt.Errorf("mark article processed: %w", err)
	}

	metrics.RecordArticleScored(string(GradeOf(score.Total)), score.Fallback, score.Total)
	slog.Info("article scored",
		slog.Int64("article_id", article.ID),
		slog.Int("total", score.Total),
		slog.String("grade", string(GradeOf(score.Total))),
		slog.Bool("fallback", score.Fallback))

	return score, nil
}

// analyze runs the model and converts the result, substituting the neutral
// fallback on any failure.
func (s *Service) analyze(ctx context.Context, article *entity.Article) *entity.Score {
	analysis, err := s.analyzer.Analyze(ctx, article.Title, article.Description)
	if err != nil {
		slog.Warn("analysis failed, substituting neutral fallback",
			slog.Int64("article_id", article.ID),
			slog.Any("error", err))
		return FallbackScore(article.ID)
	}

	score := &entity.Score{
		ArticleID: article.ID,
		Visual:    analysis.Visual,
		Hidden:    analysis.Hidden,
		Sentiment: analysis.Sentiment,
		Total:     ComputeTotal(analysis.Visual, analysis.Hidden, analysis.Sentiment),
		Reasoning: analysis.Reasoning,
	}
	if analysis.Summary != "" {
		summary := analysis.Summary
		score.Summary = &summary
	}
	return score
}
