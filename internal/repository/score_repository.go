package repository

import (
	"context"
	"time"

	"github.com/lyyw205/stock-news/internal/domain/entity"
)

// ScoredArticle pairs an article with its score for notification queries.
type ScoredArticle struct {
	Article *entity.Article
	Score   *entity.Score
}

// ScoreRepository provides persistence operations for article scores.
type ScoreRepository interface {
	// Upsert inserts or replaces the score owned by score.ArticleID.
	Upsert(ctx context.Context, score *entity.Score) error

	// GetByArticleID retrieves the score for an article.
	// Returns entity.ErrNotFound if the article has not been scored.
	GetByArticleID(ctx context.Context, articleID int64) (*entity.Score, error)

	// SetSummary stores the generated summary text for an article's score.
	SetSummary(ctx context.Context, articleID int64, summary string) error

	// MarkAutoPublished records that the auto-publish decision fired.
	MarkAutoPublished(ctx context.Context, articleID int64, at time.Time) error

	// MarkSocialPosted increments the social post counter and stamps the
	// posted time. The counter is monotonic; it is never decremented.
	MarkSocialPosted(ctx context.Context, articleID int64, at time.Time) error

	// ListUsefulScoredSince returns articles scored within the window that
	// carry a usable summary and a ticker, newest first, capped at limit.
	// This feeds the notification dispatcher.
	ListUsefulScoredSince(ctx context.Context, since time.Time, limit int) ([]ScoredArticle, error)
}
