package repository

import (
	"context"
	"time"

	"github.com/lyyw205/stock-news/internal/domain/entity"
)

// ArticleRepository provides persistence operations for articles.
// Articles are append-only: they are inserted at ingestion and updated in
// place by deduplication and processing, never deleted.
type ArticleRepository interface {
	// Insert stores a newly ingested article and fills in its generated ID.
	Insert(ctx context.Context, article *entity.Article) error

	// Get retrieves an article by ID. Returns entity.ErrNotFound if absent.
	Get(ctx context.Context, id int64) (*entity.Article, error)

	// FindRecentByTicker returns unprocessed-or-processed articles with the
	// given ticker published at or after since, newest first. Used as the
	// candidate window for duplicate detection.
	FindRecentByTicker(ctx context.Context, ticker string, since time.Time) ([]*entity.Article, error)

	// UpdateSources persists a merge result: the article's source count and
	// contributing source URL list.
	UpdateSources(ctx context.Context, id int64, sourceCount int, sourceURLs []string) error

	// MarkProcessed flips the processing flag on an article.
	MarkProcessed(ctx context.Context, id int64) error

	// ListUnprocessed returns up to limit articles awaiting scoring, oldest first.
	ListUnprocessed(ctx context.Context, limit int) ([]*entity.Article, error)

	// ExistsByURL reports whether an article with the exact URL is stored.
	ExistsByURL(ctx context.Context, url string) (bool, error)
}
