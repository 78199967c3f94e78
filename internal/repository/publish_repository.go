package repository

import (
	"context"
	"time"

	"github.com/lyyw205/stock-news/internal/domain/entity"
)

// PublishRepository provides persistence for dispatch posts and their
// per-platform log entries. Each record is written by exactly one logical
// step of the dispatcher, so no row is ever contended.
type PublishRepository interface {
	// CreatePost stores a new dispatch record in the processing state and
	// fills in its generated ID.
	CreatePost(ctx context.Context, post *entity.PublishPost) error

	// GetPost retrieves a dispatch record. Returns entity.ErrNotFound if absent.
	GetPost(ctx context.Context, id int64) (*entity.PublishPost, error)

	// CompletePost transitions a post to its terminal status with final counts.
	CompletePost(ctx context.Context, id int64, status entity.PostStatus, successCount, failureCount int, completedAt time.Time) error

	// AppendLog stores a new per-platform log entry in the pending state
	// and fills in its generated ID.
	AppendLog(ctx context.Context, log *entity.PublishLogEntry) error

	// UpdateLogRetry marks a log entry as retrying and records the attempt
	// count before the next delivery attempt.
	UpdateLogRetry(ctx context.Context, id int64, retryCount int) error

	// FinalizeLog writes the terminal outcome of a delivery onto its entry.
	FinalizeLog(ctx context.Context, log *entity.PublishLogEntry) error

	// ListLogsByPost returns all per-platform log entries for a post.
	ListLogsByPost(ctx context.Context, postID int64) ([]*entity.PublishLogEntry, error)

	// MarkNeedsUpdateByArticle flags every live post of an article as
	// needing a content update after a merge changed the article.
	MarkNeedsUpdateByArticle(ctx context.Context, articleID int64) error

	// ListNeedsUpdate returns up to limit posts flagged for update.
	ListNeedsUpdate(ctx context.Context, limit int) ([]*entity.PublishPost, error)

	// ClearNeedsUpdate resets the update flag once an update was dispatched.
	ClearNeedsUpdate(ctx context.Context, id int64) error
}
