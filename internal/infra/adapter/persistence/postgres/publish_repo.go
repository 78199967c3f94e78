package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/lyyw205/stock-news/internal/domain/entity"
	"github.com/lyyw205/stock-news/internal/repository"
)

type PublishRepo struct {
	db Querier
}

func NewPublishRepo(db Querier) repository.PublishRepository {
	return &PublishRepo{db: db}
}

func (repo *PublishRepo) CreatePost(ctx context.Context, post *entity.PublishPost) error {
	const query = `
INSERT INTO publish_posts
       (article_id, platforms, status, success_count, failure_count, needs_update, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`
	platforms := make([]string, len(post.Platforms))
	for i, p := range post.Platforms {
		platforms[i] = string(p)
	}
	err := repo.db.QueryRowContext(ctx, query,
		post.ArticleID, pq.Array(platforms), string(post.Status),
		post.SuccessCount, post.FailureCount, post.NeedsUpdate, post.CreatedAt,
	).Scan(&post.ID)
	if err != nil {
		return fmt.Errorf("CreatePost: %w", err)
	}
	return nil
}

func (repo *PublishRepo) GetPost(ctx context.Context, id int64) (*entity.PublishPost, error) {
	const query = `
SELECT id, article_id, platforms, status, success_count, failure_count, needs_update, created_at, completed_at
FROM publish_posts
WHERE id = $1
LIMIT 1`
	post, err := scanPost(repo.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetPost: %w", err)
	}
	return post, nil
}

func (repo *PublishRepo) CompletePost(ctx context.Context, id int64, status entity.PostStatus, successCount, failureCount int, completedAt time.Time) error {
	// Guarded on the processing state so a terminal post is never rewritten.
	const query = `
UPDATE publish_posts SET
       status        = $1,
       success_count = $2,
       failure_count = $3,
       completed_at  = $4
WHERE id = $5
  AND status = $6`
	res, err := repo.db.ExecContext(ctx, query,
		string(status), successCount, failureCount, completedAt,
		id, string(entity.PostStatusProcessing),
	)
	if err != nil {
		return fmt.Errorf("CompletePost: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("CompletePost: %w", entity.ErrInvalidTransition)
	}
	return nil
}

func (repo *PublishRepo) AppendLog(ctx context.Context, log *entity.PublishLogEntry) error {
	const query = `
INSERT INTO publish_logs
       (post_id, article_id, platform, status, formatted_content, response,
        error_code, error_message, retry_count, max_retries, created_at, sent_at, failed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		log.PostID, log.ArticleID, string(log.Platform), string(log.Status),
		log.FormattedContent, log.Response, string(log.ErrorCode), log.ErrorMessage,
		log.RetryCount, log.MaxRetries, log.CreatedAt, log.SentAt, log.FailedAt,
	).Scan(&log.ID)
	if err != nil {
		return fmt.Errorf("AppendLog: %w", err)
	}
	return nil
}

func (repo *PublishRepo) UpdateLogRetry(ctx context.Context, id int64, retryCount int) error {
	const query = `UPDATE publish_logs SET status = $2, retry_count = $3 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id, string(entity.LogStatusRetrying), retryCount)
	if err != nil {
		return fmt.Errorf("UpdateLogRetry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("UpdateLogRetry: %w", entity.ErrNotFound)
	}
	return nil
}

func (repo *PublishRepo) FinalizeLog(ctx context.Context, log *entity.PublishLogEntry) error {
	const query = `
UPDATE publish_logs SET
       status        = $1,
       response      = $2,
       error_code    = $3,
       error_message = $4,
       retry_count   = $5,
       sent_at       = $6,
       failed_at     = $7
WHERE id = $8`
	res, err := repo.db.ExecContext(ctx, query,
		string(log.Status), log.Response, string(log.ErrorCode), log.ErrorMessage,
		log.RetryCount, log.SentAt, log.FailedAt, log.ID,
	)
	if err != nil {
		return fmt.Errorf("FinalizeLog: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("FinalizeLog: %w", entity.ErrNotFound)
	}
	return nil
}

func (repo *PublishRepo) ListLogsByPost(ctx context.Context, postID int64) ([]*entity.PublishLogEntry, error) {
	const query = `
SELECT id, post_id, article_id, platform, status, formatted_content, response,
       error_code, error_message, retry_count, max_retries, created_at, sent_at, failed_at
FROM publish_logs
WHERE post_id = $1
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("ListLogsByPost: %w", err)
	}
	defer func() { _ = rows.Close() }()

	logs := make([]*entity.PublishLogEntry, 0, 4)
	for rows.Next() {
		var log entity.PublishLogEntry
		var platform, status, errorCode string
		if err := rows.Scan(&log.ID, &log.PostID, &log.ArticleID, &platform, &status,
			&log.FormattedContent, &log.Response, &errorCode, &log.ErrorMessage,
			&log.RetryCount, &log.MaxRetries, &log.CreatedAt, &log.SentAt, &log.FailedAt); err != nil {
			return nil, fmt.Errorf("ListLogsByPost: Scan: %w", err)
		}
		log.Platform = entity.Platform(platform)
		log.Status = entity.LogStatus(status)
		log.ErrorCode = entity.ErrorCode(errorCode)
		logs = append(logs, &log)
	}
	return logs, rows.Err()
}

func (repo *PublishRepo) MarkNeedsUpdateByArticle(ctx context.Context, articleID int64) error {
	// Only posts that actually reached a platform can show stale content.
	const query = `
UPDATE publish_posts SET needs_update = TRUE
WHERE article_id = $1
  AND success_count > 0`
	if _, err := repo.db.ExecContext(ctx, query, articleID); err != nil {
		return fmt.Errorf("MarkNeedsUpdateByArticle: %w", err)
	}
	return nil
}

func (repo *PublishRepo) ListNeedsUpdate(ctx context.Context, limit int) ([]*entity.PublishPost, error) {
	const query = `
SELECT id, article_id, platforms, status, success_count, failure_count, needs_update, created_at, completed_at
FROM publish_posts
WHERE needs_update = TRUE
ORDER BY created_at ASC
LIMIT $1`
	rows, err := repo.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ListNeedsUpdate: %w", err)
	}
	defer func() { _ = rows.Close() }()

	posts := make([]*entity.PublishPost, 0, limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("ListNeedsUpdate: Scan: %w", err)
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (repo *PublishRepo) ClearNeedsUpdate(ctx context.Context, id int64) error {
	const query = `UPDATE publish_posts SET needs_update = FALSE WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ClearNeedsUpdate: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("ClearNeedsUpdate: %w", entity.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*entity.PublishPost, error) {
	var post entity.PublishPost
	var platforms []string
	var status string
	if err := row.Scan(&post.ID, &post.ArticleID, pq.Array(&platforms), &status,
		&post.SuccessCount, &post.FailureCount, &post.NeedsUpdate,
		&post.CreatedAt, &post.CompletedAt); err != nil {
		return nil, err
	}
	post.Status = entity.PostStatus(status)
	post.Platforms = make([]entity.Platform, len(platforms))
	for i, p := range platforms {
		post.Platforms[i] = entity.Platform(p)
	}
	return &post, nil
}
