package postgres

import (
	"context"
	"fmt"

	"github.com/lyyw205/stock-news/internal/domain/entity"
	"github.com/lyyw205/stock-news/internal/repository"
)

type NotificationRepo struct {
	db Querier
}

func NewNotificationRepo(db Querier) repository.NotificationRepository {
	return &NotificationRepo{db: db}
}

func (repo *NotificationRepo) Append(ctx context.Context, log *entity.NotificationLogEntry) error {
	const query = `
INSERT INTO notification_logs
       (user_id, article_id, channel, status, error_message, sent_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		log.UserID, log.ArticleID, string(log.Channel), string(log.Status),
		log.ErrorMessage, log.SentAt, log.CreatedAt,
	).Scan(&log.ID)
	if err != nil {
		return fmt.Errorf("Append: %w", err)
	}
	return nil
}

func (repo *NotificationRepo) SentExists(ctx context.Context, userID string, articleID int64, channel entity.NotificationChannel) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM notification_logs
	WHERE user_id = $1
	  AND article_id = $2
	  AND channel = $3
	  AND status = $4
)`
	var existsFlag bool
	err := repo.db.QueryRowContext(ctx, query,
		userID, articleID, string(channel), string(entity.NotificationSent),
	).Scan(&existsFlag)
	if err != nil {
		return false, fmt.Errorf("SentExists: %w", err)
	}
	return existsFlag, nil
}
