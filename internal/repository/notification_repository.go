package repository

import (
	"context"

	"github.com/lyyw205/stock-news/internal/domain/entity"
)

// NotificationRepository persists per-(user, article, channel) delivery logs.
type NotificationRepository interface {
	// Append stores one notification outcome and fills in its generated ID.
	Append(ctx context.Context, log *entity.NotificationLogEntry) error

	// SentExists reports whether a successful delivery is already logged for
	// the (user, article, channel) triple. Failed attempts do not count, so
	// they stay eligible for retry on the next run.
	SentExists(ctx context.Context, userID string, articleID int64, channel entity.NotificationChannel) (bool, error)
}
