package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/lyyw205/stock-news/internal/domain/entity"
	"github.com/lyyw205/stock-news/internal/repository"
)

type SubscriptionRepo struct {
	db Querier
}

func NewSubscriptionRepo(db Querier) repository.SubscriptionRepository {
	return &SubscriptionRepo{db: db}
}

// ListSubscribersByTickers resolves all subscribers of the given tickers in
// one query and groups the matched tickers per subscriber, avoiding an N+1
// lookup when the dispatcher fans out a batch of articles.
func (repo *SubscriptionRepo) ListSubscribersByTickers(ctx context.Context, tickers []string) ([]repository.SubscriberWithTickers, error) {
	if len(tickers) == 0 {
		return []repository.SubscriberWithTickers{}, nil
	}

	const query = `
SELECT u.id, u.email, u.device_token, s.ticker
FROM subscriptions s
INNER JOIN users u ON u.id = s.user_id
WHERE s.ticker = ANY($1)
ORDER BY u.id, s.ticker`
	rows, err := repo.db.QueryContext(ctx, query, pq.Array(tickers))
	if err != nil {
		return nil, fmt.Errorf("ListSubscribersByTickers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byUser := make(map[string]*repository.SubscriberWithTickers)
	order := make([]string, 0, 16)
	for rows.Next() {
		var id, email, ticker string
		var deviceToken *string
		if err := rows.Scan(&id, &email, &deviceToken, &ticker); err != nil {
			return nil, fmt.Errorf("ListSubscribersByTickers: Scan: %w", err)
		}
		sub, ok := byUser[id]
		if !ok {
			sub = &repository.SubscriberWithTickers{
				Subscriber: &entity.Subscriber{ID: id, Email: email, DeviceToken: deviceToken},
			}
			byUser[id] = sub
			order = append(order, id)
		}
		sub.Tickers = append(sub.Tickers, ticker)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListSubscribersByTickers: rows.Err: %w", err)
	}

	result := make([]repository.SubscriberWithTickers, 0, len(order))
	for _, id := range order {
		result = append(result, *byUser[id])
	}
	return result, nil
}

func (repo *SubscriptionRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM subscriptions WHERE user_id = $1`
	var count int
	if err := repo.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("CountByUser: %w", err)
	}
	return count, nil
}
