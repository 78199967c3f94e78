package repository

import (
	"context"

	"github.com/lyyw205/stock-news/internal/domain/entity"
)

// SubscriberWithTickers pairs a subscriber with the subset of queried
// tickers they subscribe to.
type SubscriberWithTickers struct {
	Subscriber *entity.Subscriber
	Tickers    []string
}

// SubscriptionRepository reads subscriber data. Subscriptions themselves are
// managed by the user-facing surface; this core never writes them.
type SubscriptionRepository interface {
	// ListSubscribersByTickers resolves the union of subscribers across the
	// given tickers, each annotated with the tickers that matched.
	ListSubscribersByTickers(ctx context.Context, tickers []string) ([]SubscriberWithTickers, error)

	// CountByUser returns how many subscriptions a user holds.
	CountByUser(ctx context.Context, userID string) (int, error)
}
