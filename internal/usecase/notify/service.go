// Package notify fans scored articles out to ticker subscribers over email
// and push. Delivery is idempotent per (user, article, channel): a logged
// successful send is never repeated, so the dispatcher can run on a schedule
// without double-notifying anyone.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lyyw205/stock-news/internal/domain/entity"
	"github.com/lyyw205/stock-news/internal/infra/mailer"
	"github.com/lyyw205/stock-news/internal/infra/push"
	"github.com/lyyw205/stock-news/internal/observability/metrics"
	"github.com/lyyw205/stock-news/internal/repository"
)

const (
	// defaultEmailBatchSize bounds how many subscribers are emailed before
	// pausing, keeping bulk dispatch under provider rate limits.
	defaultEmailBatchSize = 20

	// defaultEmailBatchDelay is the pause between email batches.
	defaultEmailBatchDelay = time.Second
)

// Stats summarizes one dispatch run.
type Stats struct {
	Subscribers  int
	EmailsSent   int
	EmailsFailed int
	PushSent     int
	PushFailed   int
	Skipped      int // deliveries suppressed because they were already sent
}

// Service dispatches subscriber notifications for scored articles.
type Service struct {
	articleRepo      repository.ArticleRepository
	scoreRepo        repository.ScoreRepository
	subscriptionRepo repository.SubscriptionRepository
	notificationRepo repository.NotificationRepository
	mailer           mailer.Mailer
	push             push.Sender

	emailBatchSize  int
	emailBatchDelay time.Duration
	now             func() time.Time
}

// NewService creates a notification service.
func NewService(
	articleRepo repository.ArticleRepository,
	scoreRepo repository.ScoreRepository,
	subscriptionRepo repository.SubscriptionRepository,
	notificationRepo repository.NotificationRepository,
	m mailer.Mailer,
	p push.Sender,
) *Service {
	return &Service{
		articleRepo:      articleRepo,
		scoreRepo:        scoreRepo,
		subscriptionRepo: subscriptionRepo,
		notificationRepo: notificationRepo,
		mailer:           m,
		push:             p,
		emailBatchSize:   defaultEmailBatchSize,
		emailBatchDelay:  defaultEmailBatchDelay,
		now:              time.Now,
	}
}

// Dispatch notifies subscribers about articles scored within the window.
// Subscribers with several matching articles get one digest instead of one
// message per article. Individual delivery failures are logged and counted
// but never abort the run.
func (s *Service) Dispatch(ctx context.Context, window time.Duration, limit int) (*Stats, error) {
	since := s.now().Add(-window)
	items, err := s.scoreRepo.ListUsefulScoredSince(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list scored articles: %w", err)
	}

	stats := &Stats{}
	if len(items) == 0 {
		return stats, nil
	}

	tickers := uniqueTickers(items)
	subscribers, err := s.subscriptionRepo.ListSubscribersByTickers(ctx, tickers)
	if err != nil {
		return nil, fmt.Errorf("resolve subscribers: %w", err)
	}
	stats.Subscribers = len(subscribers)

	itemsByTicker := groupByTicker(items)

	for i, sub := range subscribers {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if i > 0 && s.emailBatchSize > 0 && i%s.emailBatchSize == 0 {
			if err := sleepContext(ctx, s.emailBatchDelay); err != nil {
				return stats, err
			}
		}
		s.notifyOne(ctx, sub, itemsByTicker, stats)
	}

	slog.Info("notification dispatch complete",
		slog.Int("articles", len(items)),
		slog.Int("subscribers", stats.Subscribers),
		slog.Int("emails_sent", stats.EmailsSent),
		slog.Int("emails_failed", stats.EmailsFailed),
		slog.Int("push_sent", stats.PushSent),
		slog.Int("push_failed", stats.PushFailed),
		slog.Int("skipped", stats.Skipped))

	return stats, nil
}

// SendImmediate notifies subscribers about one article right away, bypassing
// the scheduled window. Used for top-scored articles where timing matters.
func (s *Service) SendImmediate(ctx context.Context, articleID int64) (*Stats, error) {
	article, err := s.articleRepo.Get(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("load article: %w", err)
	}
	score, err := s.scoreRepo.GetByArticleID(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("load score: %w", err)
	}

	stats := &Stats{}
	if !article.HasTicker() {
		return stats, nil
	}

	subscribers, err := s.subscriptionRepo.ListSubscribersByTickers(ctx, []string{*article.Ticker})
	if err != nil {
		return nil, fmt.Errorf("resolve subscribers: %w", err)
	}
	stats.Subscribers = len(subscribers)

	items := []repository.ScoredArticle{{Article: article, Score: score}}
	itemsByTicker := groupByTicker(items)
	for _, sub := range subscribers {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		s.notifyOne(ctx, sub, itemsByTicker, stats)
	}
	return stats, nil
}

// notifyOne delivers to one subscriber on every channel they can receive.
func (s *Service) notifyOne(ctx context.Context, sub repository.SubscriberWithTickers, itemsByTicker map[string][]repository.ScoredArticle, stats *Stats) {
	relevant := relevantItems(sub.Tickers, itemsByTicker)
	if len(relevant) == 0 {
		return
	}

	s.deliverChannel(ctx, sub, relevant, entity.ChannelEmail, stats)
	if sub.Subscriber.HasDeviceToken() {
		s.deliverChannel(ctx, sub, relevant, entity.ChannelPush, stats)
	}
}

// deliverChannel sends one message covering the subscriber's unsent articles
// on one channel and logs the outcome per article.
func (s *Service) deliverChannel(ctx context.Context, sub repository.SubscriberWithTickers, items []repository.ScoredArticle, channel entity.NotificationChannel, stats *Stats) {
	unsent := make([]repository.ScoredArticle, 0, len(items))
	for _, item := range items {
		sent, err := s.notificationRepo.SentExists(ctx, sub.Subscriber.ID, item.Article.ID, channel)
		if err != nil {
			slog.Error("dedup check failed",
				slog.String("user_id", sub.Subscriber.ID),
				slog.Int64("article_id", item.Article.ID),
				slog.Any("error", err))
			continue
		}
		if sent {
			stats.Skipped++
			continue
		}
		unsent = append(unsent, item)
	}
	if len(unsent) == 0 {
		return
	}

	var msg Message
	if len(unsent) > 1 {
		msg = renderDigest(unsent)
	} else {
		msg = renderSingle(unsent[0], matchedTickers(unsent, sub.Tickers))
	}

	var sendErr error
	switch channel {
	case entity.ChannelEmail:
		sendErr = s.mailer.Send(ctx, sub.Subscriber.Email, msg.Subject, msg.HTMLBody, msg.TextBody)
	case entity.ChannelPush:
		sendErr = s.push.Send(ctx, *sub.Subscriber.DeviceToken, msg.Subject, msg.PushBody)
	}

	now := s.now()
	for _, item := range unsent {
		logEntry := &entity.NotificationLogEntry{
			UserID:    sub.Subscriber.ID,
			ArticleID: item.Article.ID,
			Channel:   channel,
			CreatedAt: now,
		}
		if sendErr == nil {
			logEntry.Status = entity.NotificationSent
			logEntry.SentAt = &now
		} else {
			logEntry.Status = entity.NotificationFailed
			logEntry.ErrorMessage = sendErr.Error()
		}
		if err := s.notificationRepo.Append(ctx, logEntry); err != nil {
			slog.Error("notification log write failed",
				slog.String("user_id", sub.Subscriber.ID),
				slog.Int64("article_id", item.Article.ID),
				slog.Any("error", err))
		}
	}

	metrics.RecordNotification(string(channel), sendErr == nil)
	switch {
	case sendErr == nil && channel == entity.ChannelEmail:
		stats.EmailsSent++
	case sendErr == nil && channel == entity.ChannelPush:
		stats.PushSent++
	case channel == entity.ChannelEmail:
		stats.EmailsFailed++
	default:
		stats.PushFailed++
	}
	if sendErr != nil {
		slog.Warn("notification delivery failed",
			slog.String("user_id", sub.Subscriber.ID),
			slog.String("channel", string(channel)),
			slog.Any("error", sendErr))
	}
}

func uniqueTickers(items []repository.ScoredArticle) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, item := range items {
		t := item.Article.TickerOrEmpty()
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func groupByTicker(items []repository.ScoredArticle) map[string][]repository.ScoredArticle {
	grouped := make(map[string][]repository.ScoredArticle)
	for _, item := range items {
		t := item.Article.TickerOrEmpty()
		if t == "" {
			continue
		}
		grouped[t] = append(grouped[t], item)
	}
	return grouped
}

// relevantItems collects the subscriber's articles across their tickers,
// deduplicated by article ID and in ticker order.
func relevantItems(tickers []string, itemsByTicker map[string][]repository.ScoredArticle) []repository.ScoredArticle {
	seen := make(map[int64]struct{})
	var out []repository.ScoredArticle
	for _, t := range tickers {
		for _, item := range itemsByTicker[t] {
			if _, ok := seen[item.Article.ID]; ok {
				continue
			}
			seen[item.Article.ID] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
