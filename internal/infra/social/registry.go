package social

import (
	"log/slog"
	"os"

	"github.com/lyyw205/stock-news/internal/domain/entity"
)

// LoadPublishers builds the publisher set from environment credentials.
// Platforms without credentials are skipped with a warning, so a partial
// deployment publishes to the platforms it can reach instead of failing.
//
// Environment variables:
//   - TELEGRAM_BOT_TOKEN, TELEGRAM_CHAT_ID
//   - TWITTER_BEARER_TOKEN
//   - THREADS_ACCESS_TOKEN, THREADS_USER_ID
//   - TOSS_API_KEY, TOSS_COMMUNITY_ID
func LoadPublishers() []Publisher {
	var publishers []Publisher

	if token, chatID := os.Getenv("TELEGRAM_BOT_TOKEN"), os.Getenv("TELEGRAM_CHAT_ID"); token != "" && chatID != "" {
		publishers = append(publishers, NewTelegramPublisher(TelegramConfig{
			BotToken: token,
			ChatID:   chatID,
		}))
	} else {
		slog.Warn("telegram publisher disabled, credentials not set")
	}

	if token := os.Getenv("TWITTER_BEARER_TOKEN"); token != "" {
		publishers = append(publishers, NewTwitterPublisher(TwitterConfig{
			BearerToken: token,
		}))
	} else {
		slog.Warn("twitter publisher disabled, credentials not set")
	}

	if token, userID := os.Getenv("THREADS_ACCESS_TOKEN"), os.Getenv("THREADS_USER_ID"); token != "" && userID != "" {
		publishers = append(publishers, NewThreadsPublisher(ThreadsConfig{
			AccessToken: token,
			UserID:      userID,
		}))
	} else {
		slog.Warn("threads publisher disabled, credentials not set")
	}

	if key, communityID := os.Getenv("TOSS_API_KEY"), os.Getenv("TOSS_COMMUNITY_ID"); key != "" && communityID != "" {
		publishers = append(publishers, NewTossPublisher(TossConfig{
			APIKey:      key,
			CommunityID: communityID,
		}))
	} else {
		slog.Warn("toss publisher disabled, credentials not set")
	}

	return publishers
}

// PublishersByPlatform indexes a publisher list by platform.
func PublishersByPlatform(publishers []Publisher) map[entity.Platform]Publisher {
	byPlatform := make(map[entity.Platform]Publisher, len(publishers))
	for _, p := range publishers {
		byPlatform[p.Platform()] = p
	}
	return byPlatform
}
