package social

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lyyw205/stock-news/internal/domain/entity"
	"github.com/lyyw205/stock-news/internal/utils/text"
)

// TelegramConfig contains configuration for the Telegram Bot API publisher.
type TelegramConfig struct {
	// BotToken is the bot token issued by BotFather.
	BotToken string

	// ChatID is the target channel or chat identifier.
	ChatID string

	// Timeout is the HTTP request timeout for Telegram API calls.
	Timeout time.Duration

	// BaseURL overrides the API endpoint, used in tests.
	BaseURL string
}

// TelegramPublisher posts to a Telegram channel via the Bot API.
type TelegramPublisher struct {
	config      TelegramConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewTelegramPublisher creates a Telegram publisher.
// The rate limiter follows the Bot API limit of ~1 message per second per chat.
func NewTelegramPublisher(config TelegramConfig) *TelegramPublisher {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.telegram.org"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	return &TelegramPublisher{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: NewRateLimiter(1.0, 1),
	}
}

// Platform implements Publisher.
func (t *TelegramPublisher) Platform() entity.Platform {
	return entity.PlatformTelegram
}

type telegramSendPayload struct {
	ChatID              string `json:"chat_id"`
	Text                string `json:"text"`
	DisableWebPreview   bool   `json:"disable_web_page_preview"`
	DisableNotification bool   `json:"disable_notification"`
}

// Publish implements Publisher.
func (t *TelegramPublisher) Publish(ctx context.Context, content string) (*Result, error) {
	if err := guardLength(t, content, text.CountRunes(content)); err != nil {
		return nil, err
	}
	if err := t.rateLimiter.Allow(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.config.BaseURL, t.config.BotToken)
	resp, err := postJSON(ctx, t.httpClient, url, nil, telegramSendPayload{
		ChatID:            t.config.ChatID,
		Text:              content,
		DisableWebPreview: false,
	})
	if err != nil {
		return nil, err
	}
	if err := classifyStatus("telegram", resp); err != nil {
		return nil, err
	}

	slog.Info("telegram publish successful",
		slog.String("chat_id", t.config.ChatID),
		slog.Int("content_length", text.CountRunes(content)))

	return &Result{Response: string(resp.body)}, nil
}
