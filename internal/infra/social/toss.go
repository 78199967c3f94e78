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

// TossConfig contains configuration for the Toss community publisher.
type TossConfig struct {
	// APIKey authenticates against the partner posting API.
	APIKey string

	// CommunityID is the target stock community board.
	CommunityID string

	// Timeout is the HTTP request timeout for Toss API calls.
	Timeout time.Duration

	// BaseURL overrides the API endpoint, used in tests.
	BaseURL string
}

// TossPublisher posts to a Toss securities community board.
type TossPublisher struct {
	config      TossConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewTossPublisher creates a Toss publisher.
func NewTossPublisher(config TossConfig) *TossPublisher {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.tossinvest.com/v1"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	return &TossPublisher{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: NewRateLimiter(1.0, 2),
	}
}

// Platform implements Publisher.
func (t *TossPublisher) Platform() entity.Platform {
	return entity.PlatformToss
}

type tossPostPayload struct {
	CommunityID string `json:"community_id"`
	Content     string `json:"content"`
}

// Publish implements Publisher.
func (t *TossPublisher) Publish(ctx context.Context, content string) (*Result, error) {
	if err := guardLength(t, content, text.CountRunes(content)); err != nil {
		return nil, err
	}
	if err := t.rateLimiter.Allow(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	resp, err := postJSON(ctx, t.httpClient, t.config.BaseURL+"/community/posts",
		map[string]string{"Authorization": "Bearer " + t.config.APIKey},
		tossPostPayload{CommunityID: t.config.CommunityID, Content: content})
	if err != nil {
		return nil, err
	}
	if err := classifyStatus("toss", resp); err != nil {
		return nil, err
	}

	slog.Info("toss publish successful",
		slog.String("community_id", t.config.CommunityID),
		slog.Int("content_length", text.CountRunes(content)))

	return &Result{Response: string(resp.body)}, nil
}
