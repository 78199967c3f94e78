package social

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lyyw205/stock-news/internal/domain/entity"
	"github.com/lyyw205/stock-news/internal/utils/text"
)

// TwitterConfig contains configuration for the Twitter API v2 publisher.
type TwitterConfig struct {
	// BearerToken is the OAuth2 user-context bearer token.
	BearerToken string

	// Timeout is the HTTP request timeout for Twitter API calls.
	Timeout time.Duration

	// BaseURL overrides the API endpoint, used in tests.
	BaseURL string
}

// TwitterPublisher posts tweets via the v2 API. Tweets cannot be edited;
// content updates for an article always start a new dispatch elsewhere.
type TwitterPublisher struct {
	config      TwitterConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewTwitterPublisher creates a Twitter publisher.
// The limiter stays well under the v2 per-user posting quota.
func NewTwitterPublisher(config TwitterConfig) *TwitterPublisher {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.twitter.com"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	return &TwitterPublisher{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: NewRateLimiter(0.5, 1),
	}
}

// Platform implements Publisher.
func (t *TwitterPublisher) Platform() entity.Platform {
	return entity.PlatformTwitter
}

type tweetPayload struct {
	Text string `json:"text"`
}

type twitterErrorBody struct {
	Detail string `json:"detail"`
	Title  string `json:"title"`
}

// Publish implements Publisher.
func (t *TwitterPublisher) Publish(ctx context.Context, content string) (*Result, error) {
	if err := guardLength(t, content, text.CountRunes(content)); err != nil {
		return nil, err
	}
	if err := t.rateLimiter.Allow(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	resp, err := postJSON(ctx, t.httpClient, t.config.BaseURL+"/2/tweets",
		map[string]string{"Authorization": "Bearer " + t.config.BearerToken},
		tweetPayload{Text: content})
	if err != nil {
		return nil, err
	}
	if err := t.classify(resp); err != nil {
		return nil, err
	}

	slog.Info("twitter publish successful",
		slog.Int("content_length", text.CountRunes(content)))

	return &Result{Response: string(resp.body)}, nil
}

// classify adds the duplicate-tweet case on top of the generic mapping:
// Twitter rejects identical consecutive tweets with 403, which must not be
// treated as an auth failure.
func (t *TwitterPublisher) classify(resp *httpResult) error {
	if resp.status == http.StatusForbidden {
		var body twitterErrorBody
		if err := json.Unmarshal(resp.body, &body); err == nil && strings.Contains(strings.ToLower(body.Detail), "duplicate") {
			return &ClientError{
				StatusCode: resp.status,
				Code:       entity.ErrCodeDuplicatePost,
				Message:    fmt.Sprintf("twitter duplicate content: %s", body.Detail),
			}
		}
	}
	return classifyStatus("twitter", resp)
}
