package social

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lyyw205/stock-news/internal/domain/entity"
	"github.com/lyyw205/stock-news/internal/utils/text"
)

// ThreadsConfig contains configuration for the Threads Graph API publisher.
type ThreadsConfig struct {
	// AccessToken is the long-lived user access token.
	AccessToken string

	// UserID is the Threads user to publish as.
	UserID string

	// Timeout is the HTTP request timeout for Threads API calls.
	Timeout time.Duration

	// BaseURL overrides the API endpoint, used in tests.
	BaseURL string
}

// ThreadsPublisher posts via the two-step Threads Graph API: create a media
// container, then publish it.
type ThreadsPublisher struct {
	config      ThreadsConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewThreadsPublisher creates a Threads publisher.
func NewThreadsPublisher(config ThreadsConfig) *ThreadsPublisher {
	if config.BaseURL == "" {
		config.BaseURL = "https://graph.threads.net/v1.0"
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}
	return &ThreadsPublisher{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: NewRateLimiter(1.0, 2),
	}
}

// Platform implements Publisher.
func (t *ThreadsPublisher) Platform() entity.Platform {
	return entity.PlatformThreads
}

type threadsContainerPayload struct {
	MediaType   string `json:"media_type"`
	Text        string `json:"text"`
	AccessToken string `json:"access_token"`
}

type threadsContainerResponse struct {
	ID string `json:"id"`
}

type threadsPublishPayload struct {
	CreationID  string `json:"creation_id"`
	AccessToken string `json:"access_token"`
}

// Publish implements Publisher.
func (t *ThreadsPublisher) Publish(ctx context.Context, content string) (*Result, error) {
	if err := guardLength(t, content, text.CountRunes(content)); err != nil {
		return nil, err
	}
	if err := t.rateLimiter.Allow(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	// Step 1: create the media container.
	containerURL := fmt.Sprintf("%s/%s/threads", t.config.BaseURL, t.config.UserID)
	resp, err := postJSON(ctx, t.httpClient, containerURL, nil, threadsContainerPayload{
		MediaType:   "TEXT",
		Text:        content,
		AccessToken: t.config.AccessToken,
	})
	if err != nil {
		return nil, err
	}
	if err := classifyStatus("threads", resp); err != nil {
		return nil, err
	}

	var container threadsContainerResponse
	if err := json.Unmarshal(resp.body, &container); err != nil || container.ID == "" {
		return nil, &ServerError{
			StatusCode: resp.status,
			Message:    fmt.Sprintf("threads container response unparseable: %s", string(resp.body)),
		}
	}

	// Step 2: publish the container.
	publishURL := fmt.Sprintf("%s/%s/threads_publish", t.config.BaseURL, t.config.UserID)
	resp, err = postJSON(ctx, t.httpClient, publishURL, nil, threadsPublishPayload{
		CreationID:  container.ID,
		AccessToken: t.config.AccessToken,
	})
	if err != nil {
		return nil, err
	}
	if err := classifyStatus("threads", resp); err != nil {
		return nil, err
	}

	slog.Info("threads publish successful",
		slog.String("container_id", container.ID),
		slog.Int("content_length", text.CountRunes(content)))

	return &Result{Response: string(resp.body)}, nil
}
