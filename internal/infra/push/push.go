// Package push sends mobile push notifications to subscriber devices.
// Delivery is best-effort: a missing configuration degrades to a no-op so
// email remains the guaranteed channel.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Sender delivers one push notification to one device.
type Sender interface {
	Send(ctx context.Context, deviceToken, title, body string) error
}

// Config contains configuration for the push sender.
type Config struct {
	// ServerKey authenticates against the push gateway.
	ServerKey string

	// Timeout is the HTTP request timeout for push API calls.
	Timeout time.Duration

	// BaseURL overrides the API endpoint, used in tests.
	BaseURL string
}

// LoadConfig reads push configuration from environment variables.
//
// Environment variables:
//   - FCM_SERVER_KEY: gateway key; empty disables push delivery
func LoadConfig() Config {
	return Config{
		ServerKey: os.Getenv("FCM_SERVER_KEY"),
		Timeout:   10 * time.Second,
	}
}

// New builds a push sender from config, degrading to no-op without a key.
func New(config Config) Sender {
	if config.ServerKey == "" {
		slog.Warn("push delivery disabled, FCM_SERVER_KEY not set")
		return NewNoop()
	}
	return NewFCM(config)
}

// FCM sends notifications through the Firebase Cloud Messaging HTTP API.
type FCM struct {
	config     Config
	httpClient *http.Client
}

// NewFCM creates an FCM push sender.
func NewFCM(config Config) *FCM {
	if config.BaseURL == "" {
		config.BaseURL = "https://fcm.googleapis.com"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	return &FCM{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

type fcmPayload struct {
	To           string          `json:"to"`
	Notification fcmNotification `json:"notification"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Send implements Sender.
func (f *FCM) Send(ctx context.Context, deviceToken, title, body string) error {
	jsonData, err := json.Marshal(fcmPayload{
		To: deviceToken,
		Notification: fcmNotification{
			Title: title,
			Body:  body,
		},
	})
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.config.BaseURL+"/fcm/send", bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+f.config.ServerKey)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	respBody, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("push gateway status %d: %s", resp.StatusCode, string(respBody))
}

// Noop discards every push notification. Used when delivery is disabled.
type Noop struct{}

// NewNoop creates a no-op push sender.
func NewNoop() *Noop {
	return &Noop{}
}

// Send implements Sender.
func (n *Noop) Send(ctx context.Context, deviceToken, title, body string) error {
	return nil
}
