// Package mailer sends subscriber notification emails through an HTTP email
// API. A no-op implementation stands in when no API key is configured.
package mailer

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

	"golang.org/x/time/rate"
)

// Mailer delivers one email to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// Config contains configuration for the HTTP mailer.
type Config struct {
	// APIKey authenticates against the email API.
	APIKey string

	// From is the sender address, e.g. "Stock News <news@example.com>".
	From string

	// Timeout is the HTTP request timeout for email API calls.
	Timeout time.Duration

	// BaseURL overrides the API endpoint, used in tests.
	BaseURL string
}

// LoadConfig reads mailer configuration from environment variables.
//
// Environment variables:
//   - RESEND_API_KEY: API key; empty disables email delivery
//   - MAIL_FROM: sender address (default: "Stock News <onboarding@resend.dev>")
func LoadConfig() Config {
	from := os.Getenv("MAIL_FROM")
	if from == "" {
		from = "Stock News <onboarding@resend.dev>"
	}
	return Config{
		APIKey:  os.Getenv("RESEND_API_KEY"),
		From:    from,
		Timeout: 10 * time.Second,
	}
}

// New builds a mailer from config, degrading to no-op without an API key.
func New(config Config) Mailer {
	if config.APIKey == "" {
		slog.Warn("email delivery disabled, RESEND_API_KEY not set")
		return NewNoop()
	}
	return NewHTTP(config)
}

// HTTP is a Resend-compatible email API client.
type HTTP struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewHTTP creates an HTTP mailer.
// The limiter stays under the API's 2 requests/second quota.
func NewHTTP(config Config) *HTTP {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.resend.com"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	return &HTTP{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(2), 2),
	}
}

type emailPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
}

// Send implements Mailer.
func (m *HTTP) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	jsonData, err := json.Marshal(emailPayload{
		From:    m.config.From,
		To:      []string{to},
		Subject: subject,
		HTML:    htmlBody,
		Text:    textBody,
	})
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.BaseURL+"/emails", bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.config.APIKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		slog.Info("email sent", slog.String("to", to), slog.String("subject", subject))
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("email api status %d: %s", resp.StatusCode, string(body))
}

// Noop discards every email. Used when delivery is disabled.
type Noop struct{}

// NewNoop creates a no-op mailer.
func NewNoop() *Noop {
	return &Noop{}
}

// Send implements Mailer.
func (n *Noop) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	slog.Debug("email discarded by noop mailer", slog.String("to", to))
	return nil
}
