package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/lyyw205/stock-news/internal/resilience/circuitbreaker"
	"github.com/lyyw205/stock-news/internal/resilience/retry"
	"github.com/lyyw205/stock-news/internal/utils/text"
)

// Claude implements the Analyzer interface using Anthropic's Claude API.
// It includes circuit breaker and retry logic for improved reliability.
type Claude struct {
	client          anthropic.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	retryConfig     retry.Config
	config          *Config
	metricsRecorder AnalysisMetricsRecorder
}

// NewClaude creates a new Claude analyzer with the given API key.
func NewClaude(apiKey string) (*Claude, error) {
	config, err := LoadConfig(string(anthropic.Model("claude-sonnet-4-5-20250929")))
	if err != nil {
		return nil, err
	}

	slog.Info("initialized claude analyzer",
		slog.String("model", config.Model),
		slog.Int("summary_limit", config.SummaryLimit))

	return &Claude{
		client:          anthropic.NewClient(option.WithAPIKey(apiKey)),
		circuitBreaker:  circuitbreaker.New(circuitbreaker.ClaudeAPIConfig()),
		retryConfig:     retry.AIAPIConfig(),
		config:          config,
		metricsRecorder: NewPrometheusAnalysisMetrics(),
	}, nil
}

// Analyze scores one article through the Claude API.
// It uses circuit breaker and retry logic for improved reliability.
func (c *Claude) Analyze(ctx context.Context, title, description string) (*Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var result *Analysis

	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doAnalyze(ctx, title, description)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("claude api circuit breaker open, request rejected",
					slog.String("service", "claude-api"),
					slog.String("state", c.circuitBreaker.State().String()))
				return fmt.Errorf("claude api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(*Analysis)
		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("claude analyze failed after retries: %w", retryErr)
	}

	return result, nil
}

// doAnalyze performs the actual API call without retry or circuit breaker.
func (c *Claude) doAnalyze(ctx context.Context, title, description string) (*Analysis, error) {
	requestID := uuid.New().String()
	prompt := buildPrompt(title, description, c.config.SummaryLimit)

	slog.InfoContext(ctx, "starting article analysis",
		slog.String("request_id", requestID),
		slog.Int("title_length", text.CountRunes(title)))

	start := time.Now()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: int64(c.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
	})

	duration := time.Since(start)

	if err != nil {
		c.metricsRecorder.RecordFailure("claude")
		slog.ErrorContext(ctx, "article analysis failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("claude api error: %w", err)
	}

	if len(message.Content) == 0 {
		c.metricsRecorder.RecordFailure("claude")
		return nil, fmt.Errorf("claude api returned empty response")
	}
	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		c.metricsRecorder.RecordFailure("claude")
		return nil, fmt.Errorf("claude api returned unexpected response type")
	}

	analysis, err := parseAnalysis(textBlock.Text)
	if err != nil {
		c.metricsRecorder.RecordFailure("claude")
		slog.ErrorContext(ctx, "article analysis unparseable",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return nil, err
	}

	slog.InfoContext(ctx, "article analysis completed",
		slog.String("request_id", requestID),
		slog.Int("sentiment", int(analysis.Sentiment)),
		slog.Int("summary_length", text.CountRunes(analysis.Summary)),
		slog.Duration("duration", duration))

	c.metricsRecorder.RecordSuccess("claude")
	c.metricsRecorder.RecordDuration("claude", duration)

	return analysis, nil
}
