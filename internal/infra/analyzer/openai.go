package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/lyyw205/stock-news/internal/resilience/circuitbreaker"
	"github.com/lyyw205/stock-news/internal/resilience/retry"
	"github.com/lyyw205/stock-news/internal/utils/text"
)

// OpenAI implements the Analyzer interface using OpenAI's chat completion API.
// It includes circuit breaker and retry logic for improved reliability.
type OpenAI struct {
	client          *openai.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	retryConfig     retry.Config
	config          *Config
	metricsRecorder AnalysisMetricsRecorder
}

// NewOpenAI creates a new OpenAI analyzer with the given API key.
func NewOpenAI(apiKey string) (*OpenAI, error) {
	config, err := LoadConfig(openai.GPT4oMini)
	if err != nil {
		return nil, err
	}

	slog.Info("initialized openai analyzer",
		slog.String("model", config.Model),
		slog.Int("summary_limit", config.SummaryLimit))

	return &OpenAI{
		client:          openai.NewClient(apiKey),
		circuitBreaker:  circuitbreaker.New(circuitbreaker.OpenAIAPIConfig()),
		retryConfig:     retry.AIAPIConfig(),
		config:          config,
		metricsRecorder: NewPrometheusAnalysisMetrics(),
	}, nil
}

// Analyze scores one article through the OpenAI API.
// It uses circuit breaker and retry logic for improved reliability.
func (o *OpenAI) Analyze(ctx context.Context, title, description string) (*Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	var result *Analysis

	retryErr := retry.WithBackoff(ctx, o.retryConfig, func() error {
		cbResult, err := o.circuitBreaker.Execute(func() (interface{}, error) {
			return o.doAnalyze(ctx, title, description)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("openai api circuit breaker open, request rejected",
					slog.String("service", "openai-api"),
					slog.String("state", o.circuitBreaker.State().String()))
				return fmt.Errorf("openai api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(*Analysis)
		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("openai analyze failed after retries: %w", retryErr)
	}

	return result, nil
}

// doAnalyze performs the actual API call without retry or circuit breaker.
func (o *OpenAI) doAnalyze(ctx context.Context, title, description string) (*Analysis, error) {
	prompt := buildPrompt(title, description, o.config.SummaryLimit)

	slog.InfoContext(ctx, "starting article analysis",
		slog.Int("title_length", text.CountRunes(title)))

	start := time.Now()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.config.Model,
		MaxTokens: o.config.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleSystem,
			Content: prompt,
		}},
	})

	duration := time.Since(start)

	if err != nil {
		o.metricsRecorder.RecordFailure("openai")
		slog.ErrorContext(ctx, "article analysis failed",
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		o.metricsRecorder.RecordFailure("openai")
		return nil, fmt.Errorf("openai api returned empty response")
	}

	analysis, err := parseAnalysis(resp.Choices[0].Message.Content)
	if err != nil {
		o.metricsRecorder.RecordFailure("openai")
		slog.ErrorContext(ctx, "article analysis unparseable",
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return nil, err
	}

	slog.InfoContext(ctx, "article analysis completed",
		slog.Int("sentiment", int(analysis.Sentiment)),
		slog.Int("summary_length", text.CountRunes(analysis.Summary)),
		slog.Duration("duration", duration))

	o.metricsRecorder.RecordSuccess("openai")
	o.metricsRecorder.RecordDuration("openai", duration)

	return analysis, nil
}
