package analyzer

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	// minSummaryLimit is the minimum allowed character limit for summaries.
	minSummaryLimit = 50

	// maxSummaryLimit is the maximum allowed character limit for summaries.
	maxSummaryLimit = 2000
)

// Config holds configuration parameters shared by the analyzer adapters.
// Configuration is loaded from environment variables with fallback to defaults.
type Config struct {
	// Model is the API model identifier used for analysis.
	Model string

	// MaxTokens is the maximum number of tokens for the API response.
	MaxTokens int

	// Timeout is the maximum duration for a single analysis API call.
	Timeout time.Duration

	// SummaryLimit is the maximum number of characters requested for the
	// generated summary. Valid range: 50-2000. Default: 300.
	SummaryLimit int
}

// Validate checks the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if err := ValidateSummaryLimit(c.SummaryLimit); err != nil {
		return fmt.Errorf("invalid summary limit: %w", err)
	}
	return nil
}

// ValidateSummaryLimit validates that the summary character limit is within
// the valid range (50-2000).
func ValidateSummaryLimit(limit int) error {
	if limit < minSummaryLimit {
		return fmt.Errorf("summary limit %d is below minimum %d", limit, minSummaryLimit)
	}
	if limit > maxSummaryLimit {
		return fmt.Errorf("summary limit %d exceeds maximum %d", limit, maxSummaryLimit)
	}
	return nil
}

// LoadConfig loads analyzer configuration from environment variables.
//
// Environment variables:
//   - ANALYZER_MODEL: model identifier (default depends on adapter)
//   - ANALYZER_SUMMARY_LIMIT: summary character limit (default: 300, range: 50-2000)
//
// Returns an error if the configuration is invalid (fail-closed behavior).
func LoadConfig(defaultModel string) (*Config, error) {
	const defaultSummaryLimit = 300

	summaryLimit := defaultSummaryLimit
	if envLimit := os.Getenv("ANALYZER_SUMMARY_LIMIT"); envLimit != "" {
		parsed, err := strconv.Atoi(envLimit)
		if err != nil {
			return nil, fmt.Errorf("invalid ANALYZER_SUMMARY_LIMIT format: %s: %w", envLimit, err)
		}
		if err := ValidateSummaryLimit(parsed); err != nil {
			return nil, fmt.Errorf("ANALYZER_SUMMARY_LIMIT out of valid range: %w", err)
		}
		summaryLimit = parsed
	}

	model := defaultModel
	if envModel := os.Getenv("ANALYZER_MODEL"); envModel != "" {
		model = envModel
	}

	config := &Config{
		Model:        model,
		MaxTokens:    1024,
		Timeout:      60 * time.Second,
		SummaryLimit: summaryLimit,
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analyzer configuration: %w", err)
	}
	return config, nil
}
