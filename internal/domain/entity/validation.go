package entity

import (
	"fmt"
	"net/url"
)

// tickerLength is the fixed length of an exchange ticker code.
const tickerLength = 6

// maxURLLength bounds accepted URLs to keep pathological input out of storage.
const maxURLLength = 2048

// ValidateTicker validates a 6-digit exchange code (e.g. "005930").
// Returns a ValidationError when the code is empty, has the wrong length,
// or contains non-digit characters.
func ValidateTicker(ticker string) error {
	if ticker == "" {
		return &ValidationError{Field: "ticker", Message: "ticker is required"}
	}
	if len(ticker) != tickerLength {
		return &ValidationError{
			Field:   "ticker",
			Message: fmt.Sprintf("ticker must be exactly %d digits", tickerLength),
		}
	}
	for _, r := range ticker {
		if r < '0' || r > '9' {
			return &ValidationError{Field: "ticker", Message: "ticker must contain only digits"}
		}
	}
	return nil
}

// ValidateArticleURL validates the format of an article URL.
// Only well-formed http/https URLs with a host are accepted.
func ValidateArticleURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}
	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "URL must use http or https scheme"}
	}
	if parsedURL.Host == "" {
		return &ValidationError{Field: "url", Message: "URL must have a valid host"}
	}
	return nil
}

// ValidateSubscriptionCount enforces the per-user subscription cap.
// current is the number of subscriptions the user already holds.
func ValidateSubscriptionCount(current int) error {
	if current >= MaxSubscriptionsPerUser {
		return &ValidationError{
			Field:   "subscriptions",
			Message: fmt.Sprintf("subscription limit of %d reached", MaxSubscriptionsPerUser),
		}
	}
	return nil
}
