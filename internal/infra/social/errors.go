package social

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/lyyw205/stock-news/internal/domain/entity"
)

// RateLimitError represents a 429 response from a platform API.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError represents a 4xx response from a platform API.
type ClientError struct {
	StatusCode int
	Code       entity.ErrorCode
	Message    string
}

func (e *ClientError) Error() string {
	return e.Message
}

// ServerError represents a 5xx response from a platform API.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

// ContentTooLongError is returned before any API call when formatted content
// exceeds the platform limit. Formatting guarantees this cannot happen for
// pipeline-built content, so it signals a caller bug or a raw passthrough.
type ContentTooLongError struct {
	Platform entity.Platform
	Length   int
	Limit    int
}

func (e *ContentTooLongError) Error() string {
	return fmt.Sprintf("content for %s is %d characters, limit %d", e.Platform, e.Length, e.Limit)
}

// Classify maps a publish failure onto the shared error-code taxonomy.
// The mapping decides retry eligibility downstream, so unknown failures are
// deliberately non-retryable.
func Classify(err error) entity.ErrorCode {
	if err == nil {
		return ""
	}

	var tooLong *ContentTooLongError
	if errors.As(err, &tooLong) {
		return entity.ErrCodeContentTooLong
	}

	var rateLimit *RateLimitError
	if errors.As(err, &rateLimit) {
		return entity.ErrCodeRateLimit
	}

	var client *ClientError
	if errors.As(err, &client) {
		if client.Code != "" {
			return client.Code
		}
		switch client.StatusCode {
		case 401, 403:
			return entity.ErrCodeAuthFailed
		case 409:
			return entity.ErrCodeDuplicatePost
		default:
			return entity.ErrCodeInvalidContent
		}
	}

	var server *ServerError
	if errors.As(err, &server) {
		return entity.ErrCodeNetworkError
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return entity.ErrCodeNetworkError
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return entity.ErrCodeNetworkError
	}

	return entity.ErrCodeUnknown
}
