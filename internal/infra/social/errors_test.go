package social

import (
	"errors"
	"testing"
	"time"

	"github.com/lyyw205/stock-news/internal/domain/entity"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want entity.ErrorCode
	}{
		{
			name: "rate limit",
			err:  &RateLimitError{RetryAfter: 30 * time.Second},
			want: entity.ErrCodeRateLimit,
		},
		{
			name: "auth failure on 401",
			err:  &ClientError{StatusCode: 401, Message: "unauthorized"},
			want: entity.ErrCodeAuthFailed,
		},
		{
			name: "auth failure on 403",
			err:  &ClientError{StatusCode: 403, Message: "forbidden"},
			want: entity.ErrCodeAuthFailed,
		},
		{
			name: "explicit code wins over status",
			err:  &ClientError{StatusCode: 403, Code: entity.ErrCodeDuplicatePost, Message: "duplicate"},
			want: entity.ErrCodeDuplicatePost,
		},
		{
			name: "bad request is invalid content",
			err:  &ClientError{StatusCode: 400, Message: "bad request"},
			want: entity.ErrCodeInvalidContent,
		},
		{
			name: "server error is network class",
			err:  &ServerError{StatusCode: 503, Message: "unavailable"},
			want: entity.ErrCodeNetworkError,
		},
		{
			name: "over limit content",
			err:  &ContentTooLongError{Platform: entity.PlatformTwitter, Length: 300, Limit: 280},
			want: entity.ErrCodeContentTooLong,
		},
		{
			name: "anything else is unknown",
			err:  errors.New("boom"),
			want: entity.ErrCodeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify = %s, want %s", got, tt.want)
			}
		})
	}
}

// Retry policy and classification must agree: only rate limits and network
// failures are worth a second attempt.
func TestClassify_RetryAlignment(t *testing.T) {
	retryable := []error{
		&RateLimitError{RetryAfter: time.Second},
		&ServerError{StatusCode: 500},
	}
	for _, err := range retryable {
		if !Classify(err).Retryable() {
			t.Errorf("%T should classify as retryable", err)
		}
	}

	permanent := []error{
		&ClientError{StatusCode: 401},
		&ClientError{StatusCode: 400},
		&ContentTooLongError{Platform: entity.PlatformTwitter},
	}
	for _, err := range permanent {
		if Classify(err).Retryable() {
			t.Errorf("%T should classify as permanent", err)
		}
	}
}
