package entity

import "time"

// Platform identifies an external social-media publishing target.
type Platform string

const (
	PlatformTelegram Platform = "telegram"
	PlatformTwitter  Platform = "twitter"
	PlatformThreads  Platform = "threads"
	PlatformToss     Platform = "toss"
)

// AllPlatforms is the full platform set used for auto-publishing.
func AllPlatforms() []Platform {
	return []Platform{PlatformTelegram, PlatformTwitter, PlatformThreads, PlatformToss}
}

// ValidPlatform reports whether p is a known platform identifier.
func ValidPlatform(p Platform) bool {
	switch p {
	case PlatformTelegram, PlatformTwitter, PlatformThreads, PlatformToss:
		return true
	}
	return false
}

// PostStatus is the state of one dispatch attempt across a platform set.
//
// Transitions: processing -> completed | partial_failure | failed.
// Terminal states accept no further transitions within one dispatch; a later
// content change starts a new dispatch instead of mutating history.
type PostStatus string

const (
	PostStatusProcessing     PostStatus = "processing"
	PostStatusCompleted      PostStatus = "completed"
	PostStatusPartialFailure PostStatus = "partial_failure"
	PostStatusFailed         PostStatus = "failed"
)

// Terminal reports whether the status accepts no further transitions.
func (s PostStatus) Terminal() bool {
	switch s {
	case PostStatusCompleted, PostStatusPartialFailure, PostStatusFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is a legal transition.
func (s PostStatus) CanTransitionTo(next PostStatus) bool {
	if s != PostStatusProcessing {
		return false
	}
	return next.Terminal()
}

// AggregatePostStatus derives the terminal status of a dispatch from its
// per-platform outcome counts.
func AggregatePostStatus(successCount, failureCount int) PostStatus {
	switch {
	case failureCount == 0:
		return PostStatusCompleted
	case successCount > 0:
		return PostStatusPartialFailure
	default:
		return PostStatusFailed
	}
}

// PublishPost records one dispatch attempt for one article across a set of
// platforms. It owns one PublishLogEntry per platform.
type PublishPost struct {
	ID           int64
	ArticleID    int64
	Platforms    []Platform
	Status       PostStatus
	SuccessCount int
	FailureCount int
	NeedsUpdate  bool // set externally when the article content changed after posting
	CreatedAt    time.Time
	CompletedAt  *time.Time
}

// LogStatus is the state of a single (post, platform) delivery. An entry
// starts pending, may pass through retrying, and is terminal once sent or
// failed.
type LogStatus string

const (
	LogStatusPending  LogStatus = "pending"
	LogStatusSent     LogStatus = "sent"
	LogStatusFailed   LogStatus = "failed"
	LogStatusRetrying LogStatus = "retrying"
)

// ErrorCode is the shared failure taxonomy across all platform publishers.
type ErrorCode string

const (
	ErrCodeRateLimit      ErrorCode = "RATE_LIMIT"
	ErrCodeNetworkError   ErrorCode = "NETWORK_ERROR"
	ErrCodeInvalidContent ErrorCode = "INVALID_CONTENT"
	ErrCodeDuplicatePost  ErrorCode = "DUPLICATE_POST"
	ErrCodeAuthFailed     ErrorCode = "AUTH_FAILED"
	ErrCodeContentTooLong ErrorCode = "CONTENT_TOO_LONG"
	ErrCodeUnknown        ErrorCode = "UNKNOWN"
)

// Retryable reports whether a failure with this code is worth retrying.
// CONTENT_TOO_LONG, AUTH_FAILED and INVALID_CONTENT are permanent by policy.
func (c ErrorCode) Retryable() bool {
	switch c {
	case ErrCodeRateLimit, ErrCodeNetworkError:
		return true
	}
	return false
}

// DefaultMaxPublishRetries bounds per-platform retry attempts.
const DefaultMaxPublishRetries = 3

// PublishLogEntry records the delivery of one post to one platform. It is
// created when dispatch to that platform begins and is terminal once sent or
// failed.
type PublishLogEntry struct {
	ID               int64
	PostID           int64
	ArticleID        int64
	Platform         Platform
	Status           LogStatus
	FormattedContent string
	Response         string // raw platform response payload
	ErrorCode        ErrorCode
	ErrorMessage     string
	RetryCount       int
	MaxRetries       int
	CreatedAt        time.Time
	SentAt           *time.Time
	FailedAt         *time.Time
}
