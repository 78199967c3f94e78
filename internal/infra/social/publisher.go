package social

import (
	"context"

	"github.com/lyyw205/stock-news/internal/domain/entity"
)

// Publisher delivers formatted content to one social platform.
// Implementations handle rate limiting and error classification internally;
// callers decide retry policy from the classified error code.
type Publisher interface {
	// Platform identifies the target platform.
	Platform() entity.Platform

	// Publish posts content to the platform and returns the raw response.
	// Failures carry a typed error that Classify maps onto the shared
	// error-code taxonomy.
	Publish(ctx context.Context, content string) (*Result, error)
}
