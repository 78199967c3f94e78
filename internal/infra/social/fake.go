package social

import (
	"context"
	"sync"

	"github.com/lyyw205/stock-news/internal/domain/entity"
)

// FakePublisher is a deterministic in-memory publisher used in tests and
// dry-run deployments.
type FakePublisher struct {
	mu        sync.Mutex
	platform  entity.Platform
	failWith  error
	Published []string
}

// NewFakePublisher creates a fake publisher for the given platform.
// When failWith is non-nil every Publish call fails with it.
func NewFakePublisher(platform entity.Platform, failWith error) *FakePublisher {
	return &FakePublisher{platform: platform, failWith: failWith}
}

// Platform implements Publisher.
func (f *FakePublisher) Platform() entity.Platform {
	return f.platform
}

// Publish implements Publisher.
func (f *FakePublisher) Publish(ctx context.Context, content string) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.Published = append(f.Published, content)
	return &Result{Response: `{"ok":true}`}, nil
}
