package publish

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lyyw205/stock-news/internal/domain/entity"
	"github.com/lyyw205/stock-news/internal/infra/social"
	"github.com/lyyw205/stock-news/internal/repository"
	"github.com/lyyw205/stock-news/internal/utils/text"
)

type articleRepoStub struct {
	articles map[int64]*entity.Article
}

func (s *articleRepoStub) Insert(ctx context.Context, article *entity.Article) error { return nil }
func (s *articleRepoStub) Get(ctx context.Context, id int64) (*entity.Article, error) {
	if a, ok := s.articles[id]; ok {
		return a, nil
	}
	return nil, entity.ErrNotFound
}
func (s *articleRepoStub) FindRecentByTicker(ctx context.Context, ticker string, since time.Time) ([]*entity.Article, error) {
	return nil, nil
}
func (s *articleRepoStub) UpdateSources(ctx context.Context, id int64, sourceCount int, sourceURLs []string) error {
	return nil
}
func (s *articleRepoStub) MarkProcessed(ctx context.Context, id int64) error { return nil }
func (s *articleRepoStub) ListUnprocessed(ctx context.Context, limit int) ([]*entity.Article, error) {
	return nil, nil
}
func (s *articleRepoStub) ExistsByURL(ctx context.Context, url string) (bool, error) {
	return false, nil
}

type scoreRepoStub struct {
	scores           map[int64]*entity.Score
	socialPostedIDs  []int64
	autoPublishedIDs []int64
}

func (s *scoreRepoStub) Upsert(ctx context.Context, score *entity.Score) error { return nil }
func (s *scoreRepoStub) GetByArticleID(ctx context.Context, articleID int64) (*entity.Score, error) {
	if sc, ok := s.scores[articleID]; ok {
		return sc, nil
	}
	return nil, entity.ErrNotFound
}
func (s *scoreRepoStub) SetSummary(ctx context.Context, articleID int64, summary string) error {
	return nil
}
func (s *scoreRepoStub) MarkAutoPublished(ctx context.Context, articleID int64, at time.Time) error {
	s.autoPublishedIDs = append(s.autoPublishedIDs, articleID)
	return nil
}
func (s *scoreRepoStub) MarkSocialPosted(ctx context.Context, articleID int64, at time.Time) error {
	s.socialPostedIDs = append(s.socialPostedIDs, articleID)
	return nil
}
func (s *scoreRepoStub) ListUsefulScoredSince(ctx context.Context, since time.Time, limit int) ([]repository.ScoredArticle, error) {
	return nil, nil
}

type publishRepoStub struct {
	nextPostID  int64
	posts       map[int64]*entity.PublishPost
	logs        []*entity.PublishLogEntry
	needsUpdate []*entity.PublishPost
	cleared     []int64

	appendedStatuses []entity.LogStatus
	retryTransitions []int64
	finalized        int

	completedStatus entity.PostStatus
	completedSucc   int
	completedFail   int
}

func newPublishRepoStub() *publishRepoStub {
	return &publishRepoStub{posts: make(map[int64]*entity.PublishPost)}
}

func (s *publishRepoStub) CreatePost(ctx context.Context, post *entity.PublishPost) error {
	s.nextPostID++
	post.ID = s.nextPostID
	clone := *post
	s.posts[post.ID] = &clone
	return nil
}
func (s *publishRepoStub) GetPost(ctx context.Context, id int64) (*entity.PublishPost, error) {
	if p, ok := s.posts[id]; ok {
		return p, nil
	}
	return nil, entity.ErrNotFound
}
func (s *publishRepoStub) CompletePost(ctx context.Context, id int64, status entity.PostStatus, successCount, failureCount int, completedAt time.Time) error {
	p, ok := s.posts[id]
	if !ok {
		return entity.ErrNotFound
	}
	p.Status = status
	p.SuccessCount = successCount
	p.FailureCount = failureCount
	p.CompletedAt = &completedAt
	s.completedStatus = status
	s.completedSucc = successCount
	s.completedFail = failureCount
	return nil
}
func (s *publishRepoStub) AppendLog(ctx context.Context, log *entity.PublishLogEntry) error {
	log.ID = int64(len(s.logs) + 1)
	s.logs = append(s.logs, log)
	s.appendedStatuses = append(s.appendedStatuses, log.Status)
	return nil
}
func (s *publishRepoStub) UpdateLogRetry(ctx context.Context, id int64, retryCount int) error {
	s.retryTransitions = append(s.retryTransitions, id)
	return nil
}
func (s *publishRepoStub) FinalizeLog(ctx context.Context, log *entity.PublishLogEntry) error {
	s.finalized++
	return nil
}
func (s *publishRepoStub) ListLogsByPost(ctx context.Context, postID int64) ([]*entity.PublishLogEntry, error) {
	var out []*entity.PublishLogEntry
	for _, l := range s.logs {
		if l.PostID == postID {
			out = append(out, l)
		}
	}
	return out, nil
}
func (s *publishRepoStub) MarkNeedsUpdateByArticle(ctx context.Context, articleID int64) error {
	return nil
}
func (s *publishRepoStub) ListNeedsUpdate(ctx context.Context, limit int) ([]*entity.PublishPost, error) {
	return s.needsUpdate, nil
}
func (s *publishRepoStub) ClearNeedsUpdate(ctx context.Context, id int64) error {
	s.cleared = append(s.cleared, id)
	return nil
}

func summaryPtr(s string) *string { return &s }

func fixtureRepos() (*articleRepoStub, *scoreRepoStub) {
	ticker := "005930"
	articles := &articleRepoStub{articles: map[int64]*entity.Article{
		7: {
			ID:     7,
			URL:    "https://news.example.com/a/7",
			Title:  "삼성전자, 4분기 영업이익 컨센서스 상회",
			Ticker: &ticker,
		},
	}}
	scores := &scoreRepoStub{scores: map[int64]*entity.Score{
		7: {
			ArticleID: 7,
			Total:     85,
			Summary:   summaryPtr("반도체 업황 회복으로 실적이 시장 예상을 웃돌았다."),
		},
	}}
	return articles, scores
}

func TestPublish_PartialFailure(t *testing.T) {
	articles, scores := fixtureRepos()
	publishRepo := newPublishRepoStub()

	telegram := social.NewFakePublisher(entity.PlatformTelegram, nil)
	twitter := social.NewFakePublisher(entity.PlatformTwitter, &social.ClientError{StatusCode: 401, Message: "bad token"})

	svc := NewService(articles, scores, publishRepo, []social.Publisher{telegram, twitter})

	post, err := svc.Publish(context.Background(), 7, []entity.Platform{entity.PlatformTelegram, entity.PlatformTwitter})
	if err != nil {
		t.Fatalf("Publish err=%v", err)
	}

	if post.Status != entity.PostStatusPartialFailure {
		t.Errorf("status = %s, want partial_failure", post.Status)
	}
	if post.SuccessCount != 1 || post.FailureCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", post.SuccessCount, post.FailureCount)
	}
	if post.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}
	if publishRepo.completedStatus != entity.PostStatusPartialFailure {
		t.Errorf("persisted status = %s", publishRepo.completedStatus)
	}

	logs, _ := publishRepo.ListLogsByPost(context.Background(), post.ID)
	if len(logs) != 2 {
		t.Fatalf("log entries = %d, want 2", len(logs))
	}
	byPlatform := map[entity.Platform]*entity.PublishLogEntry{}
	for _, l := range logs {
		byPlatform[l.Platform] = l
	}

	sent := byPlatform[entity.PlatformTelegram]
	if sent.Status != entity.LogStatusSent || sent.SentAt == nil || sent.Response == "" {
		t.Errorf("telegram log = %+v", sent)
	}
	failed := byPlatform[entity.PlatformTwitter]
	if failed.Status != entity.LogStatusFailed || failed.ErrorCode != entity.ErrCodeAuthFailed || failed.FailedAt == nil {
		t.Errorf("twitter log = %+v", failed)
	}
	if failed.RetryCount != 0 {
		t.Errorf("auth failure retried %d times, want 0", failed.RetryCount)
	}

	// Formatted content obeys the tightest limit of the pair.
	if got := text.CountRunes(failed.FormattedContent); got > 280 {
		t.Errorf("twitter content is %d runes", got)
	}
	if len(telegram.Published) != 1 {
		t.Errorf("telegram received %d posts", len(telegram.Published))
	}

	if len(scores.socialPostedIDs) != 1 || scores.socialPostedIDs[0] != 7 {
		t.Errorf("social posted marks = %v", scores.socialPostedIDs)
	}
}

func TestPublish_AllFailed(t *testing.T) {
	articles, scores := fixtureRepos()
	publishRepo := newPublishRepoStub()

	failing := social.NewFakePublisher(entity.PlatformTelegram, &social.ClientError{StatusCode: 400, Message: "rejected"})
	svc := NewService(articles, scores, publishRepo, []social.Publisher{failing})

	post, err := svc.Publish(context.Background(), 7, []entity.Platform{entity.PlatformTelegram})
	if err != nil {
		t.Fatalf("Publish err=%v", err)
	}
	if post.Status != entity.PostStatusFailed {
		t.Errorf("status = %s, want failed", post.Status)
	}
	if len(scores.socialPostedIDs) != 0 {
		t.Error("failed dispatch must not mark the article posted")
	}
}

func TestPublish_NoSummaryRejected(t *testing.T) {
	articles, scores := fixtureRepos()
	scores.scores[7].Summary = nil
	publishRepo := newPublishRepoStub()

	svc := NewService(articles, scores, publishRepo, nil)
	_, err := svc.Publish(context.Background(), 7, []entity.Platform{entity.PlatformTelegram})
	if !errors.Is(err, ErrNoSummary) {
		t.Fatalf("err = %v, want ErrNoSummary", err)
	}
	if publishRepo.nextPostID != 0 {
		t.Error("no post must be created for a rejected dispatch")
	}
}

func TestPublish_UnknownArticle(t *testing.T) {
	articles, scores := fixtureRepos()
	svc := NewService(articles, scores, newPublishRepoStub(), nil)

	_, err := svc.Publish(context.Background(), 999, []entity.Platform{entity.PlatformTelegram})
	if !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPublish_InvalidPlatform(t *testing.T) {
	articles, scores := fixtureRepos()
	svc := NewService(articles, scores, newPublishRepoStub(), nil)

	_, err := svc.Publish(context.Background(), 7, []entity.Platform{"myspace"})
	if !errors.Is(err, entity.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestPublish_MissingPublisherCountsAsFailure(t *testing.T) {
	articles, scores := fixtureRepos()
	publishRepo := newPublishRepoStub()

	telegram := social.NewFakePublisher(entity.PlatformTelegram, nil)
	svc := NewService(articles, scores, publishRepo, []social.Publisher{telegram})

	post, err := svc.Publish(context.Background(), 7, []entity.Platform{entity.PlatformTelegram, entity.PlatformToss})
	if err != nil {
		t.Fatalf("Publish err=%v", err)
	}
	if post.Status != entity.PostStatusPartialFailure {
		t.Errorf("status = %s, want partial_failure", post.Status)
	}
}

func TestStatus(t *testing.T) {
	articles, scores := fixtureRepos()
	publishRepo := newPublishRepoStub()
	telegram := social.NewFakePublisher(entity.PlatformTelegram, nil)
	svc := NewService(articles, scores, publishRepo, []social.Publisher{telegram})

	post, err := svc.Publish(context.Background(), 7, []entity.Platform{entity.PlatformTelegram})
	if err != nil {
		t.Fatalf("Publish err=%v", err)
	}

	detail, err := svc.Status(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("Status err=%v", err)
	}
	if detail.Post.Status != entity.PostStatusCompleted {
		t.Errorf("post status = %s", detail.Post.Status)
	}
	if len(detail.Logs) != 1 || detail.Logs[0].Platform != entity.PlatformTelegram {
		t.Errorf("logs = %+v", detail.Logs)
	}
}

// A content refresh is a new dispatch limited to platforms whose posts can be
// superseded. Twitter posts are immutable and stay untouched.
func TestUpdateOutdatedPosts(t *testing.T) {
	articles, scores := fixtureRepos()
	publishRepo := newPublishRepoStub()

	telegram := social.NewFakePublisher(entity.PlatformTelegram, nil)
	twitter := social.NewFakePublisher(entity.PlatformTwitter, nil)
	svc := NewService(articles, scores, publishRepo, []social.Publisher{telegram, twitter})

	publishRepo.needsUpdate = []*entity.PublishPost{{
		ID:          41,
		ArticleID:   7,
		Platforms:   []entity.Platform{entity.PlatformTelegram, entity.PlatformTwitter},
		Status:      entity.PostStatusCompleted,
		NeedsUpdate: true,
	}}

	updated, err := svc.UpdateOutdatedPosts(context.Background(), 10)
	if err != nil {
		t.Fatalf("UpdateOutdatedPosts err=%v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}
	if len(telegram.Published) != 1 {
		t.Errorf("telegram refreshed %d times, want 1", len(telegram.Published))
	}
	if len(twitter.Published) != 0 {
		t.Error("immutable platform must not receive a refresh")
	}
	if len(publishRepo.cleared) != 1 || publishRepo.cleared[0] != 41 {
		t.Errorf("cleared = %v", publishRepo.cleared)
	}
}

func TestUpdateOutdatedPosts_TwitterOnlyPostJustClears(t *testing.T) {
	articles, scores := fixtureRepos()
	publishRepo := newPublishRepoStub()
	twitter := social.NewFakePublisher(entity.PlatformTwitter, nil)
	svc := NewService(articles, scores, publishRepo, []social.Publisher{twitter})

	publishRepo.needsUpdate = []*entity.PublishPost{{
		ID:          42,
		ArticleID:   7,
		Platforms:   []entity.Platform{entity.PlatformTwitter},
		Status:      entity.PostStatusCompleted,
		NeedsUpdate: true,
	}}

	updated, err := svc.UpdateOutdatedPosts(context.Background(), 10)
	if err != nil {
		t.Fatalf("UpdateOutdatedPosts err=%v", err)
	}
	if updated != 0 {
		t.Errorf("updated = %d, want 0", updated)
	}
	if len(twitter.Published) != 0 {
		t.Error("immutable platform must not receive a refresh")
	}
	if len(publishRepo.cleared) != 1 || publishRepo.cleared[0] != 42 {
		t.Errorf("cleared = %v", publishRepo.cleared)
	}
}

func TestRetryDelay_DoublesPerAttempt(t *testing.T) {
	genericErr := errors.New("connection reset")

	tests := []struct {
		name    string
		err     error
		attempt int
		want    time.Duration
	}{
		{"first retry", genericErr, 1, 1 * time.Second},
		{"second retry", genericErr, 2, 2 * time.Second},
		{"third retry", genericErr, 3, 4 * time.Second},
		{
			"rate limit dictates its own wait",
			&social.RateLimitError{RetryAfter: 30 * time.Second},
			1,
			30 * time.Second,
		},
		{
			"rate limit without retry-after falls back to backoff",
			&social.RateLimitError{},
			2,
			2 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryDelay(tt.err, tt.attempt); got != tt.want {
				t.Errorf("retryDelay(attempt=%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

// flakyPublisher fails its first calls with a retryable error, then succeeds.
type flakyPublisher struct {
	platform entity.Platform
	failures int
	calls    int
}

func (f *flakyPublisher) Platform() entity.Platform { return f.platform }

func (f *flakyPublisher) Publish(ctx context.Context, content string) (*social.Result, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, &social.RateLimitError{RetryAfter: time.Millisecond}
	}
	return &social.Result{Response: `{"ok":true}`}, nil
}

// A log entry is created pending before delivery starts, transitions through
// retrying on every retry, and settles sent with the attempt count.
func TestPublish_LogLifecycle(t *testing.T) {
	articles, scores := fixtureRepos()
	publishRepo := newPublishRepoStub()
	telegram := &flakyPublisher{platform: entity.PlatformTelegram, failures: 2}
	svc := NewService(articles, scores, publishRepo, []social.Publisher{telegram})

	post, err := svc.Publish(context.Background(), 7, []entity.Platform{entity.PlatformTelegram})
	if err != nil {
		t.Fatalf("Publish err=%v", err)
	}
	if post.Status != entity.PostStatusCompleted {
		t.Errorf("post status = %s", post.Status)
	}

	if len(publishRepo.appendedStatuses) != 1 || publishRepo.appendedStatuses[0] != entity.LogStatusPending {
		t.Errorf("appended statuses = %v, want one pending entry", publishRepo.appendedStatuses)
	}
	if len(publishRepo.retryTransitions) != 2 {
		t.Errorf("retry transitions = %d, want 2", len(publishRepo.retryTransitions))
	}
	if publishRepo.finalized != 1 {
		t.Errorf("finalized entries = %d, want 1", publishRepo.finalized)
	}

	if len(publishRepo.logs) != 1 {
		t.Fatalf("logs = %d, want 1", len(publishRepo.logs))
	}
	log := publishRepo.logs[0]
	if log.Status != entity.LogStatusSent {
		t.Errorf("log status = %s", log.Status)
	}
	if log.RetryCount != 2 {
		t.Errorf("retry count = %d, want 2", log.RetryCount)
	}
	if log.SentAt == nil {
		t.Error("sent_at not set")
	}
}
