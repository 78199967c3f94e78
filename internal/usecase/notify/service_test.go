package notify

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/lyyw205/stock-news/internal/domain/entity"
	"github.com/lyyw205/stock-news/internal/repository"
)

type scoreRepoStub struct {
	items map[int64]repository.ScoredArticle
	list  []repository.ScoredArticle
}

func (s *scoreRepoStub) Upsert(ctx context.Context, score *entity.Score) error { return nil }
func (s *scoreRepoStub) GetByArticleID(ctx context.Context, articleID int64) (*entity.Score, error) {
	if item, ok := s.items[articleID]; ok {
		return item.Score, nil
	}
	return nil, entity.ErrNotFound
}
func (s *scoreRepoStub) SetSummary(ctx context.Context, articleID int64, summary string) error {
	return nil
}
func (s *scoreRepoStub) MarkAutoPublished(ctx context.Context, articleID int64, at time.Time) error {
	return nil
}
func (s *scoreRepoStub) MarkSocialPosted(ctx context.Context, articleID int64, at time.Time) error {
	return nil
}
func (s *scoreRepoStub) ListUsefulScoredSince(ctx context.Context, since time.Time, limit int) ([]repository.ScoredArticle, error) {
	return s.list, nil
}

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

type subscriptionRepoStub struct {
	subscribers []repository.SubscriberWithTickers
}

func (s *subscriptionRepoStub) ListSubscribersByTickers(ctx context.Context, tickers []string) ([]repository.SubscriberWithTickers, error) {
	return s.subscribers, nil
}
func (s *subscriptionRepoStub) CountByUser(ctx context.Context, userID string) (int, error) {
	return 0, nil
}

type tripleKey struct {
	userID    string
	articleID int64
	channel   entity.NotificationChannel
}

type notificationRepoStub struct {
	entries []*entity.NotificationLogEntry
	sent    map[tripleKey]bool
}

func newNotificationRepoStub() *notificationRepoStub {
	return &notificationRepoStub{sent: make(map[tripleKey]bool)}
}

func (s *notificationRepoStub) Append(ctx context.Context, log *entity.NotificationLogEntry) error {
	log.ID = int64(len(s.entries) + 1)
	s.entries = append(s.entries, log)
	if log.Status == entity.NotificationSent {
		s.sent[tripleKey{log.UserID, log.ArticleID, log.Channel}] = true
	}
	return nil
}
func (s *notificationRepoStub) SentExists(ctx context.Context, userID string, articleID int64, channel entity.NotificationChannel) (bool, error) {
	return s.sent[tripleKey{userID, articleID, channel}], nil
}

type sentEmail struct {
	to      string
	subject string
	text    string
}

type fakeMailer struct {
	sent     []sentEmail
	failWith error
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.sent = append(f.sent, sentEmail{to: to, subject: subject, text: textBody})
	return nil
}

type fakePush struct {
	sent     []string // device tokens
	failWith error
}

func (f *fakePush) Send(ctx context.Context, deviceToken, title, body string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.sent = append(f.sent, deviceToken)
	return nil
}

func strPtr(s string) *string { return &s }

func scoredArticle(id int64, ticker, title, summary string, total int) repository.ScoredArticle {
	return repository.ScoredArticle{
		Article: &entity.Article{
			ID:     id,
			URL:    "https://news.example.com/a/" + strconv.FormatInt(id, 10),
			Title:  title,
			Ticker: &ticker,
		},
		Score: &entity.Score{
			ArticleID: id,
			Total:     total,
			Summary:   strPtr(summary),
		},
	}
}

func newTestService(scores *scoreRepoStub, articles *articleRepoStub, subs *subscriptionRepoStub, logs *notificationRepoStub, m *fakeMailer, p *fakePush) *Service {
	svc := NewService(articles, scores, subs, logs, m, p)
	svc.emailBatchDelay = 0
	return svc
}

func TestDispatch_EmailAndPush(t *testing.T) {
	item := scoredArticle(1, "005930", "삼성전자 신규 수주", "대규모 파운드리 수주를 확정했다.", 82)
	scores := &scoreRepoStub{list: []repository.ScoredArticle{item}}
	subs := &subscriptionRepoStub{subscribers: []repository.SubscriberWithTickers{
		{Subscriber: &entity.Subscriber{ID: "u1", Email: "u1@example.com"}, Tickers: []string{"005930"}},
		{Subscriber: &entity.Subscriber{ID: "u2", Email: "u2@example.com", DeviceToken: strPtr("device-2")}, Tickers: []string{"005930"}},
	}}
	logs := newNotificationRepoStub()
	m := &fakeMailer{}
	p := &fakePush{}

	svc := newTestService(scores, &articleRepoStub{}, subs, logs, m, p)
	stats, err := svc.Dispatch(context.Background(), time.Hour, 50)
	if err != nil {
		t.Fatalf("Dispatch err=%v", err)
	}

	if stats.EmailsSent != 2 || stats.PushSent != 1 || stats.EmailsFailed != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if len(m.sent) != 2 {
		t.Fatalf("emails = %d", len(m.sent))
	}
	if !strings.Contains(m.sent[0].subject, "005930") || !strings.Contains(m.sent[0].subject, "삼성전자 신규 수주") {
		t.Errorf("subject = %s", m.sent[0].subject)
	}
	if len(p.sent) != 1 || p.sent[0] != "device-2" {
		t.Errorf("push tokens = %v", p.sent)
	}
	// 2 email logs + 1 push log, all sent.
	if len(logs.entries) != 3 {
		t.Fatalf("log entries = %d", len(logs.entries))
	}
	for _, e := range logs.entries {
		if e.Status != entity.NotificationSent || e.SentAt == nil {
			t.Errorf("log = %+v", e)
		}
	}
}

func TestDispatch_DigestForMultipleArticles(t *testing.T) {
	items := []repository.ScoredArticle{
		scoredArticle(1, "005930", "삼성전자 신규 수주", "요약 1", 82),
		scoredArticle(2, "000660", "SK하이닉스 증설 발표", "요약 2", 77),
	}
	scores := &scoreRepoStub{list: items}
	subs := &subscriptionRepoStub{subscribers: []repository.SubscriberWithTickers{
		{Subscriber: &entity.Subscriber{ID: "u1", Email: "u1@example.com"}, Tickers: []string{"005930", "000660"}},
	}}
	logs := newNotificationRepoStub()
	m := &fakeMailer{}

	svc := newTestService(scores, &articleRepoStub{}, subs, logs, m, &fakePush{})
	stats, err := svc.Dispatch(context.Background(), time.Hour, 50)
	if err != nil {
		t.Fatalf("Dispatch err=%v", err)
	}

	if stats.EmailsSent != 1 {
		t.Errorf("emails sent = %d, want 1 digest", stats.EmailsSent)
	}
	if len(m.sent) != 1 || !strings.Contains(m.sent[0].subject, "2건") {
		t.Errorf("digest subject = %+v", m.sent)
	}
	if !strings.Contains(m.sent[0].text, "삼성전자 신규 수주") || !strings.Contains(m.sent[0].text, "SK하이닉스 증설 발표") {
		t.Errorf("digest body = %s", m.sent[0].text)
	}
	// One digest email still logs each covered article.
	if len(logs.entries) != 2 {
		t.Errorf("log entries = %d, want 2", len(logs.entries))
	}
}

func TestDispatch_SecondRunIsIdempotent(t *testing.T) {
	item := scoredArticle(1, "005930", "삼성전자 신규 수주", "요약", 82)
	scores := &scoreRepoStub{list: []repository.ScoredArticle{item}}
	subs := &subscriptionRepoStub{subscribers: []repository.SubscriberWithTickers{
		{Subscriber: &entity.Subscriber{ID: "u1", Email: "u1@example.com", DeviceToken: strPtr("d1")}, Tickers: []string{"005930"}},
	}}
	logs := newNotificationRepoStub()
	m := &fakeMailer{}
	p := &fakePush{}

	svc := newTestService(scores, &articleRepoStub{}, subs, logs, m, p)
	if _, err := svc.Dispatch(context.Background(), time.Hour, 50); err != nil {
		t.Fatalf("first Dispatch err=%v", err)
	}
	stats, err := svc.Dispatch(context.Background(), time.Hour, 50)
	if err != nil {
		t.Fatalf("second Dispatch err=%v", err)
	}

	if stats.EmailsSent != 0 || stats.PushSent != 0 {
		t.Errorf("second run stats = %+v, want no sends", stats)
	}
	if stats.Skipped != 2 {
		t.Errorf("skipped = %d, want 2 (email+push)", stats.Skipped)
	}
	if len(m.sent) != 1 || len(p.sent) != 1 {
		t.Errorf("deliveries = %d email, %d push; want 1 each", len(m.sent), len(p.sent))
	}
}

func TestDispatch_EmailFailureDoesNotBlockPush(t *testing.T) {
	item := scoredArticle(1, "005930", "삼성전자 신규 수주", "요약", 82)
	scores := &scoreRepoStub{list: []repository.ScoredArticle{item}}
	subs := &subscriptionRepoStub{subscribers: []repository.SubscriberWithTickers{
		{Subscriber: &entity.Subscriber{ID: "u1", Email: "u1@example.com", DeviceToken: strPtr("d1")}, Tickers: []string{"005930"}},
		{Subscriber: &entity.Subscriber{ID: "u2", Email: "u2@example.com"}, Tickers: []string{"005930"}},
	}}
	logs := newNotificationRepoStub()
	m := &fakeMailer{failWith: errors.New("smtp down")}
	p := &fakePush{}

	svc := newTestService(scores, &articleRepoStub{}, subs, logs, m, p)
	stats, err := svc.Dispatch(context.Background(), time.Hour, 50)
	if err != nil {
		t.Fatalf("Dispatch err=%v", err)
	}

	if stats.EmailsFailed != 2 || stats.PushSent != 1 {
		t.Errorf("stats = %+v", stats)
	}

	// Failed email attempts stay eligible: a later run with a healthy mailer
	// delivers them.
	m.failWith = nil
	stats2, err := svc.Dispatch(context.Background(), time.Hour, 50)
	if err != nil {
		t.Fatalf("retry Dispatch err=%v", err)
	}
	if stats2.EmailsSent != 2 {
		t.Errorf("retry emails sent = %d, want 2", stats2.EmailsSent)
	}
	if stats2.Skipped != 1 {
		t.Errorf("retry skipped = %d, want 1 (push already sent)", stats2.Skipped)
	}
}

func TestSendImmediate(t *testing.T) {
	item := scoredArticle(9, "035720", "카카오 자회사 상장 추진", "요약", 88)
	scores := &scoreRepoStub{items: map[int64]repository.ScoredArticle{9: item}}
	articles := &articleRepoStub{articles: map[int64]*entity.Article{9: item.Article}}
	subs := &subscriptionRepoStub{subscribers: []repository.SubscriberWithTickers{
		{Subscriber: &entity.Subscriber{ID: "u1", Email: "u1@example.com"}, Tickers: []string{"035720"}},
	}}
	logs := newNotificationRepoStub()
	m := &fakeMailer{}

	svc := newTestService(scores, articles, subs, logs, m, &fakePush{})
	stats, err := svc.SendImmediate(context.Background(), 9)
	if err != nil {
		t.Fatalf("SendImmediate err=%v", err)
	}
	if stats.EmailsSent != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSendImmediate_NoTickerIsNoop(t *testing.T) {
	article := &entity.Article{ID: 3, Title: "제목"}
	scores := &scoreRepoStub{items: map[int64]repository.ScoredArticle{3: {Article: article, Score: &entity.Score{ArticleID: 3, Total: 60}}}}
	articles := &articleRepoStub{articles: map[int64]*entity.Article{3: article}}

	svc := newTestService(scores, articles, &subscriptionRepoStub{}, newNotificationRepoStub(), &fakeMailer{}, &fakePush{})
	stats, err := svc.SendImmediate(context.Background(), 3)
	if err != nil {
		t.Fatalf("SendImmediate err=%v", err)
	}
	if stats.Subscribers != 0 || stats.EmailsSent != 0 {
		t.Errorf("stats = %+v", stats)
	}
}
