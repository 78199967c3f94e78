package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/lyyw205/stock-news/internal/domain/entity"
)

type stubArticleRepo struct {
	recent []*entity.Article

	updatedID      int64
	updatedCount   int
	updatedURLs    []string
	processedIDs   []int64
	findTickerSeen string
}

func (s *stubArticleRepo) Insert(ctx context.Context, article *entity.Article) error {
	return nil
}

func (s *stubArticleRepo) Get(ctx context.Context, id int64) (*entity.Article, error) {
	return nil, entity.ErrNotFound
}

func (s *stubArticleRepo) FindRecentByTicker(ctx context.Context, ticker string, since time.Time) ([]*entity.Article, error) {
	s.findTickerSeen = ticker
	return s.recent, nil
}

func (s *stubArticleRepo) UpdateSources(ctx context.Context, id int64, sourceCount int, sourceURLs []string) error {
	s.updatedID = id
	s.updatedCount = sourceCount
	s.updatedURLs = append([]string(nil), sourceURLs...)
	return nil
}

func (s *stubArticleRepo) MarkProcessed(ctx context.Context, id int64) error {
	s.processedIDs = append(s.processedIDs, id)
	return nil
}

func (s *stubArticleRepo) ListUnprocessed(ctx context.Context, limit int) ([]*entity.Article, error) {
	return nil, nil
}

func (s *stubArticleRepo) ExistsByURL(ctx context.Context, url string) (bool, error) {
	return false, nil
}

type stubPublishRepo struct {
	flaggedArticleIDs []int64
}

func (s *stubPublishRepo) CreatePost(ctx context.Context, post *entity.PublishPost) error {
	return nil
}

func (s *stubPublishRepo) GetPost(ctx context.Context, id int64) (*entity.PublishPost, error) {
	return nil, entity.ErrNotFound
}

func (s *stubPublishRepo) CompletePost(ctx context.Context, id int64, status entity.PostStatus, successCount, failureCount int, completedAt time.Time) error {
	return nil
}

func (s *stubPublishRepo) AppendLog(ctx context.Context, log *entity.PublishLogEntry) error {
	return nil
}

func (s *stubPublishRepo) UpdateLogRetry(ctx context.Context, id int64, retryCount int) error {
	return nil
}

func (s *stubPublishRepo) FinalizeLog(ctx context.Context, log *entity.PublishLogEntry) error {
	return nil
}

func (s *stubPublishRepo) ListLogsByPost(ctx context.Context, postID int64) ([]*entity.PublishLogEntry, error) {
	return nil, nil
}

func (s *stubPublishRepo) MarkNeedsUpdateByArticle(ctx context.Context, articleID int64) error {
	s.flaggedArticleIDs = append(s.flaggedArticleIDs, articleID)
	return nil
}

func (s *stubPublishRepo) ListNeedsUpdate(ctx context.Context, limit int) ([]*entity.PublishPost, error) {
	return nil, nil
}

func (s *stubPublishRepo) ClearNeedsUpdate(ctx context.Context, postID int64) error {
	return nil
}

func ticker(v string) *string { return &v }

func TestAdmit_MergesNearDuplicate(t *testing.T) {
	existing := &entity.Article{
		ID:          10,
		Title:       "삼성전자(005930) 4분기 영업이익 6.5조원",
		URL:         "https://news-a.example.com/samsung-q4",
		Ticker:      ticker("005930"),
		SourceCount: 1,
		SourceURLs:  []string{"https://news-a.example.com/samsung-q4"},
	}
	articleRepo := &stubArticleRepo{recent: []*entity.Article{existing}}
	publishRepo := &stubPublishRepo{}
	svc := NewService(articleRepo, publishRepo)

	incoming := &entity.Article{
		ID:     11,
		Title:  "삼성전자(005930) 4분기 영업이익 6.5조원 발표",
		URL:    "https://news-b.example.com/samsung-results",
		Ticker: ticker("005930"),
	}

	res, err := svc.Admit(context.Background(), incoming)
	if err != nil {
		t.Fatalf("Admit err=%v", err)
	}
	if !res.Merged {
		t.Fatal("expected merge")
	}
	if articleRepo.updatedID != 10 || articleRepo.updatedCount != 2 {
		t.Errorf("UpdateSources id=%d count=%d, want 10/2", articleRepo.updatedID, articleRepo.updatedCount)
	}
	if len(articleRepo.updatedURLs) != 2 || articleRepo.updatedURLs[1] != incoming.URL {
		t.Errorf("source URLs not extended: %v", articleRepo.updatedURLs)
	}
	if len(publishRepo.flaggedArticleIDs) != 1 || publishRepo.flaggedArticleIDs[0] != 10 {
		t.Errorf("posts of surviving article not flagged: %v", publishRepo.flaggedArticleIDs)
	}
	if len(articleRepo.processedIDs) != 1 || articleRepo.processedIDs[0] != 11 {
		t.Errorf("duplicate not marked processed: %v", articleRepo.processedIDs)
	}
	if res.Credibility != 0.7 {
		t.Errorf("credibility = %v, want 0.7 for two sources", res.Credibility)
	}
}

func TestAdmit_DistinctStoryPassesThrough(t *testing.T) {
	articleRepo := &stubArticleRepo{recent: []*entity.Article{{
		ID:     10,
		Title:  "삼성전자 신규 반도체 공장 착공 계획 발표",
		Ticker: ticker("005930"),
	}}}
	svc := NewService(articleRepo, &stubPublishRepo{})

	res, err := svc.Admit(context.Background(), &entity.Article{
		ID:     11,
		Title:  "삼성전자 4분기 영업이익 6.5조원",
		Ticker: ticker("005930"),
	})
	if err != nil {
		t.Fatalf("Admit err=%v", err)
	}
	if res.Merged {
		t.Fatal("unrelated story must not merge")
	}
	if len(articleRepo.processedIDs) != 0 {
		t.Errorf("pass-through must not mark processed: %v", articleRepo.processedIDs)
	}
}

func TestAdmit_NoTickerSkipsMatching(t *testing.T) {
	articleRepo := &stubArticleRepo{}
	svc := NewService(articleRepo, &stubPublishRepo{})

	res, err := svc.Admit(context.Background(), &entity.Article{ID: 1, Title: "시장 동향"})
	if err != nil {
		t.Fatalf("Admit err=%v", err)
	}
	if res.Merged {
		t.Fatal("article without ticker must never merge")
	}
	if articleRepo.findTickerSeen != "" {
		t.Error("candidate lookup should be skipped without a ticker")
	}
}

func TestAdmit_DuplicateURLNotAppendedTwice(t *testing.T) {
	url := "https://news-a.example.com/samsung-q4"
	existing := &entity.Article{
		ID:          10,
		Title:       "삼성전자(005930) 4분기 영업이익 6.5조원",
		URL:         url,
		Ticker:      ticker("005930"),
		SourceCount: 1,
		SourceURLs:  []string{url},
	}
	articleRepo := &stubArticleRepo{recent: []*entity.Article{existing}}
	svc := NewService(articleRepo, &stubPublishRepo{})

	res, err := svc.Admit(context.Background(), &entity.Article{
		ID:     11,
		Title:  "삼성전자(005930) 4분기 영업이익 6.5조원 발표",
		URL:    url,
		Ticker: ticker("005930"),
	})
	if err != nil {
		t.Fatalf("Admit err=%v", err)
	}
	if !res.Merged {
		t.Fatal("expected merge")
	}
	if articleRepo.updatedCount != 2 {
		t.Errorf("source count = %d, want 2", articleRepo.updatedCount)
	}
	if len(articleRepo.updatedURLs) != 1 {
		t.Errorf("same URL appended twice: %v", articleRepo.updatedURLs)
	}
}

func TestCredibility(t *testing.T) {
	tests := []struct {
		sources int
		want    float64
	}{
		{0, 0.5},
		{1, 0.5},
		{2, 0.7},
		{3, 0.85},
		{4, 0.95},
		{9, 0.95},
	}
	for _, tt := range tests {
		if got := Credibility(tt.sources); got != tt.want {
			t.Errorf("Credibility(%d) = %v, want %v", tt.sources, got, tt.want)
		}
	}
}

func TestGroupDuplicates(t *testing.T) {
	a := &entity.Article{ID: 1, Title: "삼성전자 3분기 영업이익 10조 돌파", Description: "반도체 회복", Ticker: ticker("005930")}
	b := &entity.Article{ID: 2, Title: "삼성전자 3분기 영업이익 10조 돌파했다", Description: "반도체 회복", Ticker: ticker("005930")}
	c := &entity.Article{ID: 3, Title: "현대차 전기차 판매 급증", Description: "북미 시장 호조", Ticker: ticker("005380")}
	d := &entity.Article{ID: 4, Title: "삼성전자 3분기 영업이익 10조 돌파", Description: "반도체 회복"}

	clusters := GroupDuplicates([]*entity.Article{a, b, c, d})

	if len(clusters) != 3 {
		t.Fatalf("clusters = %d, want 3", len(clusters))
	}
	if len(clusters[0]) != 2 || clusters[0][0].ID != 1 || clusters[0][1].ID != 2 {
		t.Errorf("first cluster = %+v, want articles 1 and 2", ids(clusters[0]))
	}
	if len(clusters[1]) != 1 || clusters[1][0].ID != 3 {
		t.Errorf("second cluster = %v, want article 3", ids(clusters[1]))
	}
	// Same headline but no ticker never merges.
	if len(clusters[2]) != 1 || clusters[2][0].ID != 4 {
		t.Errorf("third cluster = %v, want article 4", ids(clusters[2]))
	}
}

func ids(articles []*entity.Article) []int64 {
	out := make([]int64, len(articles))
	for i, a := range articles {
		out[i] = a.ID
	}
	return out
}
