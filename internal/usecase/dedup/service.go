// Package dedup provides the near-duplicate detection use case. It groups
// articles that report the same event across different RSS sources, merges
// them into a single surviving article, and derives a source-credibility
// score from how many independent sources reported the story.
package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lyyw205/stock-news/internal/domain/entity"
	"github.com/lyyw205/stock-news/internal/observability/metrics"
	"github.com/lyyw205/stock-news/internal/repository"
	"github.com/lyyw205/stock-news/internal/utils/textsim"
)

// candidateWindow restricts duplicate matching to recently admitted articles.
const candidateWindow = 7 * 24 * time.Hour

// Service detects and merges near-duplicate articles.
type Service struct {
	articleRepo repository.ArticleRepository
	publishRepo repository.PublishRepository
}

// NewService creates a deduplication service.
//
// Parameters:
//   - articleRepo: repository for candidate lookup and merge persistence
//   - publishRepo: repository used to flag live posts of a merged article
func NewService(articleRepo repository.ArticleRepository, publishRepo repository.PublishRepository) *Service {
	return &Service{
		articleRepo: articleRepo,
		publishRepo: publishRepo,
	}
}

// MergeResult describes the outcome of admitting one article.
type MergeResult struct {
	// Merged is true when the article was folded into an existing one.
	Merged bool
	// Existing is the surviving article after a merge, nil otherwise.
	Existing *entity.Article
	// Credibility is the confidence weight of the surviving article,
	// recomputed from its source count after the merge.
	Credibility float64
}

// Admit decides whether a newly ingested article duplicates a recent article
// with the same ticker. On a duplicate it merges into the existing article:
// source count is incremented, the new URL is appended to the source list if
// absent, live posts are flagged for update, and the new article is marked
// processed without ever receiving its own score. Without a duplicate the
// article passes through untouched.
//
// Articles without a ticker are never matched; similarity itself is pure and
// cannot fail, so the only error sources are repository operations.
func (s *Service) Admit(ctx context.Context, article *entity.Article) (*MergeResult, error) {
	if !article.HasTicker() {
		return &MergeResult{Merged: false}, nil
	}

	since := time.Now().Add(-candidateWindow)
	candidates, err := s.articleRepo.FindRecentByTicker(ctx, article.TickerOrEmpty(), since)
	if err != nil {
		return nil, fmt.Errorf("find recent articles: %w", err)
	}

	existing := FindExistingDuplicate(article, candidates)
	if existing == nil {
		return &MergeResult{Merged: false}, nil
	}

	return s.merge(ctx, article, existing)
}

// merge folds article into existing and persists the result.
func (s *Service) merge(ctx context.Context, article, existing *entity.Article) (*MergeResult, error) {
	existing.SourceCount++
	if !existing.HasSourceURL(article.URL) {
		existing.SourceURLs = append(existing.SourceURLs, article.URL)
	}

	if err := s.articleRepo.UpdateSources(ctx, existing.ID, existing.SourceCount, existing.SourceURLs); err != nil {
		return nil, fmt.Errorf("update merged sources: %w", err)
	}

	// A live post now shows stale content; the post updater picks it up.
	if err := s.publishRepo.MarkNeedsUpdateByArticle(ctx, existing.ID); err != nil {
		return nil, fmt.Errorf("flag posts for update: %w", err)
	}

	if article.ID != 0 {
		if err := s.articleRepo.MarkProcessed(ctx, article.ID); err != nil {
			return nil, fmt.Errorf("mark duplicate processed: %w", err)
		}
	}

	credibility := Credibility(existing.SourceCount)
	metrics.RecordArticleMerged()
	slog.Info("merged duplicate article",
		slog.Int64("existing_id", existing.ID),
		slog.String("ticker", existing.TickerOrEmpty()),
		slog.String("duplicate_url", article.URL),
		slog.Int("source_count", existing.SourceCount),
		slog.Float64("credibility", credibility))

	return &MergeResult{
		Merged:      true,
		Existing:    existing,
		Credibility: credibility,
	}, nil
}

// FindExistingDuplicate returns the first candidate whose similarity with
// article reaches the duplicate threshold, or nil. Candidates with a
// different ticker or outside the window are expected to be filtered by the
// caller's repository query; the ticker check here is a cheap guard.
func FindExistingDuplicate(article *entity.Article, candidates []*entity.Article) *entity.Article {
	for _, candidate := range candidates {
		if candidate.ID == article.ID && article.ID != 0 {
			continue
		}
		if candidate.TickerOrEmpty() != article.TickerOrEmpty() {
			continue
		}
		sim := textsim.News(article.Title, article.Description, candidate.Title, candidate.Description)
		if sim >= textsim.DuplicateThreshold {
			return candidate
		}
	}
	return nil
}

// GroupDuplicates partitions a batch into clusters of near-duplicates. The
// first article seen for a story becomes the cluster representative; later
// articles join the first cluster whose representative they match. Articles
// without a ticker always form their own cluster.
func GroupDuplicates(articles []*entity.Article) [][]*entity.Article {
	var clusters [][]*entity.Article

next:
	for _, article := range articles {
		if article.HasTicker() {
			for i, cluster := range clusters {
				rep := cluster[0]
				if rep.TickerOrEmpty() != article.TickerOrEmpty() {
					continue
				}
				sim := textsim.News(article.Title, article.Description, rep.Title, rep.Description)
				if sim >= textsim.DuplicateThreshold {
					clusters[i] = append(clusters[i], article)
					continue next
				}
			}
		}
		clusters = append(clusters, []*entity.Article{article})
	}
	return clusters
}

// Credibility derives a confidence weight from the number of independent
// sources that reported the same story.
func Credibility(sourceCount int) float64 {
	switch {
	case sourceCount >= 4:
		return 0.95
	case sourceCount == 3:
		return 0.85
	case sourceCount == 2:
		return 0.7
	default:
		return 0.5
	}
}
