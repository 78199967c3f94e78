package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/lyyw205/stock-news/internal/domain/entity"
	"github.com/lyyw205/stock-news/internal/repository"
)

type ScoreRepo struct {
	db Querier
}

func NewScoreRepo(db Querier) repository.ScoreRepository {
	return &ScoreRepo{db: db}
}

func (repo *ScoreRepo) Upsert(ctx context.Context, score *entity.Score) error {
	const query = `
INSERT INTO scores
       (article_id, impact, urgency, certainty, durability, attention, relevance,
        sector_impact, institutional_interest, volatility, sentiment,
        total, reasoning, fallback, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
ON CONFLICT (article_id) DO UPDATE SET
       impact = EXCLUDED.impact,
       urgency = EXCLUDED.urgency,
       certainty = EXCLUDED.certainty,
       durability = EXCLUDED.durability,
       attention = EXCLUDED.attention,
       relevance = EXCLUDED.relevance,
       sector_impact = EXCLUDED.sector_impact,
       institutional_interest = EXCLUDED.institutional_interest,
       volatility = EXCLUDED.volatility,
       sentiment = EXCLUDED.sentiment,
       total = EXCLUDED.total,
       reasoning = EXCLUDED.reasoning,
       fallback = EXCLUDED.fallback,
       updated_at = EXCLUDED.updated_at`
	_, err := repo.db.ExecContext(ctx, query,
		score.ArticleID,
		score.Visual.Impact, score.Visual.Urgency, score.Visual.Certainty,
		score.Visual.Durability, score.Visual.Attention, score.Visual.Relevance,
		score.Hidden.SectorImpact, score.Hidden.InstitutionalInterest, score.Hidden.Volatility,
		int(score.Sentiment), score.Total, score.Reasoning, score.Fallback,
		score.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

func (repo *ScoreRepo) GetByArticleID(ctx context.Context, articleID int64) (*entity.Score, error) {
	const query = `
SELECT article_id, impact, urgency, certainty, durability, attention, relevance,
       sector_impact, institutional_interest, volatility, sentiment,
       total, reasoning, fallback, summary,
       auto_published, auto_published_at,
       social_posted, social_posted_at, social_post_count,
       created_at, updated_at
FROM scores
WHERE article_id = $1
LIMIT 1`
	var score entity.Score
	var sentiment int
	err := repo.db.QueryRowContext(ctx, query, articleID).Scan(
		&score.ArticleID,
		&score.Visual.Impact, &score.Visual.Urgency, &score.Visual.Certainty,
		&score.Visual.Durability, &score.Visual.Attention, &score.Visual.Relevance,
		&score.Hidden.SectorImpact, &score.Hidden.InstitutionalInterest, &score.Hidden.Volatility,
		&sentiment, &score.Total, &score.Reasoning, &score.Fallback, &score.Summary,
		&score.AutoPublished, &score.AutoPublishedAt,
		&score.SocialPosted, &score.SocialPostedAt, &score.SocialPostCount,
		&score.CreatedAt, &score.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetByArticleID: %w", err)
	}
	score.Sentiment = entity.Sentiment(sentiment)
	return &score, nil
}

func (repo *ScoreRepo) SetSummary(ctx context.Context, articleID int64, summary string) error {
	const query = `UPDATE scores SET summary = $1, updated_at = NOW() WHERE article_id = $2`
	res, err := repo.db.ExecContext(ctx, query, summary, articleID)
	if err != nil {
		return fmt.Errorf("SetSummary: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("SetSummary: %w", entity.ErrNotFound)
	}
	return nil
}

func (repo *ScoreRepo) MarkAutoPublished(ctx context.Context, articleID int64, at time.Time) error {
	const query = `
UPDATE scores SET
       auto_published    = TRUE,
       auto_published_at = $1,
       updated_at        = NOW()
WHERE article_id = $2`
	res, err := repo.db.ExecContext(ctx, query, at, articleID)
	if err != nil {
		return fmt.Errorf("MarkAutoPublished: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("MarkAutoPublished: %w", entity.ErrNotFound)
	}
	return nil
}

func (repo *ScoreRepo) MarkSocialPosted(ctx context.Context, articleID int64, at time.Time) error {
	const query = `
UPDATE scores SET
       social_posted     = TRUE,
       social_posted_at  = $1,
       social_post_count = social_post_count + 1,
       updated_at        = NOW()
WHERE article_id = $2`
	res, err := repo.db.ExecContext(ctx, query, at, articleID)
	if err != nil {
		return fmt.Errorf("MarkSocialPosted: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("MarkSocialPosted: %w", entity.ErrNotFound)
	}
	return nil
}

func (repo *ScoreRepo) ListUsefulScoredSince(ctx context.Context, since time.Time, limit int) ([]repository.ScoredArticle, error) {
	const query = `
SELECT a.id, a.url, a.title, a.description, a.pub_date, a.ticker, a.processed,
       a.source_count, a.source_urls, a.created_at,
       s.article_id, s.impact, s.urgency, s.certainty, s.durability, s.attention, s.relevance,
       s.sector_impact, s.institutional_interest, s.volatility, s.sentiment,
       s.total, s.reasoning, s.fallback, s.summary,
       s.auto_published, s.auto_published_at,
       s.social_posted, s.social_posted_at, s.social_post_count,
       s.created_at, s.updated_at
FROM scores s
INNER JOIN articles a ON a.id = s.article_id
WHERE s.updated_at >= $1
  AND s.summary IS NOT NULL
  AND s.summary <> ''
  AND a.ticker IS NOT NULL
ORDER BY s.updated_at DESC
LIMIT $2`
	rows, err := repo.db.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("ListUsefulScoredSince: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]repository.ScoredArticle, 0, limit)
	for rows.Next() {
		var article entity.Article
		var score entity.Score
		var sentiment int
		if err := rows.Scan(
			&article.ID, &article.URL, &article.Title, &article.Description,
			&article.PubDate, &article.Ticker, &article.Processed,
			&article.SourceCount, pq.Array(&article.SourceURLs), &article.CreatedAt,
			&score.ArticleID,
			&score.Visual.Impact, &score.Visual.Urgency, &score.Visual.Certainty,
			&score.Visual.Durability, &score.Visual.Attention, &score.Visual.Relevance,
			&score.Hidden.SectorImpact, &score.Hidden.InstitutionalInterest, &score.Hidden.Volatility,
			&sentiment, &score.Total, &score.Reasoning, &score.Fallback, &score.Summary,
			&score.AutoPublished, &score.AutoPublishedAt,
			&score.SocialPosted, &score.SocialPostedAt, &score.SocialPostCount,
			&score.CreatedAt, &score.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ListUsefulScoredSince: Scan: %w", err)
		}
		score.Sentiment = entity.Sentiment(sentiment)
		result = append(result, repository.ScoredArticle{Article: &article, Score: &score})
	}
	return result, rows.Err()
}
