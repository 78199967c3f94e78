// Package postgres implements the repository interfaces on PostgreSQL
// through database/sql. Array columns use pq.Array; absent rows surface as
// entity.ErrNotFound so use cases never see sql.ErrNoRows directly.
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

type ArticleRepo struct {
	db Querier
}

func NewArticleRepo(db Querier) repository.ArticleRepository {
	return &ArticleRepo{db: db}
}

func (repo *ArticleRepo) Insert(ctx context.Context, article *entity.Article) error {
	const query = `
INSERT INTO articles
       (url, title, description, pub_date, ticker, processed, source_count, source_urls, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		article.URL, article.Title, article.Description, article.PubDate,
		article.Ticker, article.Processed, article.SourceCount,
		pq.Array(article.SourceURLs), article.CreatedAt,
	).Scan(&article.ID)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}
	return nil
}

func (repo *ArticleRepo) Get(ctx context.Context, id int64) (*entity.Article, error) {
	const query = `
SELECT id, url, title, description, pub_date, ticker, processed, source_count, source_urls, created_at
FROM articles
WHERE id = $1
LIMIT 1`
	var article entity.Article
	err := repo.db.QueryRowContext(ctx, query, id).
		Scan(&article.ID, &article.URL, &article.Title, &article.Description,
			&article.PubDate, &article.Ticker, &article.Processed,
			&article.SourceCount, pq.Array(&article.SourceURLs), &article.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &article, nil
}

func (repo *ArticleRepo) FindRecentByTicker(ctx context.Context, ticker string, since time.Time) ([]*entity.Article, error) {
	const query = `
SELECT id, url, title, description, pub_date, ticker, processed, source_count, source_urls, created_at
FROM articles
WHERE ticker = $1
  AND pub_date >= $2
ORDER BY pub_date DESC`
	rows, err := repo.db.QueryContext(ctx, query, ticker, since)
	if err != nil {
		return nil, fmt.Errorf("FindRecentByTicker: %w", err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, 32)
	for rows.Next() {
		var article entity.Article
		if err := rows.Scan(&article.ID, &article.URL, &article.Title, &article.Description,
			&article.PubDate, &article.Ticker, &article.Processed,
			&article.SourceCount, pq.Array(&article.SourceURLs), &article.CreatedAt); err != nil {
			return nil, fmt.Errorf("FindRecentByTicker: Scan: %w", err)
		}
		articles = append(articles, &article)
	}
	return articles, rows.Err()
}

func (repo *ArticleRepo) UpdateSources(ctx context.Context, id int64, sourceCount int, sourceURLs []string) error {
	const query = `
UPDATE articles SET
       source_count = $1,
       source_urls  = $2
WHERE id = $3`
	res, err := repo.db.ExecContext(ctx, query, sourceCount, pq.Array(sourceURLs), id)
	if err != nil {
		return fmt.Errorf("UpdateSources: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("UpdateSources: %w", entity.ErrNotFound)
	}
	return nil
}

func (repo *ArticleRepo) MarkProcessed(ctx context.Context, id int64) error {
	const query = `UPDATE articles SET processed = TRUE WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("MarkProcessed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("MarkProcessed: %w", entity.ErrNotFound)
	}
	return nil
}

func (repo *ArticleRepo) ListUnprocessed(ctx context.Context, limit int) ([]*entity.Article, error) {
	const query = `
SELECT id, url, title, description, pub_date, ticker, processed, source_count, source_urls, created_at
FROM articles
WHERE processed = FALSE
ORDER BY pub_date ASC
LIMIT $1`
	rows, err := repo.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ListUnprocessed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, limit)
	for rows.Next() {
		var article entity.Article
		if err := rows.Scan(&article.ID, &article.URL, &article.Title, &article.Description,
			&article.PubDate, &article.Ticker, &article.Processed,
			&article.SourceCount, pq.Array(&article.SourceURLs), &article.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListUnprocessed: Scan: %w", err)
		}
		articles = append(articles, &article)
	}
	return articles, rows.Err()
}

func (repo *ArticleRepo) ExistsByURL(ctx context.Context, url string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM articles WHERE url = $1)`
	var existsFlag bool
	err := repo.db.QueryRowContext(ctx, query, url).Scan(&existsFlag)
	if err != nil {
		return false, fmt.Errorf("ExistsByURL: %w", err)
	}
	return existsFlag, nil
}
