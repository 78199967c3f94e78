// Package entity defines the core domain entities and validation logic for the application.
// It contains the fundamental business objects such as Article, Score and PublishPost,
// along with their validation rules and domain-specific errors.
package entity

import "time"

// Article represents an ingested stock-news article.
// An article is created once at ingestion and never deleted. Deduplication
// mutates SourceCount/SourceURLs on the surviving article; processing only
// flips the Processed flag.
type Article struct {
	ID          int64
	URL         string // unique external key
	Title       string
	Description string
	PubDate     time.Time
	Ticker      *string // 6-digit exchange code, nil when extraction failed
	Processed   bool
	SourceCount int // number of independent sources reporting this story, >= 1
	SourceURLs  []string
	CreatedAt   time.Time
}

// HasTicker reports whether the article carries an extracted ticker.
// Articles without a ticker are never matched against each other during
// deduplication.
func (a *Article) HasTicker() bool {
	return a.Ticker != nil && *a.Ticker != ""
}

// TickerOrEmpty returns the ticker code, or "" when none was extracted.
func (a *Article) TickerOrEmpty() string {
	if a.Ticker == nil {
		return ""
	}
	return *a.Ticker
}

// HasSourceURL reports whether url is already recorded as a contributing source.
func (a *Article) HasSourceURL(url string) bool {
	for _, u := range a.SourceURLs {
		if u == url {
			return true
		}
	}
	return false
}
