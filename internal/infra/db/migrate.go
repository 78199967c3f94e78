package db

import (
	"database/sql"
)

// MigrateUp creates the pipeline schema. Statements are idempotent so the
// worker can run this unconditionally at startup.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS articles (
    id           SERIAL PRIMARY KEY,
    url          TEXT NOT NULL UNIQUE,
    title        TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    pub_date     TIMESTAMPTZ NOT NULL,
    ticker       VARCHAR(6),
    processed    BOOLEAN NOT NULL DEFAULT FALSE,
    source_count INTEGER NOT NULL DEFAULT 1,
    source_urls  TEXT[] NOT NULL DEFAULT '{}',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS scores (
    article_id             INTEGER PRIMARY KEY REFERENCES articles(id) ON DELETE CASCADE,
    impact                 INTEGER NOT NULL,
    urgency                INTEGER NOT NULL,
    certainty              INTEGER NOT NULL,
    durability             INTEGER NOT NULL,
    attention              INTEGER NOT NULL,
    relevance              INTEGER NOT NULL,
    sector_impact          INTEGER NOT NULL,
    institutional_interest INTEGER NOT NULL,
    volatility             INTEGER NOT NULL,
    sentiment              INTEGER NOT NULL,
    total                  INTEGER NOT NULL,
    reasoning              TEXT NOT NULL DEFAULT '',
    fallback               BOOLEAN NOT NULL DEFAULT FALSE,
    summary                TEXT,
    auto_published         BOOLEAN NOT NULL DEFAULT FALSE,
    auto_published_at      TIMESTAMPTZ,
    social_posted          BOOLEAN NOT NULL DEFAULT FALSE,
    social_posted_at       TIMESTAMPTZ,
    social_post_count      INTEGER NOT NULL DEFAULT 0,
    created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at             TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS publish_posts (
    id            SERIAL PRIMARY KEY,
    article_id    INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
    platforms     TEXT[] NOT NULL,
    status        VARCHAR(20) NOT NULL DEFAULT 'processing',
    success_count INTEGER NOT NULL DEFAULT 0,
    failure_count INTEGER NOT NULL DEFAULT 0,
    needs_update  BOOLEAN NOT NULL DEFAULT FALSE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    completed_at  TIMESTAMPTZ
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS publish_logs (
    id                SERIAL PRIMARY KEY,
    post_id           INTEGER NOT NULL REFERENCES publish_posts(id) ON DELETE CASCADE,
    article_id        INTEGER NOT NULL,
    platform          VARCHAR(20) NOT NULL,
    status            VARCHAR(20) NOT NULL,
    formatted_content TEXT NOT NULL DEFAULT '',
    response          TEXT NOT NULL DEFAULT '',
    error_code        VARCHAR(30) NOT NULL DEFAULT '',
    error_message     TEXT NOT NULL DEFAULT '',
    retry_count       INTEGER NOT NULL DEFAULT 0,
    max_retries       INTEGER NOT NULL DEFAULT 3,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    sent_at           TIMESTAMPTZ,
    failed_at         TIMESTAMPTZ
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS users (
    id           TEXT PRIMARY KEY,
    email        TEXT NOT NULL,
    device_token TEXT,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS subscriptions (
    id         SERIAL PRIMARY KEY,
    user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    ticker     VARCHAR(6) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE(user_id, ticker)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS notification_logs (
    id            SERIAL PRIMARY KEY,
    user_id       TEXT NOT NULL,
    article_id    INTEGER NOT NULL,
    channel       VARCHAR(10) NOT NULL,
    status        VARCHAR(10) NOT NULL,
    error_message TEXT NOT NULL DEFAULT '',
    sent_at       TIMESTAMPTZ,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	indexes := []string{
		// duplicate candidate lookup: WHERE ticker = $1 AND pub_date >= $2
		`CREATE INDEX IF NOT EXISTS idx_articles_ticker_pub_date ON articles(ticker, pub_date DESC)`,
		// scoring backlog: WHERE processed = FALSE ORDER BY pub_date
		`CREATE INDEX IF NOT EXISTS idx_articles_unprocessed ON articles(pub_date) WHERE processed = FALSE`,
		// notification window: WHERE updated_at >= $1
		`CREATE INDEX IF NOT EXISTS idx_scores_updated_at ON scores(updated_at DESC)`,
		// post updater: WHERE needs_update = TRUE
		`CREATE INDEX IF NOT EXISTS idx_publish_posts_needs_update ON publish_posts(created_at) WHERE needs_update = TRUE`,
		`CREATE INDEX IF NOT EXISTS idx_publish_logs_post_id ON publish_logs(post_id)`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_ticker ON subscriptions(ticker)`,
		// dedup guard lookup: (user_id, article_id, channel, status)
		`CREATE INDEX IF NOT EXISTS idx_notification_logs_triple ON notification_logs(user_id, article_id, channel)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown drops the pipeline schema in reverse dependency order.
// Use with caution: this deletes all data in the affected tables.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS notification_logs`,
		`DROP TABLE IF EXISTS subscriptions`,
		`DROP TABLE IF EXISTS users`,
		`DROP TABLE IF EXISTS publish_logs`,
		`DROP TABLE IF EXISTS publish_posts`,
		`DROP TABLE IF EXISTS scores`,
		`DROP TABLE IF EXISTS articles`,
	}

	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
