package db

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectSchema(mock sqlmock.Sqlmock) {
	tables := []string{
		"CREATE TABLE IF NOT EXISTS articles",
		"CREATE TABLE IF NOT EXISTS scores",
		"CREATE TABLE IF NOT EXISTS publish_posts",
		"CREATE TABLE IF NOT EXISTS publish_logs",
		"CREATE TABLE IF NOT EXISTS users",
		"CREATE TABLE IF NOT EXISTS subscriptions",
		"CREATE TABLE IF NOT EXISTS notification_logs",
	}
	for _, stmt := range tables {
		mock.ExpectExec(stmt).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	indexes := []string{
		"idx_articles_ticker_pub_date",
		"idx_articles_unprocessed",
		"idx_scores_updated_at",
		"idx_publish_posts_needs_update",
		"idx_publish_logs_post_id",
		"idx_subscriptions_ticker",
		"idx_notification_logs_triple",
	}
	for _, idx := range indexes {
		mock.ExpectExec("CREATE INDEX IF NOT EXISTS " + idx).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
}

func TestMigrateUp_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	expectSchema(mock)

	err = MigrateUp(db)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateUp_TableCreationFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS articles").
		WillReturnError(sql.ErrConnDone)

	err = MigrateUp(db)
	assert.Error(t, err)
}

func TestMigrateDown_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	drops := []string{
		"DROP TABLE IF EXISTS notification_logs",
		"DROP TABLE IF EXISTS subscriptions",
		"DROP TABLE IF EXISTS users",
		"DROP TABLE IF EXISTS publish_logs",
		"DROP TABLE IF EXISTS publish_posts",
		"DROP TABLE IF EXISTS scores",
		"DROP TABLE IF EXISTS articles",
	}
	for _, stmt := range drops {
		mock.ExpectExec(stmt).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	err = MigrateDown(db)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
