package db

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func clearPoolEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_MAX_OPEN_CONNS", "")
	t.Setenv("DB_MAX_IDLE_CONNS", "")
	t.Setenv("DB_CONN_MAX_LIFETIME", "")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "")
}

func TestDefaultPoolConfig(t *testing.T) {
	cfg := DefaultPoolConfig()

	assert.Equal(t, 25, cfg.MaxOpenConns)
	assert.Equal(t, 10, cfg.MaxIdleConns)
	assert.Equal(t, time.Hour, cfg.ConnMaxLifetime)
	assert.Equal(t, 30*time.Minute, cfg.ConnMaxIdleTime)
}

func TestLoadPoolConfig_DefaultsWhenUnset(t *testing.T) {
	clearPoolEnv(t)

	cfg := LoadPoolConfig(discardLogger())

	assert.Equal(t, DefaultPoolConfig(), cfg)
}

func TestLoadPoolConfig_Overrides(t *testing.T) {
	clearPoolEnv(t)
	t.Setenv("DB_MAX_OPEN_CONNS", "100")
	t.Setenv("DB_MAX_IDLE_CONNS", "50")
	t.Setenv("DB_CONN_MAX_LIFETIME", "2h")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45m")

	cfg := LoadPoolConfig(discardLogger())

	assert.Equal(t, 100, cfg.MaxOpenConns)
	assert.Equal(t, 50, cfg.MaxIdleConns)
	assert.Equal(t, 2*time.Hour, cfg.ConnMaxLifetime)
	assert.Equal(t, 45*time.Minute, cfg.ConnMaxIdleTime)
}

func TestLoadPoolConfig_InvalidValuesFallBack(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		value  string
	}{
		{"open conns not numeric", "DB_MAX_OPEN_CONNS", "plenty"},
		{"open conns zero", "DB_MAX_OPEN_CONNS", "0"},
		{"open conns negative", "DB_MAX_OPEN_CONNS", "-10"},
		{"idle conns not numeric", "DB_MAX_IDLE_CONNS", "abc"},
		{"idle conns zero", "DB_MAX_IDLE_CONNS", "0"},
		{"lifetime not a duration", "DB_CONN_MAX_LIFETIME", "forever"},
		{"lifetime zero", "DB_CONN_MAX_LIFETIME", "0s"},
		{"lifetime negative", "DB_CONN_MAX_LIFETIME", "-1h"},
		{"idle time not a duration", "DB_CONN_MAX_IDLE_TIME", "soon"},
		{"idle time zero", "DB_CONN_MAX_IDLE_TIME", "0m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearPoolEnv(t)
			t.Setenv(tt.envKey, tt.value)

			cfg := LoadPoolConfig(discardLogger())

			assert.Equal(t, DefaultPoolConfig(), cfg)
		})
	}
}

func TestLoadPoolConfig_PartialOverrides(t *testing.T) {
	clearPoolEnv(t)
	t.Setenv("DB_MAX_OPEN_CONNS", "75")
	t.Setenv("DB_CONN_MAX_LIFETIME", "3h")

	cfg := LoadPoolConfig(discardLogger())

	assert.Equal(t, 75, cfg.MaxOpenConns)
	assert.Equal(t, 3*time.Hour, cfg.ConnMaxLifetime)
	assert.Equal(t, 10, cfg.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, cfg.ConnMaxIdleTime)
}

func TestOpen_MissingDSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	handle, err := Open(discardLogger())

	assert.Nil(t, handle)
	assert.True(t, errors.Is(err, ErrNoDSN))
}

func TestOpen_Integration(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	t.Setenv("DB_MAX_OPEN_CONNS", "50")
	t.Setenv("DB_MAX_IDLE_CONNS", "25")

	handle, err := Open(discardLogger())
	if err != nil {
		t.Fatalf("Open err=%v", err)
	}
	defer func() { _ = handle.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	assert.NoError(t, handle.PingContext(ctx))
}
