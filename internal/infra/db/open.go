package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/lyyw205/stock-news/internal/pkg/config"
)

// ErrNoDSN is returned by Open when DATABASE_URL is not set.
var ErrNoDSN = errors.New("DATABASE_URL not set")

// pingTimeout bounds the startup connectivity check.
const pingTimeout = 5 * time.Second

// PoolConfig holds the connection pool limits applied to the shared handle.
// Every repository and both circuit-breaker wrappers run on this one pool.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPoolConfig returns the pool limits used when the environment does
// not override them.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// LoadPoolConfig reads pool limits from the environment with the same
// fail-open policy as the worker config: an invalid or out-of-range value
// falls back to its default with a warning instead of stopping startup.
func LoadPoolConfig(logger *slog.Logger) PoolConfig {
	cfg := DefaultPoolConfig()

	loadInt := func(envKey string, target *int, min, max int) {
		result := config.LoadEnvInt(envKey, *target, func(v int) error {
			return config.ValidateIntRange(v, min, max)
		})
		*target = result.Value.(int)
		warnFallback(logger, envKey, result)
	}
	loadDuration := func(envKey string, target *time.Duration, min, max time.Duration) {
		result := config.LoadEnvDuration(envKey, *target, func(d time.Duration) error {
			return config.ValidateDuration(d, min, max)
		})
		*target = result.Value.(time.Duration)
		warnFallback(logger, envKey, result)
	}

	loadInt("DB_MAX_OPEN_CONNS", &cfg.MaxOpenConns, 1, 500)
	loadInt("DB_MAX_IDLE_CONNS", &cfg.MaxIdleConns, 1, 500)
	loadDuration("DB_CONN_MAX_LIFETIME", &cfg.ConnMaxLifetime, time.Minute, 24*time.Hour)
	loadDuration("DB_CONN_MAX_IDLE_TIME", &cfg.ConnMaxIdleTime, time.Minute, 24*time.Hour)

	return cfg
}

func warnFallback(logger *slog.Logger, envKey string, result config.LoadResult) {
	for _, warning := range result.Warnings {
		logger.Warn("database pool configuration fallback",
			slog.String("env_key", envKey),
			slog.String("detail", warning))
	}
}

// Open connects to the database named by DATABASE_URL, applies the pool
// limits and verifies connectivity with a short ping. The caller owns the
// returned handle and decides how to react to a failure.
func Open(logger *slog.Logger) (*sql.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, ErrNoDSN
	}

	handle, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	cfg := LoadPoolConfig(logger)
	handle.SetMaxOpenConns(cfg.MaxOpenConns)
	handle.SetMaxIdleConns(cfg.MaxIdleConns)
	handle.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	handle.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := handle.PingContext(ctx); err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database pool ready",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))
	return handle, nil
}
