package db

import (
	"context"
	"time"

	"tasker/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens the pool and pings it. Failures are fatal.
func Connect(ctx context.Context, dsn string) *pgxpool.Pool {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Fatal("invalid DATABASE_URL", "error", err)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to create database pool", "error", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Fatal("failed to ping database", "error", err)
	}

	logger.Info("database connected", "max_conns", cfg.MaxConns)
	return pool
}
