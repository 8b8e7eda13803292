package db

import (
	"context"
	"fmt"
	"time"

	"learning_webapp/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	maxConns        = 15
	minConns        = 2
	maxConnLifetime = time.Hour
	connectTimeout  = 30 * time.Second
	sessionTimezone = "Europe/Moscow"
)

// Connect opens a pool sized for the API and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = maxConns
	cfg.MinConns = minConns
	cfg.MaxConnLifetime = maxConnLifetime
	cfg.ConnConfig.ConnectTimeout = connectTimeout
	if _, ok := cfg.ConnConfig.RuntimeParams["timezone"]; !ok {
		cfg.ConnConfig.RuntimeParams["timezone"] = sessionTimezone
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connected", "max_conns", maxConns)
	return pool, nil
}

// MustConnect is Connect for command entry points.
func MustConnect(dsn string) *pgxpool.Pool {
	pool, err := Connect(context.Background(), dsn)
	if err != nil {
		logger.Fatal("database unavailable", "error", err)
	}
	return pool
}
