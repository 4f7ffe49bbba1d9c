package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"auth-gateway/internal/logger"

	"github.com/cenkalti/backoff/v5"
	_ "github.com/lib/pq"
)

type DB struct {
	*sql.DB
}

// Open connects to Postgres, retrying the initial ping with exponential
// backoff until ctx is done or maxElapsed passes.
func Open(ctx context.Context, dsn string, maxElapsed time.Duration) (*DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		if err := sqlDB.PingContext(pingCtx); err != nil {
			logger.Warn("database not ready", map[string]any{"error": err})
			return struct{}{}, err
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(maxElapsed),
	)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}

	return &DB{DB: sqlDB}, nil
}
