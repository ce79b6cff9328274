package server

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/anshc022/imf-gadget-api/internal/logging"
	"github.com/anshc022/imf-gadget-api/internal/server/config"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// sqlOpen is a test seam for sql.Open.
var sqlOpen = sql.Open

// OpenDatabase opens the pgx pool, sizes it from the config and waits for the
// server to answer a ping, retrying DBConnectAttempts times.
func OpenDatabase(ctx context.Context, cfg *config.Config, logger logging.Logger) (*sql.DB, error) {
	if cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("database DSN is not set")
	}

	db, err := sqlOpen("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxIdleTime(cfg.DBConnMaxIdleTime)

	attempts := max(cfg.DBConnectAttempts, 1)
	for i := 1; i <= attempts; i++ {
		logger.Info(ctx, "connecting to database", "attempt", i, "of", attempts)

		pingCtx, cancel := context.WithTimeout(ctx, cfg.StorageTimeout)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return db, nil
		}

		logger.Warn(ctx, "database not ready", "attempt", i, "error", err)
		if i == attempts {
			break
		}

		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(cfg.DBConnectRetryDelay):
		}
	}

	_ = db.Close()
	return nil, fmt.Errorf("failed to connect to db after %d attempts: %w", attempts, err)
}
