package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/scry-study/internal/config"
)

// pingTimeout bounds the startup connectivity check.
const pingTimeout = 5 * time.Second

// setupAppDatabase establishes a connection to the database and configures connection pools.
// It returns a nil *sql.DB when the memory storage driver is selected.
func setupAppDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	if cfg.Storage.Driver != config.StorageDriverPostgres {
		logger.Warn("using in-memory storage; review states and sessions are lost on restart")
		return nil, nil
	}

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	logger.Info("database connection established",
		slog.String("url", maskDatabaseURL(cfg.Database.URL)),
		slog.Int("max_open_conns", cfg.Database.MaxOpenConns))
	return db, nil
}

// openDatabase opens and pings a pgx-backed connection pool.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
