package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/config"
	"github.com/phrazzld/scry-study/internal/platform/postgres/migrations"
	"github.com/pressly/goose/v3"
)

// MigrationTableName is the name of the table used by goose to track migrations.
const MigrationTableName = "schema_migrations"

// ErrUnknownMigrationCommand is returned for a --migrate value goose is not asked to run.
var ErrUnknownMigrationCommand = errors.New("unknown migration command")

// slogGooseLogger adapts the goose logger interface to use slog
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf implements the goose.Logger Printf method by forwarding messages to Info
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

// Fatalf implements the goose.Logger Fatalf method by forwarding error messages to Error.
// Unlike the standard Fatalf it does NOT call os.Exit; the error is returned to main.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

// migrationCommands maps --migrate values onto goose operations.
var migrationCommands = map[string]func(context.Context, *sql.DB, string) error{
	"up":      func(ctx context.Context, db *sql.DB, dir string) error { return goose.UpContext(ctx, db, dir) },
	"down":    func(ctx context.Context, db *sql.DB, dir string) error { return goose.DownContext(ctx, db, dir) },
	"reset":   func(ctx context.Context, db *sql.DB, dir string) error { return goose.ResetContext(ctx, db, dir) },
	"status":  func(ctx context.Context, db *sql.DB, dir string) error { return goose.StatusContext(ctx, db, dir) },
	"version": func(ctx context.Context, db *sql.DB, dir string) error { return goose.VersionContext(ctx, db, dir) },
}

// handleMigrations runs one goose command against the configured database
// using the migrations embedded in the binary.
func handleMigrations(ctx context.Context, cfg *config.Config, command string, logger *slog.Logger) error {
	op, ok := migrationCommands[command]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMigrationCommand, command)
	}
	if cfg.Database.URL == "" {
		return errors.New("database URL is empty: check SCRY_DATABASE_URL or the config file")
	}

	migrationLogger := logger.With(
		slog.String("correlation_id", uuid.NewString()),
		slog.String("component", "migrations"),
		slog.String("command", command),
	)

	startTime := time.Now()
	migrationLogger.Info("starting migration operation",
		slog.String("url", maskDatabaseURL(cfg.Database.URL)))

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			migrationLogger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}()

	goose.SetLogger(&slogGooseLogger{logger: migrationLogger})
	goose.SetBaseFS(migrations.FS)
	goose.SetTableName(MigrationTableName)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := op(ctx, db, migrations.Dir); err != nil {
		migrationLogger.Error("migration failed",
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(startTime).Milliseconds()))
		return fmt.Errorf("migration %s failed: %w", command, err)
	}

	migrationLogger.Info("migration operation completed",
		slog.Int64("duration_ms", time.Since(startTime).Milliseconds()))
	return nil
}

// maskDatabaseURL masks the password in a database URL for safe logging.
func maskDatabaseURL(dbURL string) string {
	parsedURL, err := url.Parse(dbURL)
	if err != nil {
		return "invalid-url"
	}
	if parsedURL.User != nil {
		if _, hasPassword := parsedURL.User.Password(); hasPassword {
			parsedURL.User = url.UserPassword(parsedURL.User.Username(), "xxxxx")
		}
	}
	return parsedURL.String()
}
