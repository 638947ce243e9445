// Package main implements the entry point for the study server, which
// schedules spaced-repetition reviews and tracks learners' study sessions.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/scry-study/internal/config"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/spf13/pflag"
)

// cliOptions holds the flags that are not configuration keys.
type cliOptions struct {
	configFile string
	migrate    string
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		slog.Error("study server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run parses args, loads configuration and either executes a migration
// command or serves HTTP until SIGINT or SIGTERM.
func run(args []string) error {
	cfg, opts, err := loadAppConfig(args)
	if err != nil {
		return err
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	l.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.Bool("redis_enabled", cfg.Redis.Enabled))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.migrate != "" {
		return handleMigrations(ctx, cfg, opts.migrate, l)
	}

	db, err := setupAppDatabase(ctx, cfg, l)
	if err != nil {
		return err
	}

	app, err := newApplication(ctx, cfg, l, db)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}

// loadAppConfig parses the command line and loads the configuration it points at.
func loadAppConfig(args []string) (*config.Config, *cliOptions, error) {
	flags, opts := newFlagSet()
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ConfigFile: opts.configFile,
		Flags:      flags,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, opts, nil
}

// newFlagSet defines the command line. Flags named like configuration keys
// override file and environment values when set.
func newFlagSet() (*pflag.FlagSet, *cliOptions) {
	opts := &cliOptions{}
	flags := pflag.NewFlagSet("scry-study", pflag.ContinueOnError)

	flags.StringVar(&opts.configFile, "config", "", "path to a YAML config file")
	flags.StringVar(&opts.migrate, "migrate", "", "run a migration command (up, down, status, version, reset) and exit")

	flags.Int("server.port", 8080, "HTTP listen port")
	flags.String("server.log_level", "info", "log level (debug, info, warn, error)")
	flags.String("storage.driver", config.StorageDriverPostgres, "storage driver (postgres, memory)")

	return flags, opts
}
