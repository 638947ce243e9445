package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "SCRY"

// LoadOptions customizes where Load reads configuration from.
type LoadOptions struct {
	// ConfigFile is an explicit config file path. When empty, Load looks for
	// an optional config.yaml in the working directory.
	ConfigFile string

	// Flags are bound over file and environment values. Flag names use
	// dots for nesting, e.g. "server.port".
	Flags *pflag.FlagSet
}

// Load configuration from environment variables and an optional config.yaml.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

// LoadWithOptions is Load with an explicit config file and command-line flags.
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		if err := v.BindPFlags(opts.Flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags and cross-field rules.
func Validate(cfg *Config) error {
	validate := validator.New()
	validate.RegisterStructValidation(validateStorage, Config{})

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// validateStorage requires a database URL when the postgres driver is selected.
func validateStorage(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	if cfg.Storage.Driver == StorageDriverPostgres && cfg.Database.URL == "" {
		sl.ReportError(cfg.Database.URL, "Database.URL", "URL", "required_with_postgres", "")
	}
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 25)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("storage.driver", StorageDriverPostgres)
	v.SetDefault("storage.ephemeral_ttl", 2*time.Hour)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.clock_skew_tolerance_secs", 30)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "scry:study-events")

	v.SetDefault("events.queue_size", 256)
	v.SetDefault("events.worker_count", 2)

	v.SetDefault("scheduling.initial_ease_factor", 2.5)
	v.SetDefault("scheduling.min_ease_factor", 1.3)
	v.SetDefault("scheduling.first_interval", 1)
	v.SetDefault("scheduling.second_interval", 6)
	v.SetDefault("scheduling.lapse_interval", 1)
}
