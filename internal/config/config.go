package config

import "time"

// Storage drivers
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Events     EventsConfig     `mapstructure:"events" validate:"required"`
	Scheduling SchedulingConfig `mapstructure:"scheduling"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
// URL is required when the postgres storage driver is selected.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url" validate:"omitempty,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
}

// StorageConfig selects where review states and durable sessions live.
type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres memory"`

	// EphemeralTTL is how long an idle pass over a disposable deck is kept.
	// Zero keeps passes until the process exits.
	EphemeralTTL time.Duration `mapstructure:"ephemeral_ttl" validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret              string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes   int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	ClockSkewToleranceSecs int    `mapstructure:"clock_skew_tolerance_secs" validate:"gte=0"`
}

// RedisConfig configures the optional study-event publisher.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
	Channel  string `mapstructure:"channel" validate:"required_if=Enabled true"`
}

// EventsConfig sizes the asynchronous event dispatcher.
type EventsConfig struct {
	QueueSize   int `mapstructure:"queue_size" validate:"required,gt=0"`
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`
}

// SchedulingConfig tunes the SM-2 scheduler. Zero values keep the classic
// SM-2 constants.
type SchedulingConfig struct {
	InitialEaseFactor float64 `mapstructure:"initial_ease_factor" validate:"omitempty,gte=1.3"`
	MinEaseFactor     float64 `mapstructure:"min_ease_factor" validate:"omitempty,gte=1.3"`
	FirstInterval     int     `mapstructure:"first_interval" validate:"gte=0"`
	SecondInterval    int     `mapstructure:"second_interval" validate:"gte=0"`
	LapseInterval     int     `mapstructure:"lapse_interval" validate:"gte=0"`
}
