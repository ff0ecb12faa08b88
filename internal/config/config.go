// Package config provides configuration structures and validation for the
// wallet service. It handles environment-based configuration for the HTTP
// server, PostgreSQL, auth tokens, and the optional transaction event feed.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration. Each field represents
// a subsystem's configuration and is validated during startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Postgres    PostgresConfig
	JWT         JWTConfig
	Events      EventsConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string        // Database connection string
	MaxConns        int32         // Maximum number of open connections
	MinConns        int32         // Minimum number of idle connections
	ConnMaxLifetime time.Duration // Maximum lifetime of a connection
	ConnMaxIdleTime time.Duration // Maximum idle time of a connection
	MigrationsPath  string        // Path to migration files
}

// JWTConfig contains access and refresh token settings
type JWTConfig struct {
	Secret     string        // HMAC signing secret for access tokens
	Issuer     string        // Token issuer claim
	AccessTTL  time.Duration // Access token lifetime
	RefreshTTL time.Duration // Refresh token lifetime
}

// EventsConfig contains settings for the post-commit transaction event feed.
// The feed is disabled when Brokers is empty.
type EventsConfig struct {
	Brokers           string
	Topic             string
	NumPartitions     int
	ReplicationFactor int
	WriteTimeout      time.Duration
	PoolSize          int // Dispatch worker pool size
}

// Enabled reports whether the event feed should be started.
func (c EventsConfig) Enabled() bool {
	return c.Brokers != ""
}

// validate performs validation of all configuration values, ensuring they
// meet minimum requirements and logical constraints
func (c *Config) validate() error {
	var validationErrors []string

	// Validate Server config
	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	// Validate PostgreSQL config
	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if c.Postgres.ConnMaxLifetime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if c.Postgres.ConnMaxIdleTime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	// Validate JWT config
	if c.JWT.Secret == "" {
		validationErrors = append(validationErrors, "JWT_SECRET is required")
	}
	if c.JWT.AccessTTL <= 0 {
		validationErrors = append(validationErrors, "JWT_ACCESS_TTL must be greater than 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		validationErrors = append(validationErrors, "JWT_REFRESH_TTL must be greater than 0")
	}

	// Validate Events config only when the feed is enabled
	if c.Events.Enabled() {
		if c.Events.Topic == "" {
			validationErrors = append(validationErrors, "EVENTS_TOPIC is required when EVENTS_BROKERS is set")
		}
		if c.Events.WriteTimeout <= 0 {
			validationErrors = append(validationErrors, "EVENTS_WRITE_TIMEOUT must be greater than 0")
		}
		if c.Events.PoolSize <= 0 {
			validationErrors = append(validationErrors, "EVENTS_POOL_SIZE must be greater than 0")
		}
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
