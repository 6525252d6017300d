package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Gateway  GatewayConfig  `mapstructure:"gateway" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// ReadOnly rejects insert and insert_many with 403.
	ReadOnly bool `mapstructure:"read_only"`

	MaxBodyBytes           int64 `mapstructure:"max_body_bytes" validate:"gt=0"`
	ShutdownTimeoutSeconds int   `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`

	// RateLimit is the global request budget per second; 0 disables limiting.
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0"`
	RateBurst int     `mapstructure:"rate_burst" validate:"gt=0"`
}

// ShutdownTimeout returns the graceful shutdown budget as a duration.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL                   string `mapstructure:"url" validate:"required,url,startswith=mongodb"`
	ConnectTimeoutSeconds int    `mapstructure:"connect_timeout_seconds" validate:"gt=0"`
	MaxPoolSize           uint64 `mapstructure:"max_pool_size" validate:"gt=0"`
	MinPoolSize           uint64 `mapstructure:"min_pool_size" validate:"ltefield=MaxPoolSize"`
}

// ConnectTimeout returns the connection and server selection timeout.
func (c DatabaseConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}

// GatewayConfig contains the request translation defaults.
type GatewayConfig struct {
	DefaultLimit         int64  `mapstructure:"default_limit" validate:"gt=0"`
	DefaultMaxTimeMS     int64  `mapstructure:"default_max_time_ms" validate:"gt=0"`
	TimeField            string `mapstructure:"time_field" validate:"required,excludesall=$."`
	MetadataCacheSeconds int    `mapstructure:"metadata_cache_seconds" validate:"gte=0"`
}

// MetadataCacheTTL returns how long database and collection listings are cached.
func (c GatewayConfig) MetadataCacheTTL() time.Duration {
	return time.Duration(c.MetadataCacheSeconds) * time.Second
}
