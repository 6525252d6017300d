package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// server.port is read from JSON_BUCKET_SERVER_PORT.
const EnvPrefix = "JSON_BUCKET"

// Default values for optional settings.
const (
	DefaultPort                   = 8080
	DefaultLogLevel               = "info"
	DefaultMaxBodyBytes           = 1 << 20
	DefaultShutdownTimeoutSeconds = 10
	DefaultRateBurst              = 50
	DefaultConnectTimeoutSeconds  = 10
	DefaultMaxPoolSize            = 50
	DefaultLimit                  = 100
	DefaultMaxTimeMS              = 60000
	DefaultTimeField              = "_time"
	DefaultMetadataCacheSeconds   = 10
)

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"port":      "server.port",
	"log-level": "server.log_level",
	"read-only": "server.read_only",
	"mongo":     "database.url",
}

// NewFlagSet defines the command-line flags understood by Load.
func NewFlagSet(name string) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.IntP("port", "p", DefaultPort, "port to listen on (env JSON_BUCKET_PORT)")
	flagSet.StringP("mongo", "m", "", "MongoDB connection string (env JSON_BUCKET_MONGO)")
	flagSet.String("log-level", DefaultLogLevel, "log level: debug, info, warn or error")
	flagSet.Bool("read-only", false, "reject insert and insert_many requests")
	flagSet.String("config", "", "path to a YAML config file")
	return flagSet
}

// Load configuration from defaults, an optional config file, an optional
// .env file, environment variables, and flags, in increasing order of
// precedence. flags may be nil.
// Returns a populated Config struct or an error if loading/validation fails.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if err := readConfigFile(v, flags); err != nil {
		return nil, err
	}

	// .env never overrides variables already present in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Short aliases kept for compatibility with existing deployments.
	if err := v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", EnvPrefix+"_PORT"); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}
	if err := v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", EnvPrefix+"_MONGO"); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %q: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.log_level", DefaultLogLevel)
	v.SetDefault("server.read_only", false)
	v.SetDefault("server.max_body_bytes", DefaultMaxBodyBytes)
	v.SetDefault("server.shutdown_timeout_seconds", DefaultShutdownTimeoutSeconds)
	v.SetDefault("server.rate_limit", 0)
	v.SetDefault("server.rate_burst", DefaultRateBurst)

	v.SetDefault("database.connect_timeout_seconds", DefaultConnectTimeoutSeconds)
	v.SetDefault("database.max_pool_size", DefaultMaxPoolSize)
	v.SetDefault("database.min_pool_size", 0)

	v.SetDefault("gateway.default_limit", DefaultLimit)
	v.SetDefault("gateway.default_max_time_ms", DefaultMaxTimeMS)
	v.SetDefault("gateway.time_field", DefaultTimeField)
	v.SetDefault("gateway.metadata_cache_seconds", DefaultMetadataCacheSeconds)
}

// readConfigFile reads config.yaml from the working directory or
// /etc/json-bucket, or the file named by the --config flag. Only an explicitly
// named file is required to exist.
func readConfigFile(v *viper.Viper, flags *pflag.FlagSet) error {
	var explicit string
	if flags != nil {
		explicit, _ = flags.GetString("config")
	}

	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/json-bucket")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}
