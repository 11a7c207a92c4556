package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Credential store backends.
const (
	CredentialBackendMemory = "memory"
	CredentialBackendRedis  = "redis"
)

// ServerConfig holds all configuration for the server.
// Tags use mapstructure for Viper unmarshalling and env variable binding.
type ServerConfig struct {
	HTTPPort    string `mapstructure:"HTTP_PORT"`
	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogPretty   bool   `mapstructure:"LOG_PRETTY"`

	OtelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// Session tokens
	SessionSecret string `mapstructure:"SESSION_SECRET"`
	SessionIssuer string `mapstructure:"SESSION_ISSUER"`
	SessionTTLMin int    `mapstructure:"SESSION_TTL_MIN"`

	// One-time codes
	CredentialBackend string `mapstructure:"CREDENTIAL_BACKEND"` // memory | redis
	RedisAddr         string `mapstructure:"REDIS_ADDR"`
	RedisKeyPrefix    string `mapstructure:"REDIS_KEY_PREFIX"`
	CodeTTLMin        int    `mapstructure:"CODE_TTL_MIN"`
	SweepIntervalMin  int    `mapstructure:"SWEEP_INTERVAL_MIN"`

	// Administrator bootstrap; the account is created at startup when both
	// are set and no account with that email exists yet.
	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`
}

// LoadConfig reads configuration from file, environment variables, and
// defaults.
func LoadConfig() (*ServerConfig, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/vetrina-auth/")
	v.AddConfigPath("$HOME/.vetrina-auth")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/vetrina_auth_dev")
	v.SetDefault("MONGO_DB_NAME", "vetrina_auth_dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("OTEL_SERVICE_NAME", "vetrina-auth")
	v.SetDefault("SESSION_SECRET", "a_very_secret_session_key_change_me") // CHANGE IN PRODUCTION
	v.SetDefault("SESSION_ISSUER", "vetrina-auth")
	v.SetDefault("SESSION_TTL_MIN", 60)
	v.SetDefault("CREDENTIAL_BACKEND", CredentialBackendMemory)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_KEY_PREFIX", "vetrina")
	v.SetDefault("CODE_TTL_MIN", 5)
	v.SetDefault("SWEEP_INTERVAL_MIN", 5)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine: defaults and env vars apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if cfg.CredentialBackend != CredentialBackendMemory && cfg.CredentialBackend != CredentialBackendRedis {
		return nil, fmt.Errorf("invalid CREDENTIAL_BACKEND %q", cfg.CredentialBackend)
	}

	return &cfg, nil
}
