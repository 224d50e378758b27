package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/janus/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// External identity provider configuration
	IdP IdPConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds local profile store configuration
type DatabaseConfig struct {
	PostgresURL  string
	MaxOpenConns int
	MaxIdleConns int
}

// IdPConfig holds the external identity provider connection settings.
// The issuer is derived from BaseURL and Realm; the client credentials
// identify this service for the client_credentials grant.
type IdPConfig struct {
	BaseURL        string
	Realm          string
	ClientID       string
	ClientSecret   string
	RequestTimeout time.Duration
}

// IssuerURL returns the OIDC issuer for the configured realm
func (c IdPConfig) IssuerURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/realms/" + c.Realm
}

// TokenURL returns the OAuth2 token endpoint for the configured realm
func (c IdPConfig) TokenURL() string {
	return c.IssuerURL() + "/protocol/openid-connect/token"
}

// AdminURL returns the administrative API base for the configured realm
func (c IdPConfig) AdminURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/admin/realms/" + c.Realm
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Database:      loadDatabaseConfig(),
		IdP:           loadIdPConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("JANUS_HOST", "0.0.0.0"),
		Port:            getEnv("JANUS_PORT", "8081"),
		ReadTimeout:     getEnvDuration("JANUS_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("JANUS_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("JANUS_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("JANUS_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// loadDatabaseConfig loads database configuration from environment
func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		PostgresURL:  getEnv("JANUS_POSTGRES_URL", ""),
		MaxOpenConns: getEnvInt("JANUS_POSTGRES_MAX_OPEN_CONNS", 25),
		MaxIdleConns: getEnvInt("JANUS_POSTGRES_MAX_IDLE_CONNS", 5),
	}
}

// loadIdPConfig loads identity provider configuration from environment
func loadIdPConfig() IdPConfig {
	return IdPConfig{
		BaseURL:        getEnv("JANUS_IDP_BASE_URL", "http://localhost:8080"),
		Realm:          getEnv("JANUS_IDP_REALM", ""),
		ClientID:       getEnv("JANUS_IDP_CLIENT_ID", ""),
		ClientSecret:   getEnv("JANUS_IDP_CLIENT_SECRET", ""),
		RequestTimeout: getEnvDuration("JANUS_IDP_TIMEOUT", 10*time.Second),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       observability.ParseLogLevel(getEnv("JANUS_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("JANUS_METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Database.PostgresURL == "" {
		return fmt.Errorf("postgres URL is required")
	}
	if c.IdP.Realm == "" {
		return fmt.Errorf("identity provider realm is required")
	}
	if c.IdP.ClientID == "" {
		return fmt.Errorf("identity provider client id is required")
	}
	if c.IdP.ClientSecret == "" {
		return fmt.Errorf("identity provider client secret is required")
	}
	if c.IdP.RequestTimeout <= 0 {
		return fmt.Errorf("identity provider request timeout must be positive")
	}
	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
