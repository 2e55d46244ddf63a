package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"quote-bridge/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	return Parse(data)
}

// -----------------------------------------------------------------------------

// Parse builds a Config from YAML bytes, filling defaults before validation.
func Parse(data []byte) (*Config, error) {
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// Default returns a validated configuration with every default applied.
func Default() *Config {
	c := &Config{MConfig: &models.MConfig{}}
	c.ApplyDefaults()
	return c
}

// -----------------------------------------------------------------------------

// ApplyDefaults fills every unset field
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "quote-bridge"
	}
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = models.DefaultPort
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.PollIntervalMs == 0 {
		c.PollIntervalMs = 500
	}
	if c.SymbolRoot == "" {
		c.SymbolRoot = ".SPXW"
	}

	// Source
	if c.Source.Type == "" {
		c.Source.Type = "sim"
	}
	if c.Source.Breaker.ConsecutiveFailures == 0 {
		c.Source.Breaker.ConsecutiveFailures = 20
	}
	if c.Source.Breaker.OpenTimeoutMs == 0 {
		c.Source.Breaker.OpenTimeoutMs = 3000
	}
	if c.Source.Breaker.HalfOpenRequests == 0 {
		c.Source.Breaker.HalfOpenRequests = 1
	}

	// Network
	if c.Network.RequestTimeoutMs == 0 {
		c.Network.RequestTimeoutMs = 1000
	}
	if c.Network.UserAgent == "" {
		c.Network.UserAgent = "quote-bridge/1.0"
	}

	// Supervisor
	if c.Supervisor.APIHost == "" {
		c.Supervisor.APIHost = "127.0.0.1"
	}
	if c.Supervisor.APIPort == 0 {
		c.Supervisor.APIPort = 8766
	}
	if c.Supervisor.WorkerPath == "" {
		c.Supervisor.WorkerPath = "quote-worker"
	}
	if c.Supervisor.GracePeriodMs == 0 {
		c.Supervisor.GracePeriodMs = 1000
	}
	if c.Supervisor.RespawnDelayMs == 0 {
		c.Supervisor.RespawnDelayMs = 500
	}
	if c.Supervisor.LogHistory == 0 {
		c.Supervisor.LogHistory = 500
	}

	// Worker
	if c.Worker.LogFile == "" {
		c.Worker.LogFile = "logs/quote-worker.log"
	}

	// Storage
	if c.Storage.DBType == "" {
		c.Storage.DBType = "sqlite"
	}
	if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
		c.Storage.DBPath = "quote-bridge.db"
	}
	if c.Storage.RetentionDays == 0 {
		c.Storage.RetentionDays = 7
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Client listener
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 0 and 65535)", c.Port)
	}
	if c.PollIntervalMs <= 0 {
		return fmt.Errorf("poll interval must be greater than 0")
	}

	// Source
	switch c.Source.Type {
	case "sim":
	case "http":
		if c.Source.BaseURL == "" {
			return fmt.Errorf("source base_url cannot be empty for http source")
		}
	default:
		return fmt.Errorf("unsupported source type: %s", c.Source.Type)
	}
	if c.Source.FieldTimeoutMs < 0 {
		return fmt.Errorf("field timeout cannot be negative")
	}

	// Network
	if c.Network.RequestTimeoutMs <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	// Supervisor
	if c.Supervisor.APIPort <= 0 || c.Supervisor.APIPort > 65535 {
		return fmt.Errorf("invalid control API port number: %d", c.Supervisor.APIPort)
	}
	if c.Supervisor.APIPort == c.Port && c.Port != 0 {
		return fmt.Errorf("control API port %d collides with the client listener port", c.Port)
	}
	if c.Supervisor.GracePeriodMs < 0 || c.Supervisor.RespawnDelayMs < 0 {
		return fmt.Errorf("supervisor delays cannot be negative")
	}

	// Storage
	switch strings.ToLower(c.Storage.DBType) {
	case "none":
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("database connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Storage.DBType)
	}

	return nil
}

// -----------------------------------------------------------------------------

// PollInterval returns the poll timer period.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// GracePeriod is how long a worker may take to honor quit before it is killed.
func (c *Config) GracePeriod() time.Duration {
	return time.Duration(c.Supervisor.GracePeriodMs) * time.Millisecond
}

// RespawnDelay separates a stop from the following start on restart.
func (c *Config) RespawnDelay() time.Duration {
	return time.Duration(c.Supervisor.RespawnDelayMs) * time.Millisecond
}
