package config

import (
	"fmt"
	"os"

	datasource "signal-tracker/src/data_source"
	"signal-tracker/src/models"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// MaxTickers is the hard cap on tracked symbols. Both providers are
// rate-limited on free-tier credentials; past three symbols the refresh
// cycle can no longer complete inside one sampling interval.
const MaxTickers = 3

// validIntervals are the sampling intervals the intraday history
// endpoint supports.
var validIntervals = map[int]bool{5: true, 15: true, 30: true, 60: true}

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	return &Config{MConfig: &modelConfig}, nil
}

// -----------------------------------------------------------------------------

// Validate performs configuration validation. Called after CLI overrides
// have been applied, so it sees the effective values.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Server configuration
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1 and 65535)", c.Port)
	}

	// Tracked symbols
	if len(c.Tickers) == 0 {
		return fmt.Errorf("at least one ticker must be configured")
	}
	if len(c.Tickers) > MaxTickers {
		return fmt.Errorf("too many tickers: %d (maximum is %d)", len(c.Tickers), MaxTickers)
	}
	for i, ticker := range c.Tickers {
		if ticker == "" {
			return fmt.Errorf("ticker %d cannot be empty", i)
		}
	}

	// Sampling interval
	if !validIntervals[c.IntervalMinutes] {
		return fmt.Errorf("invalid interval: %d minutes (must be one of 5, 15, 30, 60)", c.IntervalMinutes)
	}

	// Storage configuration
	if c.Storage.Enabled {
		if c.Storage.DBType != "sqlite" && c.Storage.DBType != "postgres" {
			return fmt.Errorf("unsupported database type: '%s'", c.Storage.DBType)
		}
		if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
		if c.Storage.DBType == "postgres" && c.Storage.DBConnectionString == "" {
			return fmt.Errorf("connection string cannot be empty for postgres")
		}
	}
	if c.ReloadSource != "" && !c.Storage.Enabled {
		return fmt.Errorf("reload source requires storage to be enabled")
	}

	// Network configuration
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	return nil
}

// -----------------------------------------------------------------------------

// LoadCredentials reads provider API tokens from the environment.
// Tokens live outside the YAML file so they stay out of version
// control; a local .env file is merged in first when present.
func LoadCredentials() (datasource.Credentials, error) {
	_ = godotenv.Load()

	var creds datasource.Credentials
	if err := envconfig.Process("", &creds); err != nil {
		return datasource.Credentials{}, fmt.Errorf("failed to load provider credentials: %w", err)
	}
	return creds, nil
}
