//-------------------------------------------------------------------------
//
// pgEdge BikeStore Loader
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for bikestore-loader.
// Configuration is loaded from config files and CLI flags; the database
// connection may also come from POSTGRES_* variables in the environment
// or a local .env file. CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for bikestore-loader.
type Config struct {
	// Connection is the PostgreSQL connection string.
	Connection string `mapstructure:"connection"`

	// DataDir is the directory holding the source CSV files.
	DataDir string `mapstructure:"data_dir"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Load holds configuration for the load subcommand.
	Load LoadConfig `mapstructure:"load"`

	// Sample holds configuration for the sample subcommand.
	Sample SampleConfig `mapstructure:"sample"`
}

// LoadConfig holds configuration for the bulk load pipeline.
type LoadConfig struct {
	// BatchSize is the number of rows per insert batch.
	BatchSize int `mapstructure:"batch_size"`

	// Workers is the number of concurrent insert workers per table.
	Workers int `mapstructure:"workers"`

	// MaxRowErrors caps how many row errors a single stage reports
	// before truncating the report.
	MaxRowErrors int `mapstructure:"max_row_errors"`

	// Truncate clears all data tables before loading.
	Truncate bool `mapstructure:"truncate"`
}

// SampleConfig holds configuration for sample dataset generation.
type SampleConfig struct {
	// Size is the dataset size preset (small, medium, large).
	Size string `mapstructure:"size"`

	// Seed fixes the random seed for reproducible datasets (0 = random).
	Seed uint64 `mapstructure:"seed"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Load: LoadConfig{
			BatchSize:    1000,
			Workers:      4,
			MaxRowErrors: 20,
			Truncate:     false,
		},
		Sample: SampleConfig{
			Size: "small",
			Seed: 0,
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./bikestore-loader.yaml
// 3. ~/.config/bikestore-loader/config.yaml
func Load(configFile string) (*Config, error) {
	// Pull a local .env into the environment before anything reads it.
	// Missing files are fine.
	_ = godotenv.Load()

	v := viper.New()

	// Set config name and type
	v.SetConfigName("bikestore-loader")
	v.SetConfigType("yaml")

	// Add config paths
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "bikestore-loader"))
	}

	// Use specific config file if provided
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Start with defaults
	cfg := DefaultConfig()

	// Unmarshal config file values
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	// Fall back to POSTGRES_* environment settings when no connection
	// string was configured.
	if cfg.Connection == "" {
		cfg.Connection = ConnectionFromEnv()
	}

	return cfg, nil
}

// ConnectionFromEnv assembles a connection URL from POSTGRES_USER,
// POSTGRES_PASSWORD, POSTGRES_HOST, POSTGRES_PORT and POSTGRES_DB.
// Returns "" when none of them are set.
func ConnectionFromEnv() string {
	vars := []string{
		"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_HOST",
		"POSTGRES_PORT", "POSTGRES_DB",
	}
	anySet := false
	for _, name := range vars {
		if os.Getenv(name) != "" {
			anySet = true
			break
		}
	}
	if !anySet {
		return ""
	}

	user := envOr("POSTGRES_USER", "etl_user")
	password := envOr("POSTGRES_PASSWORD", "etl_password")
	host := envOr("POSTGRES_HOST", "127.0.0.1")
	port := envOr("POSTGRES_PORT", "5432")
	dbname := envOr("POSTGRES_DB", "etl_db")

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, password, host, port, dbname)
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Connection == "" {
		return fmt.Errorf("connection string is required")
	}
	return nil
}

// ValidateLoad checks configuration required for the load command.
func (c *Config) ValidateLoad() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DataDir == "" {
		return fmt.Errorf("data directory is required for load")
	}
	if c.Load.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1")
	}
	if c.Load.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.Load.MaxRowErrors < 1 {
		return fmt.Errorf("max_row_errors must be at least 1")
	}
	return nil
}

// ValidateSample checks configuration required for the sample command.
func (c *Config) ValidateSample() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory is required for sample")
	}
	if c.Sample.Size == "" {
		return fmt.Errorf("dataset size preset is required")
	}
	return nil
}
