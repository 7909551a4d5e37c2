// Package config loads application configuration from a YAML file,
// falling back to built-in defaults when the file is absent.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"maru/internal/moderation"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Moderation ModerationConfig `yaml:"moderation"`
	Retention  RetentionConfig  `yaml:"retention"`
	Logging    LoggingConfig    `yaml:"logging"`
	Tracing    TracingConfig    `yaml:"tracing"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the listen address in host:port form.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig contains storage backend settings.
// Backend selects "bolt" or "sqlite".
type DatabaseConfig struct {
	Backend    string `yaml:"backend"`
	BoltPath   string `yaml:"bolt_path"`
	SQLitePath string `yaml:"sqlite_path"`
}

// ModerationConfig contains moderation engine settings
type ModerationConfig struct {
	Admins      []string `yaml:"admins"`
	BannedWords []string `yaml:"banned_words"`
	SystemActor string   `yaml:"system_actor"`
}

// RetentionConfig contains audit-log retention settings
type RetentionConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
	Days     int    `yaml:"days"`
	DryRun   bool   `yaml:"dry_run"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig contains OpenTelemetry exporter settings
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Backend:    "bolt",
			BoltPath:   "data/maru.db",
			SQLitePath: "data/maru.sqlite",
		},
		Moderation: ModerationConfig{
			Admins:      moderation.DefaultAdmins,
			BannedWords: moderation.DefaultBannedWords,
			SystemActor: moderation.DefaultSystemActor,
		},
		Retention: RetentionConfig{
			Enabled:  false,
			Schedule: "0 4 * * *",
			Days:     365,
			DryRun:   false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:  false,
			Endpoint: "localhost:4318",
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	// Read file
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.Database.Backend {
	case "bolt", "sqlite":
	default:
		return fmt.Errorf("unknown database backend %q (want bolt or sqlite)", c.Database.Backend)
	}
	if c.Retention.Enabled && c.Retention.Days <= 0 {
		return fmt.Errorf("retention.days must be positive when retention is enabled")
	}
	return nil
}
