// Package config provides configuration loading for boardd.
//
// Configuration is loaded from a YAML file, then overridden by environment
// variables. Every setting has a default; boardd runs with no config file at
// all.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete boardd configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Board         BoardConfig         `koanf:"board"`
	Source        SourceConfig        `koanf:"source"`
	Observability ObservabilityConfig `koanf:"observability"`
	Logging       LoggingConfig       `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port              int           `koanf:"http_port"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	HeartbeatInterval time.Duration `koanf:"heartbeat_interval"`
}

// BoardConfig holds board-level settings: the configuration-level grouping
// key candidate and display labels for bucket names.
type BoardConfig struct {
	GroupBy string            `koanf:"group_by"`
	Labels  map[string]string `koanf:"labels"`
}

// SourceConfig selects and configures the update source.
type SourceConfig struct {
	// Kind is one of "file", "github", or "nats".
	Kind string `koanf:"kind"`

	FilePath string        `koanf:"file_path"`
	Debounce time.Duration `koanf:"debounce"`

	GitHubOwner    string        `koanf:"github_owner"`
	GitHubRepo     string        `koanf:"github_repo"`
	GitHubToken    Secret        `koanf:"github_token"`
	GitHubInterval time.Duration `koanf:"github_interval"`

	NATSURL     string `koanf:"nats_url"`
	NATSSubject string `koanf:"nats_subject"`
}

// ObservabilityConfig holds OpenTelemetry configuration.
type ObservabilityConfig struct {
	EnableTelemetry bool   `koanf:"enable_telemetry"`
	ServiceName     string `koanf:"service_name"`
	OTLPEndpoint    string `koanf:"otlp_endpoint"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Source kinds.
const (
	SourceFile   = "file"
	SourceGitHub = "github"
	SourceNATS   = "nats"
)

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8480
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.HeartbeatInterval == 0 {
		cfg.Server.HeartbeatInterval = 30 * time.Second
	}

	if cfg.Source.Kind == "" {
		cfg.Source.Kind = SourceFile
	}
	if cfg.Source.FilePath == "" {
		cfg.Source.FilePath = "board.yaml"
	}
	if cfg.Source.Debounce == 0 {
		cfg.Source.Debounce = 100 * time.Millisecond
	}
	if cfg.Source.GitHubInterval == 0 {
		cfg.Source.GitHubInterval = 30 * time.Second
	}
	if cfg.Source.NATSURL == "" {
		cfg.Source.NATSURL = "nats://localhost:4222"
	}
	if cfg.Source.NATSSubject == "" {
		cfg.Source.NATSSubject = "boardd.updates"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "boardd"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate validates the configuration.
//
// Returns an error if:
//   - Server port is not between 1 and 65535
//   - Shutdown timeout is not positive
//   - Source kind is unknown, or its required fields are missing
//   - Service name is empty when telemetry is enabled
//   - Logging level or format is unknown
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	switch c.Source.Kind {
	case SourceFile:
		if c.Source.FilePath == "" {
			return errors.New("file source requires file_path")
		}
	case SourceGitHub:
		if c.Source.GitHubOwner == "" || c.Source.GitHubRepo == "" {
			return errors.New("github source requires github_owner and github_repo")
		}
	case SourceNATS:
		if c.Source.NATSSubject == "" {
			return errors.New("nats source requires nats_subject")
		}
	default:
		return fmt.Errorf("unknown source kind: %q (must be file, github, or nats)", c.Source.Kind)
	}

	if c.Observability.EnableTelemetry && c.Observability.ServiceName == "" {
		return errors.New("service name required when telemetry is enabled")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging level: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown logging format: %q", c.Logging.Format)
	}

	return nil
}
