// Package config provides configuration loading for learnhooks.
//
// Configuration is read from a YAML file and then overridden by
// LEARNHOOKS_-prefixed environment variables. Defaults cover every field so
// an empty environment yields a runnable local setup.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds the complete learnhooks configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Storage       StorageConfig       `koanf:"storage"`
	Plugin        PluginConfig        `koanf:"plugin"`
	Progress      ProgressConfig      `koanf:"progress"`
	Hooks         HooksConfig         `koanf:"hooks"`
	Events        EventsConfig        `koanf:"events"`
	Logging       LoggingConfig       `koanf:"logging"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"http_host" validate:"required"`
	Port            int           `koanf:"http_port" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RateLimit       float64       `koanf:"rate_limit" validate:"gte=0"` // requests/second, 0 disables
	RateBurst       int           `koanf:"rate_burst" validate:"gte=0"`
}

// StorageConfig holds the progress database location.
type StorageConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// PluginConfig points at the plugin the hooks ship inside.
type PluginConfig struct {
	Root  string `koanf:"root" validate:"required"`
	Watch bool   `koanf:"watch"`
}

// ProgressConfig holds host-side progress rules.
type ProgressConfig struct {
	// MilestonesFile is an optional TOML file replacing the built-in milestones.
	MilestonesFile string `koanf:"milestones_file"`
	// CompletionInvocations is how many invocations complete a skill.
	CompletionInvocations int `koanf:"completion_invocations" validate:"min=1,max=1000"`
}

// DefaultMaxRelated is used when hooks.max_related is not set at all.
const DefaultMaxRelated = 5

// HooksConfig holds hook behavior settings.
type HooksConfig struct {
	CompletionPoints int `koanf:"completion_points" validate:"min=1,max=10000"`
	// MaxRelated caps related skill suggestions. An explicit 0 means unlimited.
	MaxRelated int `koanf:"max_related" validate:"min=0,max=50"`
}

// EventsConfig holds event publishing settings.
type EventsConfig struct {
	// NATSURL enables NATS publishing when non-empty.
	NATSURL       string `koanf:"nats_url"`
	NATSToken     Secret `koanf:"nats_token"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// LoggingConfig holds log level and encoding.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// ObservabilityConfig holds OpenTelemetry configuration.
type ObservabilityConfig struct {
	EnableTelemetry bool    `koanf:"enable_telemetry"`
	ServiceName     string  `koanf:"service_name"`
	Endpoint        string  `koanf:"endpoint"`
	Protocol        string  `koanf:"protocol" validate:"omitempty,oneof=grpc http/protobuf"`
	Insecure        bool    `koanf:"insecure"`
	SampleRate      float64 `koanf:"sample_rate" validate:"gte=0,lte=1"`
}

var validate = validator.New()

// Validate validates the configuration.
//
// Returns an error if any field is out of range, or if telemetry is enabled
// without a service name or endpoint.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	if c.Observability.EnableTelemetry {
		if c.Observability.ServiceName == "" {
			return errors.New("service name required when telemetry is enabled")
		}
		if c.Observability.Endpoint == "" {
			return errors.New("endpoint required when telemetry is enabled")
		}
	}

	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config, home string) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9191
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.RateLimit > 0 && cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = int(cfg.Server.RateLimit) + 1
	}

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = filepath.Join(home, ".config", "learnhooks", "progress.db")
	}
	if cfg.Plugin.Root == "" {
		cfg.Plugin.Root = "."
	}
	if cfg.Progress.CompletionInvocations == 0 {
		cfg.Progress.CompletionInvocations = 3
	}

	if cfg.Hooks.CompletionPoints == 0 {
		cfg.Hooks.CompletionPoints = 100
	}

	if cfg.Events.SubjectPrefix == "" {
		cfg.Events.SubjectPrefix = "learning"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "learnhooks"
	}
	if cfg.Observability.Endpoint == "" {
		cfg.Observability.Endpoint = "localhost:4317"
	}
	if cfg.Observability.Protocol == "" {
		cfg.Observability.Protocol = "grpc"
	}
	if cfg.Observability.SampleRate == 0 {
		cfg.Observability.SampleRate = 1.0
	}
}
