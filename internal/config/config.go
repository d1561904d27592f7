// Package config loads and validates the YAML configuration for a
// discovery daemon process, modeled on storage-node/internal/config.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ParticipantConfig identifies this process's DDS participant.
type ParticipantConfig struct {
	Enclave string `yaml:"enclave"`
}

// DiscoveryConfig configures the gossip mesh discovery updates travel
// over.
type DiscoveryConfig struct {
	NodeName       string        `yaml:"node_name"`
	BindAddr       string        `yaml:"bind_addr"`
	BindPort       int           `yaml:"bind_port"`
	SeedNodes      []string      `yaml:"seed_nodes"`
	GossipInterval time.Duration `yaml:"gossip_interval"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout"`
	ProbeInterval  time.Duration `yaml:"probe_interval"`
}

// ListenerConfig holds the settings for the worker that applies
// discovery updates to the local graph cache. QueueSize is loaded and
// defaulted here, but cmd/discoveryd does not pass it on: the worker
// contextholder.New creates uses the listener package's own default.
type ListenerConfig struct {
	QueueSize int `yaml:"queue_size"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// LoggingConfig holds the zap logger settings. They are loaded and
// defaulted here, but cmd/discoveryd builds its logger before reading the
// configuration (a production JSON logger at info level) and does not
// apply them.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the complete configuration for a discovery daemon process.
type Config struct {
	Participant ParticipantConfig `yaml:"participant"`
	Discovery   DiscoveryConfig   `yaml:"discovery"`
	Listener    ListenerConfig    `yaml:"listener"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoadConfig reads and validates the configuration at filePath.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Discovery.BindPort == 0 {
		cfg.Discovery.BindPort = 7946
	}
	if cfg.Discovery.GossipInterval == 0 {
		cfg.Discovery.GossipInterval = 200 * time.Millisecond
	}
	if cfg.Discovery.ProbeTimeout == 0 {
		cfg.Discovery.ProbeTimeout = 500 * time.Millisecond
	}
	if cfg.Discovery.ProbeInterval == 0 {
		cfg.Discovery.ProbeInterval = time.Second
	}
	if cfg.Listener.QueueSize == 0 {
		cfg.Listener.QueueSize = 256
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9464
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate checks the configuration for internally inconsistent values.
func (c *Config) Validate() error {
	if c.Discovery.NodeName == "" {
		return fmt.Errorf("discovery.node_name is required")
	}
	if c.Discovery.BindPort < 1 || c.Discovery.BindPort > 65535 {
		return fmt.Errorf("discovery.bind_port must be between 1 and 65535")
	}
	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return fmt.Errorf("metrics.port must be between 1 and 65535")
	}
	return nil
}
