// Package config loads the runtime configuration for the ground-station
// link from YAML, with environment fallbacks for deployment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Link     LinkConfig     `yaml:"link"`
	Transfer TransferConfig `yaml:"transfer"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// LinkConfig holds connection and session settings.
type LinkConfig struct {
	// Endpoint spec: udp:host:port, tcp:host:port, serial:device:baud.
	Endpoint          string   `yaml:"endpoint"`
	SystemID          uint8    `yaml:"system_id"`
	ComponentID       uint8    `yaml:"component_id"`
	ConnectTimeout    Duration `yaml:"connect_timeout"`
	LinkTimeout       Duration `yaml:"link_timeout"`
	HeartbeatInterval Duration `yaml:"heartbeat_interval"`
	CommandTimeout    Duration `yaml:"command_timeout"`
	AutoRequestHome   bool     `yaml:"auto_request_home"`
}

// TransferConfig holds mission-transfer retry settings.
type TransferConfig struct {
	RequestTimeout Duration `yaml:"request_timeout"`
	ItemTimeout    Duration `yaml:"item_timeout"`
	MaxRetries     int      `yaml:"max_retries"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// MetricsConfig holds the Prometheus listener settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Link: LinkConfig{
			Endpoint:          "udp:0.0.0.0:14550",
			SystemID:          255,
			ComponentID:       190,
			ConnectTimeout:    Duration(10 * time.Second),
			LinkTimeout:       Duration(3 * time.Second),
			HeartbeatInterval: Duration(time.Second),
			CommandTimeout:    Duration(3 * time.Second),
			AutoRequestHome:   true,
		},
		Transfer: TransferConfig{
			RequestTimeout: Duration(1500 * time.Millisecond),
			ItemTimeout:    Duration(250 * time.Millisecond),
			MaxRetries:     5,
		},
		Log: LogConfig{
			Path:  "./logs/gcs.log",
			Level: "INFO",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: "127.0.0.1:9190",
		},
	}
}

// Load reads the config file, creating it with defaults when absent.
// GCS_ENDPOINT overrides the endpoint when the file leaves it empty.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else {
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to save config file: %w", err)
		}
	}

	if cfg.Link.Endpoint == "" {
		cfg.Link.Endpoint = os.Getenv("GCS_ENDPOINT")
	}
	if cfg.Link.Endpoint == "" {
		return nil, fmt.Errorf("config: no link endpoint configured (set link.endpoint or GCS_ENDPOINT)")
	}

	return cfg, nil
}

// Save writes the config to disk with a usage header.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# gcslink configuration
# ---------------------
# Endpoint specs: udp:host:port (datagram server), tcp:host:port,
#                 serial:device:baud
# Durations: ns, us, ms, s, m, h, d, w

`)
	data = append(header, data...)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault writes the default config unless the file exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return Save(path, DefaultConfig())
}
