// Package config loads the engine's bootstrap configuration: the HTTP
// listen port, dispatcher worker-pool size, per-agent inbox capacity,
// debug logging flag, and an optional topology file to preload at
// startup.
//
// Grounded directly on the teacher's internal/config.Config: the same
// YAML-tagged struct, os.ReadFile-then-yaml.Unmarshal load shape, and
// default-fill-then-validate sequencing, narrowed from the teacher's
// broker/support/pool/cells fields (which describe a distributed
// multi-process deployment FluxGraph does not have) down to the handful
// of settings a single in-process engine needs.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the engine's bootstrap configuration.
type Config struct {
	Port string `yaml:"port"`

	DispatcherPoolSize int `yaml:"dispatcher_pool_size"`
	InboxCapacity      int `yaml:"inbox_capacity"`

	Debug bool `yaml:"debug"`

	// PreloadTopology, if set, names a topology file loaded at startup
	// before the dispatcher begins accepting connections.
	PreloadTopology string `yaml:"preload_topology"`

	// StaticDir serves /app/* and /favicon.ico (internal/staticfiles).
	// Empty means no static content is served (requests 404).
	StaticDir string `yaml:"static_dir"`
}

// Load reads filename, parses it as YAML, fills in defaults for any zero
// field, and validates the result.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a Config with every default applied and no preload
// topology or static directory, for use when the engine is started
// without an on-disk config file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Port == "" {
		cfg.Port = ":8080"
	}
	if cfg.DispatcherPoolSize == 0 {
		cfg.DispatcherPoolSize = 5
	}
	if cfg.InboxCapacity == 0 {
		cfg.InboxCapacity = 10
	}
}

func (c *Config) validate() error {
	if c.DispatcherPoolSize < 0 {
		return fmt.Errorf("dispatcher_pool_size cannot be negative: %d", c.DispatcherPoolSize)
	}
	if c.InboxCapacity < 0 {
		return fmt.Errorf("inbox_capacity cannot be negative: %d", c.InboxCapacity)
	}
	return nil
}
