// Package config loads the fixtured YAML configuration
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete server configuration
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Server   ServerConfig   `yaml:"server"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Fixtures FixturesConfig `yaml:"fixtures"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	Export   ExportConfig   `yaml:"export"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	SeqURL string `yaml:"seq_url"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type MetricsConfig struct {
	// Addr is where /metrics is served; empty disables it
	Addr string `yaml:"addr"`
}

type FixturesConfig struct {
	// Scripts names the built-in scripts to run; empty runs all of them
	Scripts     []string `yaml:"scripts"`
	StarlarkDir string   `yaml:"starlark_dir"`
}

type RefreshConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type ExportConfig struct {
	Dir    string `yaml:"dir"`
	SQLite string `yaml:"sqlite"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Server:  ServerConfig{Port: 4444},
		Metrics: MetricsConfig{Addr: ":9090"},
		Refresh: RefreshConfig{Interval: time.Second},
		Export:  ExportConfig{Dir: "export"},
	}
}

// Load reads path over the defaults. A missing path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes raw YAML into cfg, keeping fields the document omits
func Parse(raw []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return cfg.Validate()
}

// Validate checks ranges and the log level name
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh.interval must be positive, got %s", c.Refresh.Interval)
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps the configured level name to a slog.Level
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}

// Addr is the TCP listen address for the table server
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}
