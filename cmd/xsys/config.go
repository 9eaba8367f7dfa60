package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/codewandler/xsystem-go/core/bus"
)

// Config of the relay command. Flags override values from the file.
type Config struct {
	Strategy      string   `yaml:"strategy"`
	BusID         string   `yaml:"bus_id"`
	NatsURL       string   `yaml:"nats_url"`
	SubjectPrefix string   `yaml:"subject_prefix"`
	Patterns      []string `yaml:"patterns"`
	MetricsAddr   string   `yaml:"metrics_addr"`
	WebsocketAddr string   `yaml:"websocket_addr"`
	LogLevel      string   `yaml:"log_level"`
}

func defaultConfig() Config {
	return Config{
		Strategy: string(bus.Direct),
		BusID:    "xsys",
		Patterns: []string{"*"},
		LogLevel: "info",
	}
}

// loadConfig reads path over the defaults. An empty path returns the
// defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if _, err := bus.ParseStrategy(c.Strategy); err != nil {
		return err
	}
	if c.BusID == "" {
		return errors.New("bus_id must not be empty")
	}
	if _, err := c.level(); err != nil {
		return err
	}
	return nil
}

func (c Config) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return l, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return l, nil
}
