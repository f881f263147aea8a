package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Logging   LogConfig       `yaml:"logging" toml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
	Worker    WorkerConfig    `yaml:"worker" toml:"worker"`
	Redis     RedisConfig     `yaml:"redis" toml:"redis"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000" yaml:"port" toml:"port"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0" yaml:"host" toml:"host"`
	AllowOrigins    []string      `envconfig:"ALLOW_ORIGINS" default:"*" yaml:"allow_origins" toml:"allow_origins"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development" toml:"development"`
}

// RateLimitConfig limits stream upgrades per client IP.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"20" yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"40" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled" toml:"enabled"`
}

// WorkerConfig selects the UI each background root renders.
type WorkerConfig struct {
	App           string        `envconfig:"WORKER_APP" default:"demo" yaml:"app" toml:"app"`
	Script        string        `envconfig:"WORKER_SCRIPT" yaml:"script" toml:"script"`
	ScriptTimeout time.Duration `envconfig:"WORKER_SCRIPT_TIMEOUT" default:"2s" yaml:"script_timeout" toml:"script_timeout"`
	TickInterval  time.Duration `envconfig:"WORKER_TICK_INTERVAL" default:"1s" yaml:"tick_interval" toml:"tick_interval"`
}

// RedisConfig holds the cross-process transport settings.
type RedisConfig struct {
	Addr    string `envconfig:"REDIS_ADDR" default:"localhost:6379" yaml:"addr" toml:"addr"`
	Channel string `envconfig:"REDIS_CHANNEL" default:"workerview" yaml:"channel" toml:"channel"`
}

// Known worker apps.
const (
	AppDemo    = "demo"
	AppCounter = "counter"
	AppTicker  = "ticker"
	AppScript  = "script"
)

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, cfg.Validate()
}

// LoadFile loads the environment and then overlays a YAML or TOML file.
// Values present in the file win over the environment.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Worker.App {
	case AppDemo, AppCounter, AppTicker:
	case AppScript:
		if c.Worker.Script == "" {
			return fmt.Errorf("worker app %q requires WORKER_SCRIPT", AppScript)
		}
	default:
		return fmt.Errorf("unknown worker app %q", c.Worker.App)
	}
	if c.Worker.TickInterval <= 0 {
		return fmt.Errorf("worker tick interval must be positive")
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			AllowOrigins:    []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
		Worker: WorkerConfig{
			App:           AppDemo,
			ScriptTimeout: 2 * time.Second,
			TickInterval:  time.Second,
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			Channel: "workerview",
		},
	}
}
