// Package config loads the demo CLI's configuration using koanf/v2.
//
// The core dali package itself never reads a config file; this package
// exists for cmd/dali-demo, which needs a list of known gateways plus
// logging/metrics settings before it can call into the core.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds the complete demo CLI configuration.
type Config struct {
	Log      LogConfig        `koanf:"log"`
	Metrics  MetricsConfig    `koanf:"metrics"`
	Gateways []GatewayConfig  `koanf:"gateways"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the HTTP listen address for the metrics endpoint (e.g., ":9100").
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint (e.g., "/metrics").
	Path string `koanf:"path"`
}

// GatewayConfig describes one known gateway from the configuration file,
// letting a host skip multicast discovery in networks where it is
// blocked.
type GatewayConfig struct {
	GwSN         string `koanf:"gw_sn"`
	GwIP         string `koanf:"gw_ip"`
	Port         int    `koanf:"port"`
	IsTLS        bool   `koanf:"is_tls"`
	Username     string `koanf:"username"`
	Passwd       string `koanf:"passwd"`
	ChannelTotal []int  `koanf:"channel_total"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Addr: ":9100",
			Path: "/metrics",
		},
	}
}

// envPrefix is the environment variable prefix for demo CLI configuration.
// Variables are named DALI_<section>_<key>, e.g., DALI_LOG_LEVEL.
const envPrefix = "DALI_"

// Load reads configuration from a YAML file at path, overlays environment
// variable overrides (DALI_ prefix), and merges on top of DefaultConfig().
// Missing fields inherit defaults.
//
// Environment variable mapping:
//
//	DALI_LOG_LEVEL      -> log.level
//	DALI_LOG_FORMAT     -> log.format
//	DALI_METRICS_ADDR   -> metrics.addr
//	DALI_METRICS_PATH   -> metrics.path
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "_", ".")
}

func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"log.level":     defaults.Log.Level,
		"log.format":    defaults.Log.Format,
		"metrics.addr":  defaults.Metrics.Addr,
		"metrics.path":  defaults.Metrics.Path,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// Validation errors.
var (
	ErrEmptyGwSN        = errors.New("gateways[].gw_sn must not be empty")
	ErrEmptyGwIP        = errors.New("gateways[].gw_ip must not be empty")
	ErrInvalidPort      = errors.New("gateways[].port must be between 1 and 65535")
	ErrDuplicateGwSN    = errors.New("duplicate gateway gw_sn")
)

// Validate checks the configuration for logical errors. Returns the first
// validation error encountered.
func Validate(cfg *Config) error {
	seen := make(map[string]struct{}, len(cfg.Gateways))

	for i, gw := range cfg.Gateways {
		if gw.GwSN == "" {
			return fmt.Errorf("gateways[%d]: %w", i, ErrEmptyGwSN)
		}
		if gw.GwIP == "" {
			return fmt.Errorf("gateways[%d]: %w", i, ErrEmptyGwIP)
		}
		if gw.Port < 1 || gw.Port > 65535 {
			return fmt.Errorf("gateways[%d] port %d: %w", i, gw.Port, ErrInvalidPort)
		}
		if _, dup := seen[gw.GwSN]; dup {
			return fmt.Errorf("gateways[%d] gw_sn %q: %w", i, gw.GwSN, ErrDuplicateGwSN)
		}
		seen[gw.GwSN] = struct{}{}
	}

	return nil
}

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
