package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the daemon's runtime settings. Values come from an optional
// YAML file, with environment variables (loaded from .env when present)
// overriding the file on a per-setting basis.
type Config struct {
	// ListenAddr is the HTTP listen address, e.g. ":8000".
	ListenAddr string `yaml:"listen_addr"`

	// DBPath is the SQLite file backing hierarchy and transcript storage.
	// Empty selects in-memory stores (data is lost on restart).
	DBPath string `yaml:"db_path"`

	// RequestTimeout bounds one chat turn end to end.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// HistoryEnabled lets the delegator see prior turns when routing.
	HistoryEnabled bool `yaml:"history_enabled"`

	// MaxModelCalls bounds model invocations per chat turn.
	MaxModelCalls int `yaml:"max_model_calls"`

	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // json or text
}

// DefaultConfig returns the daemon defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:     ":8000",
		RequestTimeout: 120 * time.Second,
		HistoryEnabled: true,
		MaxModelCalls:  6,
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// LoadConfig reads the YAML file at path (skipped when path is empty) and
// applies environment overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("TEAMMESH_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("TEAMMESH_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TEAMMESH_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TEAMMESH_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("TEAMMESH_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("parse TEAMMESH_REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}

	return cfg, nil
}
