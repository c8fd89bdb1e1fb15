package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, applies defaults,
// and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration from path, returning the built-in
// defaults when the file does not exist. The filter has to work with
// zero configuration: a missing config file is a normal install state,
// not an error. Parse and validation failures are still returned.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg = DefaultConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides using the
// MAILFLOW_SECTION_FIELD convention. Environment variables take
// precedence over file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("MAILFLOW_WORKFLOW_PATH"); val != "" {
		cfg.Workflow.Path = val
	}
	if val := os.Getenv("MAILFLOW_WORKFLOW_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Workflow.Watch = b
		}
	}
	if val := os.Getenv("MAILFLOW_QUARANTINE_FOLDER"); val != "" {
		cfg.Quarantine.Folder = val
	}
	if val := os.Getenv("MAILFLOW_EVIDENCE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Evidence.Enabled = b
		}
	}
	if val := os.Getenv("MAILFLOW_EVIDENCE_PATH"); val != "" {
		cfg.Evidence.Path = val
	}
	if val := os.Getenv("MAILFLOW_LOGGING_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("MAILFLOW_LOGGING_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}
	if val := os.Getenv("MAILFLOW_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("MAILFLOW_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
}
