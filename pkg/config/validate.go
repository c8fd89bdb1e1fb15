package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate checks a configuration for values the filter cannot run
// with. It assumes defaults have already been applied.
func Validate(cfg *Config) error {
	var problems []string

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level: unknown level %q", cfg.Logging.Level))
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format: unknown format %q", cfg.Logging.Format))
	}

	if cfg.Quarantine.RetentionDays < 0 {
		problems = append(problems, "quarantine.retention_days: must not be negative")
	}
	if cfg.Evidence.RetentionDays < 0 {
		problems = append(problems, "evidence.retention_days: must not be negative")
	}
	if cfg.Evidence.AsyncBuffer < 0 {
		problems = append(problems, "evidence.async_buffer: must not be negative")
	}

	if cfg.Retention.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
			problems = append(problems, fmt.Sprintf("retention.schedule: %v", err))
		}
	}

	if cfg.Server.MaxMessageBytes <= 0 {
		problems = append(problems, "server.max_message_bytes: must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}
