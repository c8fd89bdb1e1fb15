package config

import "time"

// Default paths. The filter is typically invoked by the MTA as an
// unprivileged user with these locations prepared by packaging.
const (
	DefaultWorkflowPath     = "/etc/mailflow/workflow.json"
	DefaultQuarantineFolder = "/var/mail/quarantine"
	DefaultEvidencePath     = "/var/lib/mailflow/evidence.db"
)

// ApplyDefaults fills in zero-valued fields with working defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Workflow.Path == "" {
		cfg.Workflow.Path = DefaultWorkflowPath
	}

	if cfg.Quarantine.Folder == "" {
		cfg.Quarantine.Folder = DefaultQuarantineFolder
	}

	if cfg.Evidence.Path == "" {
		cfg.Evidence.Path = DefaultEvidencePath
	}
	if cfg.Evidence.AsyncBuffer == 0 {
		cfg.Evidence.AsyncBuffer = 1000
	}
	if cfg.Evidence.WriteTimeout == 0 {
		cfg.Evidence.WriteTimeout = 5 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "mailflow"
	}

	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = "127.0.0.1:8525"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120 * time.Second
	}
	if cfg.Server.MaxMessageBytes == 0 {
		cfg.Server.MaxMessageBytes = 50 << 20 // 50 MiB
	}
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
