package config

import "time"

// Config holds the top-level filter configuration loaded from YAML.
type Config struct {
	Workflow   WorkflowConfig   `yaml:"workflow"`
	Quarantine QuarantineConfig `yaml:"quarantine"`
	Evidence   EvidenceConfig   `yaml:"evidence"`
	Retention  RetentionConfig  `yaml:"retention"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Server     ServerConfig     `yaml:"server"`
}

// WorkflowConfig locates the workflow document.
type WorkflowConfig struct {
	// Path is the JSON workflow document. When the file is missing the
	// built-in default workflow is written there and used.
	Path string `yaml:"path"`

	// Watch enables hot reload of the workflow document in serve mode.
	Watch bool `yaml:"watch"`
}

// QuarantineConfig configures the quarantine store.
type QuarantineConfig struct {
	// Folder is the directory quarantined messages are written to when
	// a quarantine action does not configure its own folder.
	Folder string `yaml:"folder"`

	// IndexPath is the SQLite index of quarantined messages. Defaults
	// to <folder>/quarantine.db.
	IndexPath string `yaml:"index_path"`

	// RetentionDays is how long quarantined messages are kept before
	// the retention scheduler removes them. Zero keeps them forever.
	RetentionDays int `yaml:"retention_days"`
}

// EvidenceConfig configures the disposition audit trail.
type EvidenceConfig struct {
	// Enabled turns evidence recording on.
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite evidence database file.
	Path string `yaml:"path"`

	// RetentionDays is how long evidence rows are kept. Zero keeps
	// them forever.
	RetentionDays int `yaml:"retention_days"`

	// AsyncBuffer is the in-flight record buffer used in serve mode.
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout bounds a single evidence write.
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RetentionConfig configures scheduled pruning in serve mode.
type RetentionConfig struct {
	// Schedule is a standard cron expression ("0 3 * * *"). Empty
	// disables scheduled pruning.
	Schedule string `yaml:"schedule"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	Level string `yaml:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// ServerConfig configures the HTTP check service (serve mode).
type ServerConfig struct {
	ListenAddress string        `yaml:"listen_address"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`

	// MaxMessageBytes caps the size of a message accepted on /check.
	MaxMessageBytes int64 `yaml:"max_message_bytes"`
}
