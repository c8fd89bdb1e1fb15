// Package cli holds shared helpers for the mailflow commands: typed
// errors, output formatting, and signal wiring.
package cli

import "fmt"

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config error: %s", e.Message)
	}
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// RejectionError signals that a message was withheld by the workflow.
// The filter command returns it so the process exits non-zero, which
// is how the MTA learns to refuse the message.
type RejectionError struct {
	Action string
	Reason string
}

func (e *RejectionError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("message withheld by workflow (%s)", e.Action)
	}
	return fmt.Sprintf("message withheld by workflow (%s): %s", e.Action, e.Reason)
}
