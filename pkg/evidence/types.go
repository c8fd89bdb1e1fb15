package evidence

import (
	"context"
	"time"

	"github.com/bugport/mailflow/pkg/workflow"
)

// Record is the audit trail for one filtered message.
type Record struct {
	// Identity
	ID        string `json:"id"`         // UUID v4
	MessageID string `json:"message_id"` // Message-Id header, may be empty

	// Message metadata
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Size    int    `json:"size"`

	// Outcome
	Action        string                     `json:"action"`
	RejectReason  string                     `json:"reject_reason,omitempty"`
	Payload       map[string]any             `json:"payload,omitempty"`
	FilterResults []workflow.ConditionResult `json:"filter_results,omitempty"`
	Error         string                     `json:"error,omitempty"`

	// Timing
	Duration   time.Duration `json:"duration"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// Storage persists and retrieves evidence records.
type Storage interface {
	// Store persists one record.
	Store(ctx context.Context, record *Record) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]*Record, error)

	// Prune deletes records recorded before cutoff and returns the
	// number deleted.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases storage resources.
	Close() error
}
