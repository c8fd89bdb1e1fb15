package recorder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bugport/mailflow/pkg/evidence"
	"github.com/bugport/mailflow/pkg/workflow"
)

type fakeStorage struct {
	mu      sync.Mutex
	records []*evidence.Record
}

func (f *fakeStorage) Store(_ context.Context, rec *evidence.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeStorage) Recent(context.Context, int) ([]*evidence.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*evidence.Record(nil), f.records...), nil
}

func (f *fakeStorage) Prune(context.Context, time.Time) (int64, error) { return 0, nil }
func (f *fakeStorage) Close() error                                    { return nil }

func (f *fakeStorage) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// TestRecordAsync tests that queued records reach storage and are
// drained on Close.
func TestRecordAsync(t *testing.T) {
	storage := &fakeStorage{}
	r := NewRecorder(storage, &Config{Enabled: true, AsyncBuffer: 10, WriteTimeout: time.Second})

	result := workflow.Record{
		"message_id":             "<m1@example.com>",
		workflow.KeyAction:       "reject",
		workflow.KeyRejectReason: "spam",
	}
	for i := 0; i < 3; i++ {
		r.Record(result, time.Millisecond)
	}
	r.Close()

	if got := storage.count(); got != 3 {
		t.Errorf("stored %d records, want 3", got)
	}
}

// TestRecordDisabled tests that a disabled recorder stores nothing.
func TestRecordDisabled(t *testing.T) {
	storage := &fakeStorage{}
	r := NewRecorder(storage, &Config{Enabled: false, AsyncBuffer: 10, WriteTimeout: time.Second})

	r.Record(workflow.Record{}, time.Millisecond)
	r.RecordSync(context.Background(), workflow.Record{}, time.Millisecond)
	r.Close()

	if got := storage.count(); got != 0 {
		t.Errorf("stored %d records, want 0", got)
	}
}

// TestRecordSync tests immediate persistence.
func TestRecordSync(t *testing.T) {
	storage := &fakeStorage{}
	r := NewRecorder(storage, &Config{Enabled: true, AsyncBuffer: 10, WriteTimeout: time.Second})
	defer r.Close()

	r.RecordSync(context.Background(), workflow.Record{workflow.KeyAction: "accept"}, time.Millisecond)

	if got := storage.count(); got != 1 {
		t.Fatalf("stored %d records, want 1", got)
	}
}

// TestFromResult tests the workflow record to evidence row conversion.
func TestFromResult(t *testing.T) {
	result := workflow.Record{
		"message_id":                 "<m1@example.com>",
		"from":                       "a@example.com",
		"to":                         "b@example.com",
		"subject":                    "held",
		"size":                       2048,
		workflow.KeyAction:           "quarantine",
		workflow.KeyQuarantineFolder: "/tmp/q",
		workflow.KeyFilterResults: []workflow.ConditionResult{
			{Field: "subject", Operator: workflow.OperatorContains, Value: "x", Result: true},
		},
	}

	rec := FromResult(result, 7*time.Millisecond)

	if rec.ID == "" {
		t.Error("record has no id")
	}
	if rec.MessageID != "<m1@example.com>" || rec.From != "a@example.com" {
		t.Errorf("identity = %+v", rec)
	}
	if rec.Action != "quarantine" {
		t.Errorf("action = %q", rec.Action)
	}
	if rec.Size != 2048 {
		t.Errorf("size = %d", rec.Size)
	}
	if rec.Payload[workflow.KeyQuarantineFolder] != "/tmp/q" {
		t.Errorf("payload = %+v", rec.Payload)
	}
	if len(rec.FilterResults) != 1 {
		t.Errorf("filter results = %+v", rec.FilterResults)
	}
	if rec.Duration != 7*time.Millisecond {
		t.Errorf("duration = %v", rec.Duration)
	}
}

// TestFromResultDefaults tests conversion of a bare record.
func TestFromResultDefaults(t *testing.T) {
	rec := FromResult(workflow.Record{}, 0)

	if rec.Action != "accept" {
		t.Errorf("action = %q, want default accept", rec.Action)
	}
	if rec.Payload != nil {
		t.Errorf("payload = %+v, want nil", rec.Payload)
	}
}
