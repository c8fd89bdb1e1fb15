package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bugport/mailflow/pkg/evidence"
	"github.com/bugport/mailflow/pkg/workflow"
)

func testStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(&SQLiteConfig{
		Path:         filepath.Join(t.TempDir(), "evidence.db"),
		MaxOpenConns: 2,
		MaxIdleConns: 1,
		WALMode:      true,
		BusyTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(action string) *evidence.Record {
	return &evidence.Record{
		ID:        uuid.NewString(),
		MessageID: "<m1@example.com>",
		From:      "a@example.com",
		To:        "b@example.com",
		Subject:   "held",
		Size:      1234,
		Action:    action,
		FilterResults: []workflow.ConditionResult{
			{Field: "subject", Operator: workflow.OperatorContains, Value: "[SPAM]", Result: true},
		},
		Duration:   3 * time.Millisecond,
		RecordedAt: time.Now(),
	}
}

// TestStoreAndRecent tests the store/query round trip.
func TestStoreAndRecent(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()

	rec := testRecord("reject")
	rec.RejectReason = "spam detected"
	rec.Payload = map[string]any{"tags": []any{"spam"}}
	if err := s.Store(ctx, rec); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Recent returned %d records, want 1", len(got))
	}

	r := got[0]
	if r.ID != rec.ID || r.Action != "reject" || r.RejectReason != "spam detected" {
		t.Errorf("record = %+v", r)
	}
	if r.From != "a@example.com" || r.Subject != "held" || r.Size != 1234 {
		t.Errorf("metadata = %+v", r)
	}
	if len(r.FilterResults) != 1 || !r.FilterResults[0].Result {
		t.Errorf("filter results = %+v", r.FilterResults)
	}
	if r.Payload["tags"] == nil {
		t.Errorf("payload = %+v", r.Payload)
	}
	if r.Duration != 3*time.Millisecond {
		t.Errorf("duration = %v", r.Duration)
	}
}

// TestRecentOrderAndLimit tests newest-first ordering and the limit.
func TestRecentOrderAndLimit(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		rec := testRecord("accept")
		rec.RecordedAt = base.Add(time.Duration(i) * time.Minute)
		rec.Subject = string(rune('a' + i))
		if err := s.Store(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Recent(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent returned %d records, want 3", len(got))
	}
	if got[0].Subject != "e" || got[2].Subject != "c" {
		t.Errorf("order = %q, %q, %q; want newest first", got[0].Subject, got[1].Subject, got[2].Subject)
	}
}

// TestPrune tests age-based deletion.
func TestPrune(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()

	old := testRecord("reject")
	old.RecordedAt = time.Now().Add(-48 * time.Hour)
	fresh := testRecord("accept")

	for _, rec := range []*evidence.Record{old, fresh} {
		if err := s.Store(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := s.Prune(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Prune deleted %d records, want 1", deleted)
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != fresh.ID {
		t.Errorf("surviving records = %+v", got)
	}
}
