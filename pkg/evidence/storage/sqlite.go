// Package storage provides the SQLite backend for evidence records.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bugport/mailflow/pkg/evidence"
	"github.com/bugport/mailflow/pkg/workflow"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/evidence.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS evidence (
	id             TEXT PRIMARY KEY,
	message_id     TEXT,
	from_addr      TEXT,
	to_addr        TEXT,
	subject        TEXT,
	size           INTEGER,
	action         TEXT NOT NULL,
	reject_reason  TEXT,
	payload        TEXT,
	filter_results TEXT,
	error          TEXT,
	duration_ms    INTEGER,
	recorded_at    TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evidence_recorded_at ON evidence(recorded_at);
CREATE INDEX IF NOT EXISTS idx_evidence_action ON evidence(action);
CREATE INDEX IF NOT EXISTS idx_evidence_message_id ON evidence(message_id);
`

// SQLiteStorage implements evidence.Storage using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens the database at the configured path and
// initializes the schema.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "evidence.storage.sqlite")

	db, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("evidence storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return evidence.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return evidence.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(schema); err != nil {
		return evidence.NewStorageError("sqlite", "create_schema", err)
	}

	return nil
}

// Store persists an evidence record.
func (s *SQLiteStorage) Store(ctx context.Context, record *evidence.Record) error {
	payload, _ := json.Marshal(record.Payload)
	filterResults, _ := json.Marshal(record.FilterResults)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO evidence (
			id, message_id, from_addr, to_addr, subject, size,
			action, reject_reason, payload, filter_results, error,
			duration_ms, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID, record.MessageID, record.From, record.To, record.Subject, record.Size,
		record.Action, nullable(record.RejectReason), string(payload), string(filterResults), nullable(record.Error),
		record.Duration.Milliseconds(), record.RecordedAt,
	)
	if err != nil {
		return evidence.NewStorageError("sqlite", "store", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *SQLiteStorage) Recent(ctx context.Context, limit int) ([]*evidence.Record, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, message_id, from_addr, to_addr, subject, size,
		       action, reject_reason, payload, filter_results, error,
		       duration_ms, recorded_at
		FROM evidence
		ORDER BY recorded_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	var records []*evidence.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, evidence.NewStorageError("sqlite", "scan", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, evidence.NewStorageError("sqlite", "query", err)
	}

	return records, nil
}

// Prune deletes records recorded before cutoff.
func (s *SQLiteStorage) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM evidence WHERE recorded_at < ?", cutoff)
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "prune", err)
	}
	deleted, _ := res.RowsAffected()
	if deleted > 0 {
		s.logger.Info("pruned evidence records", "deleted", deleted, "cutoff", cutoff)
	}
	return deleted, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func scanRecord(rows *sql.Rows) (*evidence.Record, error) {
	var (
		rec           evidence.Record
		rejectReason  sql.NullString
		errVal        sql.NullString
		payload       string
		filterResults string
		durationMs    int64
	)
	if err := rows.Scan(
		&rec.ID, &rec.MessageID, &rec.From, &rec.To, &rec.Subject, &rec.Size,
		&rec.Action, &rejectReason, &payload, &filterResults, &errVal,
		&durationMs, &rec.RecordedAt,
	); err != nil {
		return nil, err
	}

	rec.RejectReason = rejectReason.String
	rec.Error = errVal.String
	rec.Duration = time.Duration(durationMs) * time.Millisecond
	if payload != "" && payload != "null" {
		_ = json.Unmarshal([]byte(payload), &rec.Payload)
	}
	if filterResults != "" && filterResults != "null" {
		var results []workflow.ConditionResult
		if err := json.Unmarshal([]byte(filterResults), &results); err == nil {
			rec.FilterResults = results
		}
	}

	return &rec, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
