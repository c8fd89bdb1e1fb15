// Package quarantine persists withheld messages to a folder of .eml
// files with a SQLite index of their metadata, and prunes both on a
// retention schedule.
package quarantine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bugport/mailflow/pkg/workflow"
)

// Config configures the quarantine store.
type Config struct {
	// Folder is the directory quarantined messages are written to.
	Folder string

	// IndexPath is the SQLite index file. Defaults to
	// <Folder>/quarantine.db.
	IndexPath string

	// BusyTimeout is how long to wait for index locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

const indexSchema = `
CREATE TABLE IF NOT EXISTS quarantine (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	filename    TEXT NOT NULL UNIQUE,
	message_id  TEXT,
	from_addr   TEXT,
	to_addr     TEXT,
	subject     TEXT,
	size        INTEGER,
	created_at  TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_quarantine_created_at ON quarantine(created_at);
`

// Store writes quarantined messages and their index rows. Filenames
// follow the email_<unix-timestamp>.eml contract, with a numeric suffix
// appended on collision within the same second.
type Store struct {
	folder string
	db     *sql.DB
	logger *slog.Logger
}

// Entry is one indexed quarantined message.
type Entry struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	MessageID string    `json:"message_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Open creates the quarantine folder if needed and opens the index.
func Open(cfg Config) (*Store, error) {
	if cfg.Folder == "" {
		cfg.Folder = workflow.DefaultQuarantineFolder
	}
	if cfg.IndexPath == "" {
		cfg.IndexPath = filepath.Join(cfg.Folder, "quarantine.db")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	if err := os.MkdirAll(cfg.Folder, 0o755); err != nil {
		return nil, fmt.Errorf("creating quarantine folder: %w", err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d",
		cfg.IndexPath, int(cfg.BusyTimeout.Milliseconds()))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening quarantine index: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports a single writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(indexSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating quarantine index schema: %w", err)
	}

	return &Store{
		folder: cfg.Folder,
		db:     db,
		logger: slog.Default().With("component", "quarantine"),
	}, nil
}

// Folder returns the directory messages are written to.
func (s *Store) Folder() string {
	return s.folder
}

// Deposit writes the raw message to the quarantine folder and indexes
// its metadata. It returns the path of the written file.
func (s *Store) Deposit(ctx context.Context, raw []byte, result workflow.Record) (string, error) {
	name := fmt.Sprintf("email_%d.eml", time.Now().Unix())
	path := filepath.Join(s.folder, name)
	for seq := 1; ; seq++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		name = fmt.Sprintf("email_%d_%d.eml", time.Now().Unix(), seq)
		path = filepath.Join(s.folder, name)
	}

	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return "", fmt.Errorf("writing quarantine file: %w", err)
	}

	size := len(raw)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quarantine (filename, message_id, from_addr, to_addr, subject, size, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		name,
		result.String("message_id"),
		result.String("from"),
		result.String("to"),
		result.String("subject"),
		size,
		time.Now(),
	)
	if err != nil {
		// The file is already on disk; a broken index must not turn a
		// quarantine into a lost message.
		s.logger.Warn("failed to index quarantined message", "file", name, "error", err)
	}

	s.logger.Info("message quarantined", "file", path, "size", size)
	return path, nil
}

// List returns up to limit index entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, message_id, from_addr, to_addr, subject, size, created_at
		FROM quarantine
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying quarantine index: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Filename, &e.MessageID, &e.From, &e.To, &e.Subject, &e.Size, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning quarantine entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Prune deletes quarantined files and index rows created before cutoff
// and returns the number of entries removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT filename FROM quarantine WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("querying expired quarantine entries: %w", err)
	}

	var filenames []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning expired quarantine entry: %w", err)
		}
		filenames = append(filenames, name)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	var deleted int64
	for _, name := range filenames {
		if err := os.Remove(filepath.Join(s.folder, name)); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove quarantined file", "file", name, "error", err)
			continue
		}
		if _, err := s.db.ExecContext(ctx, "DELETE FROM quarantine WHERE filename = ?", name); err != nil {
			s.logger.Warn("failed to delete quarantine index row", "file", name, "error", err)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		s.logger.Info("pruned quarantine", "deleted", deleted, "cutoff", cutoff)
	}
	return deleted, nil
}

// Close closes the index database.
func (s *Store) Close() error {
	return s.db.Close()
}
