// Package auditlog keeps a local record of every configuration save attempt,
// successful or not.
package auditlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Entry is one save attempt.
type Entry struct {
	ID        string    `json:"id"`
	Outcome   string    `json:"outcome"`
	Message   string    `json:"message"`
	Version   string    `json:"version,omitempty"`
	Count     int       `json:"count"`
	Unknown   []string  `json:"unknown,omitempty"`
	DryRun    bool      `json:"dry_run"`
	CreatedAt time.Time `json:"created_at"`
}

// Log wraps a sqlite database of audit entries.
type Log struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// Open opens or creates the sqlite database.
func Open(path string) (*Log, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("audit log path cannot be empty")
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create audit dir: %w", err)
			}
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Log{db: db, path: path}, nil
}

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}

func (l *Log) handle() (*sql.DB, error) {
	l.mu.Lock()
	db := l.db
	l.mu.Unlock()
	if db == nil {
		return nil, fmt.Errorf("audit log not initialized")
	}
	return db, nil
}

// Record stores an entry, filling ID and CreatedAt when empty.
func (l *Log) Record(ctx context.Context, e Entry) (Entry, error) {
	db, err := l.handle()
	if err != nil {
		return Entry{}, err
	}
	if strings.TrimSpace(e.Outcome) == "" {
		return Entry{}, fmt.Errorf("audit entry requires an outcome")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	var unknown interface{}
	if len(e.Unknown) > 0 {
		raw, err := json.Marshal(e.Unknown)
		if err != nil {
			return Entry{}, fmt.Errorf("encode unknown ids: %w", err)
		}
		unknown = string(raw)
	}
	dry := 0
	if e.DryRun {
		dry = 1
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO save_attempts(id, outcome, message, version, role_count, unknown_ids, dry_run, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Outcome, nullIfEmpty(e.Message), nullIfEmpty(e.Version), e.Count,
		unknown, dry, e.CreatedAt.UnixMilli())
	if err != nil {
		return Entry{}, fmt.Errorf("insert audit entry: %w", err)
	}
	return e, nil
}

// Recent returns the newest entries first. limit <= 0 means 20.
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	db, err := l.handle()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, outcome, message, version, role_count, unknown_ids, dry_run, created_at
		FROM save_attempts ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			msg     sql.NullString
			version sql.NullString
			unknown sql.NullString
			dry     int
			created int64
		)
		if err := rows.Scan(&e.ID, &e.Outcome, &msg, &version, &e.Count, &unknown, &dry, &created); err != nil {
			return nil, err
		}
		e.Message = msg.String
		e.Version = version.String
		if unknown.Valid {
			if err := json.Unmarshal([]byte(unknown.String), &e.Unknown); err != nil {
				return nil, fmt.Errorf("decode unknown ids of %s: %w", e.ID, err)
			}
		}
		e.DryRun = dry == 1
		e.CreatedAt = time.UnixMilli(created)
		out = append(out, e)
	}
	return out, rows.Err()
}

func ensureSchema(db *sql.DB) error {
	stmt := `
	CREATE TABLE IF NOT EXISTS save_attempts (
		id TEXT PRIMARY KEY,
		outcome TEXT NOT NULL,
		message TEXT,
		version TEXT,
		role_count INTEGER NOT NULL DEFAULT 0,
		unknown_ids TEXT,
		dry_run INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_save_attempts_created ON save_attempts(created_at);
	`
	_, err := db.Exec(stmt)
	return err
}

func nullIfEmpty(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
