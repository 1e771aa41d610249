// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides entity persistence with automatic schema creation

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS agents (
			id             TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			role           TEXT NOT NULL,
			description    TEXT,
			specialties    TEXT,
			status         TEXT NOT NULL,
			level          TEXT NOT NULL,
			current_task_id TEXT,
			last_heartbeat TEXT,
			created_at     TEXT NOT NULL,
			updated_at     TEXT NOT NULL,

			CHECK (status IN ('idle', 'active', 'blocked', 'offline')),
			CHECK (level IN ('intern', 'specialist', 'lead'))
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_agents_name
			ON agents(name COLLATE NOCASE);

		CREATE TABLE IF NOT EXISTS tasks (
			id             TEXT PRIMARY KEY,
			title          TEXT NOT NULL,
			description    TEXT,
			status         TEXT NOT NULL,
			priority       TEXT NOT NULL,
			assignee_ids   TEXT,
			creator_id     TEXT,
			parent_task_id TEXT,
			blocked_by     TEXT,
			tags           TEXT,
			due_date       TEXT,
			started_at     TEXT,
			completed_at   TEXT,
			created_at     TEXT NOT NULL,
			updated_at     TEXT NOT NULL,

			CHECK (status IN ('inbox', 'assigned', 'in_progress', 'review', 'done', 'blocked')),
			CHECK (priority IN ('low', 'medium', 'high', 'urgent'))
		);

		CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
		CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent_task_id);

		CREATE TABLE IF NOT EXISTS messages (
			id             TEXT PRIMARY KEY,
			task_id        TEXT NOT NULL,
			from_agent_id  TEXT NOT NULL,
			content        TEXT NOT NULL,
			attachment_ids TEXT,
			mentions       TEXT,
			created_at     TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_messages_task ON messages(task_id, created_at);

		CREATE TABLE IF NOT EXISTS activities (
			id          TEXT PRIMARY KEY,
			type        TEXT NOT NULL,
			agent_id    TEXT,
			message     TEXT NOT NULL,
			task_id     TEXT,
			document_id TEXT,
			created_at  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_activities_created ON activities(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_activities_task ON activities(task_id);
		CREATE INDEX IF NOT EXISTS idx_activities_agent ON activities(agent_id);

		CREATE TABLE IF NOT EXISTS documents (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			content    TEXT,
			type       TEXT NOT NULL,
			task_id    TEXT,
			author_id  TEXT,
			tags       TEXT,
			version    INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,

			CHECK (type IN ('deliverable', 'research', 'protocol', 'template', 'draft'))
		);

		CREATE INDEX IF NOT EXISTS idx_documents_task ON documents(task_id);

		CREATE TABLE IF NOT EXISTS notifications (
			id                TEXT PRIMARY KEY,
			agent_id          TEXT NOT NULL,
			type              TEXT NOT NULL,
			content           TEXT NOT NULL,
			source_message_id TEXT,
			source_task_id    TEXT,
			delivered         INTEGER NOT NULL DEFAULT 0,
			read              INTEGER NOT NULL DEFAULT 0,
			created_at        TEXT NOT NULL,
			delivered_at      TEXT,
			read_at           TEXT,

			CHECK (read = 0 OR delivered = 1)
		);

		CREATE INDEX IF NOT EXISTS idx_notifications_agent ON notifications(agent_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications(agent_id, read);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// marshalStrings encodes a string slice as JSON for a nullable text column.
// Empty slices are stored as NULL.
func marshalStrings(vals []string) (*string, error) {
	if len(vals) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(vals)
	if err != nil {
		return nil, fmt.Errorf("marshaling string list: %w", err)
	}
	str := string(b)
	return &str, nil
}

// unmarshalStrings decodes a JSON-encoded string slice from a nullable
// column. Invalid JSON leaves the result empty (best effort).
func unmarshalStrings(col sql.NullString) []string {
	if !col.Valid || col.String == "" {
		return nil
	}
	var vals []string
	_ = json.Unmarshal([]byte(col.String), &vals)
	return vals
}

// formatTime renders a timestamp for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// formatTimePtr renders an optional timestamp for a nullable column.
func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	str := formatTime(*t)
	return &str
}

// parseTime parses a stored timestamp, tolerating the zero string.
func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// parseTimePtr parses an optional stored timestamp.
func parseTimePtr(col sql.NullString) *time.Time {
	if !col.Valid || col.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, col.String)
	if err != nil {
		return nil
	}
	return &t
}

// nullable wraps a string for a nullable text column, storing "" as NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
