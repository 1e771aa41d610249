// ABOUTME: SQLite persistence for task messages
// ABOUTME: Messages carry an immutable mention snapshot computed at creation

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// CreateMessage inserts a new message. The mention snapshot is stored as-is;
// it is never re-derived after creation.
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	attachments, err := marshalStrings(msg.AttachmentIDs)
	if err != nil {
		return err
	}
	mentions, err := marshalStrings(msg.Mentions)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO messages (id, task_id, from_agent_id, content, attachment_ids, mentions, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.TaskID, msg.FromAgentID, msg.Content, attachments, mentions,
		formatTime(msg.CreatedAt))

	return err
}

// GetMessage retrieves a message by ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, id string) (*Message, error) {
	var m Message
	var attachments, mentions sql.NullString
	var createdAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, task_id, from_agent_id, content, attachment_ids, mentions, created_at
		FROM messages WHERE id = ?
	`, id).Scan(&m.ID, &m.TaskID, &m.FromAgentID, &m.Content, &attachments, &mentions, &createdAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	m.AttachmentIDs = unmarshalStrings(attachments)
	m.Mentions = unmarshalStrings(mentions)
	m.CreatedAt = parseTime(createdAt)
	return &m, nil
}

// ListTaskMessages returns a task's messages in chronological order.
func (s *SQLiteStore) ListTaskMessages(ctx context.Context, taskID string, limit int) ([]*Message, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, from_agent_id, content, attachment_ids, mentions, created_at
		FROM messages WHERE task_id = ?
		ORDER BY created_at ASC, rowid ASC LIMIT ?
	`, taskID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var messages []*Message
	for rows.Next() {
		var m Message
		var attachments, mentions sql.NullString
		var createdAt string
		if err := rows.Scan(&m.ID, &m.TaskID, &m.FromAgentID, &m.Content,
			&attachments, &mentions, &createdAt); err != nil {
			return nil, err
		}
		m.AttachmentIDs = unmarshalStrings(attachments)
		m.Mentions = unmarshalStrings(mentions)
		m.CreatedAt = parseTime(createdAt)
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

// DeleteTaskMessages removes all messages owned by a task. Used for the
// best-effort cascade when a task is deleted.
func (s *SQLiteStore) DeleteTaskMessages(ctx context.Context, taskID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE task_id = ?`, taskID)
	return err
}
