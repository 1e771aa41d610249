// ABOUTME: SQLite persistence for notifications
// ABOUTME: Batch creation is transactional so mention fan-out is all-or-nothing

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// prepareNotification fills defaults before insert.
func prepareNotification(n *Notification) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
}

const insertNotificationSQL = `
	INSERT INTO notifications (id, agent_id, type, content, source_message_id,
		source_task_id, delivered, read, created_at, delivered_at, read_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// CreateNotification inserts a single notification.
func (s *SQLiteStore) CreateNotification(ctx context.Context, n *Notification) error {
	prepareNotification(n)

	_, err := s.db.ExecContext(ctx, insertNotificationSQL,
		n.ID, n.AgentID, n.Type, n.Content, nullable(n.SourceMessageID),
		nullable(n.SourceTaskID), n.Delivered, n.Read, formatTime(n.CreatedAt),
		formatTimePtr(n.DeliveredAt), formatTimePtr(n.ReadAt))
	return err
}

// CreateNotifications inserts a batch of notifications in one transaction.
// Either every notification in the batch becomes visible or none does, which
// is what keeps mention fan-out atomic with respect to readers.
func (s *SQLiteStore) CreateNotifications(ctx context.Context, batch []*Notification) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, n := range batch {
		prepareNotification(n)
		if _, err := tx.ExecContext(ctx, insertNotificationSQL,
			n.ID, n.AgentID, n.Type, n.Content, nullable(n.SourceMessageID),
			nullable(n.SourceTaskID), n.Delivered, n.Read, formatTime(n.CreatedAt),
			formatTimePtr(n.DeliveredAt), formatTimePtr(n.ReadAt)); err != nil {
			return fmt.Errorf("inserting notification for %s: %w", n.AgentID, err)
		}
	}

	return tx.Commit()
}

// GetNotification retrieves a notification by ID.
func (s *SQLiteStore) GetNotification(ctx context.Context, id string) (*Notification, error) {
	var n Notification
	var sourceMessageID, sourceTaskID, deliveredAt, readAt sql.NullString
	var createdAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, agent_id, type, content, source_message_id, source_task_id,
			delivered, read, created_at, delivered_at, read_at
		FROM notifications WHERE id = ?
	`, id).Scan(&n.ID, &n.AgentID, &n.Type, &n.Content, &sourceMessageID, &sourceTaskID,
		&n.Delivered, &n.Read, &createdAt, &deliveredAt, &readAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	n.SourceMessageID = sourceMessageID.String
	n.SourceTaskID = sourceTaskID.String
	n.CreatedAt = parseTime(createdAt)
	n.DeliveredAt = parseTimePtr(deliveredAt)
	n.ReadAt = parseTimePtr(readAt)
	return &n, nil
}

// ListNotifications lists notifications for an agent, newest first.
func (s *SQLiteStore) ListNotifications(ctx context.Context, agentID string, unreadOnly bool, limit int) ([]*Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	args := []any{agentID}
	query := `SELECT id, agent_id, type, content, source_message_id, source_task_id,
		delivered, read, created_at, delivered_at, read_at
		FROM notifications WHERE agent_id = ?`
	if unreadOnly {
		query += ` AND read = 0`
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var notifications []*Notification
	for rows.Next() {
		var n Notification
		var sourceMessageID, sourceTaskID, deliveredAt, readAt sql.NullString
		var createdAt string
		if err := rows.Scan(&n.ID, &n.AgentID, &n.Type, &n.Content, &sourceMessageID,
			&sourceTaskID, &n.Delivered, &n.Read, &createdAt, &deliveredAt, &readAt); err != nil {
			return nil, err
		}
		n.SourceMessageID = sourceMessageID.String
		n.SourceTaskID = sourceTaskID.String
		n.CreatedAt = parseTime(createdAt)
		n.DeliveredAt = parseTimePtr(deliveredAt)
		n.ReadAt = parseTimePtr(readAt)
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

// MarkNotificationDelivered flips delivered on and stamps delivered_at, once.
// Repeat calls are no-ops: delivered_at keeps its first value.
func (s *SQLiteStore) MarkNotificationDelivered(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET delivered = 1, delivered_at = ?
		WHERE id = ? AND delivered = 0
	`, formatTime(time.Now()), id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		// Distinguish "already delivered" (fine) from "missing".
		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM notifications WHERE id = ?`, id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("checking notification existence: %w", err)
		}
	}
	return nil
}

// MarkNotificationRead flips read on and stamps read_at, once. Undelivered
// notifications are promoted to delivered first so the read-implies-delivered
// invariant holds.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id string) error {
	now := formatTime(time.Now())
	result, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET read = 1, delivered = 1,
			delivered_at = COALESCE(delivered_at, ?),
			read_at = COALESCE(read_at, ?)
		WHERE id = ?
	`, now, now, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUnreadNotifications counts unread notifications for an agent.
func (s *SQLiteStore) CountUnreadNotifications(ctx context.Context, agentID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications WHERE agent_id = ? AND read = 0
	`, agentID).Scan(&count)
	return count, err
}
