// ABOUTME: SQLite persistence for the append-only activity feed
// ABOUTME: Activities are never updated or deleted; corrections are new entries

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// CreateActivity appends an activity record.
func (s *SQLiteStore) CreateActivity(ctx context.Context, activity *Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (id, type, agent_id, message, task_id, document_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, activity.ID, activity.Type, nullable(activity.AgentID), activity.Message,
		nullable(activity.TaskID), nullable(activity.DocumentID), formatTime(activity.CreatedAt))

	return err
}

// activityWhere builds the WHERE clause shared by List and Count.
func activityWhere(filter ActivityFilter) (string, []any) {
	query := ` WHERE 1=1`
	var args []any

	if filter.TaskID != "" {
		query += ` AND task_id = ?`
		args = append(args, filter.TaskID)
	}
	if filter.AgentID != "" {
		query += ` AND agent_id = ?`
		args = append(args, filter.AgentID)
	}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, filter.Type)
	}
	if filter.Since != nil {
		query += ` AND created_at > ?`
		args = append(args, formatTime(*filter.Since))
	}
	return query, args
}

// ListActivities returns activities matching the filter, most recent first.
func (s *SQLiteStore) ListActivities(ctx context.Context, filter ActivityFilter) ([]*Activity, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	// rowid breaks ties: RFC3339 timestamps only carry second precision and
	// a burst of mutations lands within one second.
	where, args := activityWhere(filter)
	query := `SELECT id, type, agent_id, message, task_id, document_id, created_at FROM activities` +
		where + ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var activities []*Activity
	for rows.Next() {
		var a Activity
		var agentID, taskID, documentID sql.NullString
		var createdAt string
		if err := rows.Scan(&a.ID, &a.Type, &agentID, &a.Message, &taskID, &documentID, &createdAt); err != nil {
			return nil, err
		}
		a.AgentID = agentID.String
		a.TaskID = taskID.String
		a.DocumentID = documentID.String
		a.CreatedAt = parseTime(createdAt)
		activities = append(activities, &a)
	}
	return activities, rows.Err()
}

// CountActivities counts activities matching the filter. Limit is ignored.
func (s *SQLiteStore) CountActivities(ctx context.Context, filter ActivityFilter) (int, error) {
	where, args := activityWhere(filter)
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities`+where, args...).Scan(&count)
	return count, err
}
