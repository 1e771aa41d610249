// ABOUTME: SQLite persistence for tasks
// ABOUTME: Handles task CRUD, filtered listing, and open-task counts per assignee

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

const taskColumns = `id, title, description, status, priority, assignee_ids, creator_id,
	parent_task_id, blocked_by, tags, due_date, started_at, completed_at, created_at, updated_at`

// CreateTask inserts a new task.
func (s *SQLiteStore) CreateTask(ctx context.Context, task *Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now().UTC().Truncate(time.Second)
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = TaskStatusInbox
	}
	if task.Priority == "" {
		task.Priority = PriorityMedium
	}

	assignees, err := marshalStrings(task.AssigneeIDs)
	if err != nil {
		return err
	}
	blockedBy, err := marshalStrings(task.BlockedBy)
	if err != nil {
		return err
	}
	tags, err := marshalStrings(task.Tags)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, task.ID, task.Title, task.Description, task.Status, task.Priority, assignees,
		nullable(task.CreatorID), nullable(task.ParentTaskID), blockedBy, tags,
		formatTimePtr(task.DueDate), formatTimePtr(task.StartedAt), formatTimePtr(task.CompletedAt),
		formatTime(task.CreatedAt), formatTime(task.UpdatedAt))

	return err
}

// GetTask retrieves a task by ID.
func (s *SQLiteStore) GetTask(ctx context.Context, id string) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)

	task, err := scanTask(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return task, err
}

// scanTask reads a task from a row scan function shared by Get and List.
func scanTask(scan func(...any) error) (*Task, error) {
	var t Task
	var description, assignees, creatorID, parentID, blockedBy, tags sql.NullString
	var dueDate, startedAt, completedAt sql.NullString
	var createdAt, updatedAt string

	err := scan(&t.ID, &t.Title, &description, &t.Status, &t.Priority, &assignees,
		&creatorID, &parentID, &blockedBy, &tags, &dueDate, &startedAt, &completedAt,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	t.Description = description.String
	t.AssigneeIDs = unmarshalStrings(assignees)
	t.CreatorID = creatorID.String
	t.ParentTaskID = parentID.String
	t.BlockedBy = unmarshalStrings(blockedBy)
	t.Tags = unmarshalStrings(tags)
	t.DueDate = parseTimePtr(dueDate)
	t.StartedAt = parseTimePtr(startedAt)
	t.CompletedAt = parseTimePtr(completedAt)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return &t, nil
}

// ListTasks returns tasks matching the filter, newest first. The assignee and
// tag filters match against the JSON-encoded set columns.
func (s *SQLiteStore) ListTasks(ctx context.Context, filter TaskFilter) ([]*Task, error) {
	var args []any
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Priority != "" {
		query += ` AND priority = ?`
		args = append(args, filter.Priority)
	}
	if filter.AssigneeID != "" {
		query += ` AND assignee_ids LIKE ?`
		args = append(args, `%"`+filter.AssigneeID+`"%`)
	}
	if filter.ParentID != "" {
		query += ` AND parent_task_id = ?`
		args = append(args, filter.ParentID)
	}
	if filter.Tag != "" {
		query += ` AND tags LIKE ?`
		args = append(args, `%"`+filter.Tag+`"%`)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tasks []*Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpdateTask saves an existing task in full. Callers serialize concurrent
// read-modify-write sequences per task id; the store is a plain row save.
func (s *SQLiteStore) UpdateTask(ctx context.Context, task *Task) error {
	task.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	assignees, err := marshalStrings(task.AssigneeIDs)
	if err != nil {
		return err
	}
	blockedBy, err := marshalStrings(task.BlockedBy)
	if err != nil {
		return err
	}
	tags, err := marshalStrings(task.Tags)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?,
			assignee_ids = ?, creator_id = ?, parent_task_id = ?, blocked_by = ?,
			tags = ?, due_date = ?, started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ?
	`, task.Title, task.Description, task.Status, task.Priority, assignees,
		nullable(task.CreatorID), nullable(task.ParentTaskID), blockedBy, tags,
		formatTimePtr(task.DueDate), formatTimePtr(task.StartedAt), formatTimePtr(task.CompletedAt),
		formatTime(task.UpdatedAt), task.ID)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTask removes a task by ID. Messages owned by the task are cleaned up
// separately (best-effort cascade, driven by the board service).
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountOpenTasksForAgent counts tasks assigned to the agent that are not done.
func (s *SQLiteStore) CountOpenTasksForAgent(ctx context.Context, agentID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tasks
		WHERE status != ? AND assignee_ids LIKE ?
	`, TaskStatusDone, `%"`+agentID+`"%`).Scan(&count)
	return count, err
}
