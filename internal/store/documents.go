// ABOUTME: SQLite persistence for documents
// ABOUTME: Content updates bump the monotonic version counter

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// CreateDocument inserts a new document at version 1.
func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	now := time.Now().UTC().Truncate(time.Second)
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	if doc.Version == 0 {
		doc.Version = 1
	}

	tags, err := marshalStrings(doc.Tags)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, content, type, task_id, author_id, tags, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Title, doc.Content, doc.Type, nullable(doc.TaskID), nullable(doc.AuthorID),
		tags, doc.Version, formatTime(doc.CreatedAt), formatTime(doc.UpdatedAt))

	return err
}

// GetDocument retrieves a document by ID.
func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*Document, error) {
	var d Document
	var content, taskID, authorID, tags sql.NullString
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, content, type, task_id, author_id, tags, version, created_at, updated_at
		FROM documents WHERE id = ?
	`, id).Scan(&d.ID, &d.Title, &content, &d.Type, &taskID, &authorID, &tags, &d.Version,
		&createdAt, &updatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	d.Content = content.String
	d.TaskID = taskID.String
	d.AuthorID = authorID.String
	d.Tags = unmarshalStrings(tags)
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseTime(updatedAt)
	return &d, nil
}

// ListDocuments returns documents, optionally scoped to a task, newest first.
func (s *SQLiteStore) ListDocuments(ctx context.Context, taskID string) ([]*Document, error) {
	var args []any
	query := `SELECT id, title, content, type, task_id, author_id, tags, version, created_at, updated_at FROM documents`
	if taskID != "" {
		query += ` WHERE task_id = ?`
		args = append(args, taskID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var docs []*Document
	for rows.Next() {
		var d Document
		var content, tid, authorID, tags sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&d.ID, &d.Title, &content, &d.Type, &tid, &authorID, &tags,
			&d.Version, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		d.Content = content.String
		d.TaskID = tid.String
		d.AuthorID = authorID.String
		d.Tags = unmarshalStrings(tags)
		d.CreatedAt = parseTime(createdAt)
		d.UpdatedAt = parseTime(updatedAt)
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}

// UpdateDocument saves an existing document and bumps its version. The
// version increment happens in SQL so concurrent updates never reuse one.
func (s *SQLiteStore) UpdateDocument(ctx context.Context, doc *Document) error {
	doc.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	tags, err := marshalStrings(doc.Tags)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE documents SET title = ?, content = ?, type = ?, task_id = ?, tags = ?,
			version = version + 1, updated_at = ?
		WHERE id = ?
	`, doc.Title, doc.Content, doc.Type, nullable(doc.TaskID), tags,
		formatTime(doc.UpdatedAt), doc.ID)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}

	// Reflect the bumped version on the caller's copy.
	err = s.db.QueryRowContext(ctx, `SELECT version FROM documents WHERE id = ?`, doc.ID).Scan(&doc.Version)
	return err
}

// DeleteDocument removes a document by ID.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
