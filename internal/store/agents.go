// ABOUTME: SQLite persistence for agent profiles
// ABOUTME: Handles registration, lookup by id and name, status updates, and deletion

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateAgent registers a new agent. Names are unique case-insensitively;
// a duplicate returns ErrNameTaken.
func (s *SQLiteStore) CreateAgent(ctx context.Context, agent *Agent) error {
	if agent.ID == "" {
		agent.ID = uuid.New().String()
	}
	now := time.Now().UTC().Truncate(time.Second)
	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = now
	}
	agent.UpdatedAt = now
	if agent.Status == "" {
		agent.Status = AgentStatusIdle
	}
	if agent.Level == "" {
		agent.Level = AgentLevelSpecialist
	}

	specialties, err := marshalStrings(agent.Specialties)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO agents (id, name, role, description, specialties, status, level,
			current_task_id, last_heartbeat, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, agent.ID, agent.Name, agent.Role, agent.Description, specialties, agent.Status,
		agent.Level, nullable(agent.CurrentTaskID), formatTimePtr(agent.LastHeartbeat),
		formatTime(agent.CreatedAt), formatTime(agent.UpdatedAt))

	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrNameTaken
	}
	return err
}

// GetAgent retrieves an agent by ID.
func (s *SQLiteStore) GetAgent(ctx context.Context, id string) (*Agent, error) {
	return s.scanAgentRow(s.db.QueryRowContext(ctx, `
		SELECT id, name, role, description, specialties, status, level,
			current_task_id, last_heartbeat, created_at, updated_at
		FROM agents WHERE id = ?
	`, id))
}

// GetAgentByName retrieves an agent by name, case-insensitively.
func (s *SQLiteStore) GetAgentByName(ctx context.Context, name string) (*Agent, error) {
	return s.scanAgentRow(s.db.QueryRowContext(ctx, `
		SELECT id, name, role, description, specialties, status, level,
			current_task_id, last_heartbeat, created_at, updated_at
		FROM agents WHERE name = ? COLLATE NOCASE
	`, name))
}

func (s *SQLiteStore) scanAgentRow(row *sql.Row) (*Agent, error) {
	var a Agent
	var description, specialties, currentTaskID, lastHeartbeat sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&a.ID, &a.Name, &a.Role, &description, &specialties, &a.Status,
		&a.Level, &currentTaskID, &lastHeartbeat, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	a.Description = description.String
	a.Specialties = unmarshalStrings(specialties)
	a.CurrentTaskID = currentTaskID.String
	a.LastHeartbeat = parseTimePtr(lastHeartbeat)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return &a, nil
}

// ListAgents returns all registered agents ordered by name.
func (s *SQLiteStore) ListAgents(ctx context.Context) ([]*Agent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, role, description, specialties, status, level,
			current_task_id, last_heartbeat, created_at, updated_at
		FROM agents ORDER BY name COLLATE NOCASE ASC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var agents []*Agent
	for rows.Next() {
		var a Agent
		var description, specialties, currentTaskID, lastHeartbeat sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&a.ID, &a.Name, &a.Role, &description, &specialties,
			&a.Status, &a.Level, &currentTaskID, &lastHeartbeat, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		a.Description = description.String
		a.Specialties = unmarshalStrings(specialties)
		a.CurrentTaskID = currentTaskID.String
		a.LastHeartbeat = parseTimePtr(lastHeartbeat)
		a.CreatedAt = parseTime(createdAt)
		a.UpdatedAt = parseTime(updatedAt)
		agents = append(agents, &a)
	}
	return agents, rows.Err()
}

// UpdateAgent saves an existing agent.
func (s *SQLiteStore) UpdateAgent(ctx context.Context, agent *Agent) error {
	agent.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	specialties, err := marshalStrings(agent.Specialties)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE agents SET name = ?, role = ?, description = ?, specialties = ?,
			status = ?, level = ?, current_task_id = ?, last_heartbeat = ?, updated_at = ?
		WHERE id = ?
	`, agent.Name, agent.Role, agent.Description, specialties, agent.Status, agent.Level,
		nullable(agent.CurrentTaskID), formatTimePtr(agent.LastHeartbeat),
		formatTime(agent.UpdatedAt), agent.ID)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrNameTaken
		}
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAgent removes an agent by ID. Referential policy (rejecting deletion
// while the agent holds open tasks) is enforced by the board service, not here.
func (s *SQLiteStore) DeleteAgent(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM agents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting agent: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
