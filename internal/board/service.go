// ABOUTME: Board service tying the store, mention resolver, and dispatcher together
// ABOUTME: Agent registration and lifecycle, activity recording, dashboard stats

package board

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/2389/taskboard/internal/notify"
	"github.com/2389/taskboard/internal/store"
)

// Service enforces board semantics on top of the store: the task state
// machine, mention fan-out, agent lifecycle, and the activity feed. All
// task read-modify-write sequences run under a per-task mutex.
type Service struct {
	store      store.Store
	dispatcher *notify.Dispatcher
	logger     *slog.Logger
	taskLocks  *keyedMutex
}

// NewService creates a board service. Pass nil logger for default.
func NewService(s store.Store, d *notify.Dispatcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      s,
		dispatcher: d,
		logger:     logger.With("component", "board"),
		taskLocks:  newKeyedMutex(),
	}
}

// recordActivity appends an activity after a successful save. Append failure
// is logged and swallowed: the save already happened and must not be rolled
// back for the sake of the audit trail.
func (s *Service) recordActivity(ctx context.Context, a *store.Activity) {
	if err := s.store.CreateActivity(ctx, a); err != nil {
		s.logger.Error("failed to record activity",
			"type", a.Type,
			"agent_id", a.AgentID,
			"task_id", a.TaskID,
			"error", err,
		)
	}
}

// RegisterAgent creates a new agent profile. Name is required and unique
// (case-insensitive); status and level default to idle/specialist.
func (s *Service) RegisterAgent(ctx context.Context, agent *store.Agent) error {
	if agent.Name == "" {
		return validationErr("name", "required")
	}
	if agent.Status != "" && !store.ValidAgentStatus(agent.Status) {
		return validationErr("status", "unknown value "+agent.Status)
	}
	if agent.Level != "" && !store.ValidAgentLevel(agent.Level) {
		return validationErr("level", "unknown value "+agent.Level)
	}

	if err := s.store.CreateAgent(ctx, agent); err != nil {
		return fmt.Errorf("registering agent: %w", err)
	}

	s.recordActivity(ctx, &store.Activity{
		Type:    store.ActivityAgentCreated,
		AgentID: agent.ID,
		Message: fmt.Sprintf("Agent %s joined the board", agent.Name),
	})
	s.logger.Info("agent registered", "agent_id", agent.ID, "name", agent.Name)
	return nil
}

// GetAgent returns an agent by id.
func (s *Service) GetAgent(ctx context.Context, id string) (*store.Agent, error) {
	return s.store.GetAgent(ctx, id)
}

// GetAgentByName returns an agent by name, case-insensitively.
func (s *Service) GetAgentByName(ctx context.Context, name string) (*store.Agent, error) {
	return s.store.GetAgentByName(ctx, name)
}

// ListAgents returns all registered agents ordered by name.
func (s *Service) ListAgents(ctx context.Context) ([]*store.Agent, error) {
	return s.store.ListAgents(ctx)
}

// UpdateAgentStatus sets an agent's status.
func (s *Service) UpdateAgentStatus(ctx context.Context, agentID, status string) (*store.Agent, error) {
	if !store.ValidAgentStatus(status) {
		return nil, validationErr("status", "unknown value "+status)
	}
	agent, err := s.store.GetAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	agent.Status = status
	if err := s.store.UpdateAgent(ctx, agent); err != nil {
		return nil, fmt.Errorf("updating agent status: %w", err)
	}
	return agent, nil
}

// DeleteAgent removes an agent. Deletion is rejected with ErrAgentReferenced
// while the agent is assigned to open tasks; closed-task and message
// references survive as dangling weak references, which readers tolerate.
func (s *Service) DeleteAgent(ctx context.Context, id string) error {
	agent, err := s.store.GetAgent(ctx, id)
	if err != nil {
		return err
	}

	open, err := s.store.CountOpenTasksForAgent(ctx, id)
	if err != nil {
		return fmt.Errorf("checking open tasks: %w", err)
	}
	if open > 0 {
		return fmt.Errorf("%w: %d open", ErrAgentReferenced, open)
	}

	if err := s.store.DeleteAgent(ctx, id); err != nil {
		return err
	}
	s.recordActivity(ctx, &store.Activity{
		Type:    store.ActivityAgentDeleted,
		AgentID: id,
		Message: fmt.Sprintf("Agent %s left the board", agent.Name),
	})
	s.logger.Info("agent deleted", "agent_id", id, "name", agent.Name)
	return nil
}

// Notifications returns the service's notification dispatcher, the entry
// point for list / mark-delivered / mark-read operations.
func (s *Service) Notifications() *notify.Dispatcher {
	return s.dispatcher
}

// ListActivities returns activity feed entries, most recent first.
func (s *Service) ListActivities(ctx context.Context, filter store.ActivityFilter) ([]*store.Activity, error) {
	return s.store.ListActivities(ctx, filter)
}

// DashboardStats summarizes the board for the dashboard collaborator.
type DashboardStats struct {
	TotalTasks      int
	TasksByStatus   map[string]int
	TasksByPriority map[string]int
	TotalAgents     int
	AgentsByStatus  map[string]int
}

// Stats computes current board counts by status and priority.
func (s *Service) Stats(ctx context.Context) (*DashboardStats, error) {
	tasks, err := s.store.ListTasks(ctx, store.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	agents, err := s.store.ListAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing agents: %w", err)
	}

	stats := &DashboardStats{
		TotalTasks:      len(tasks),
		TasksByStatus:   make(map[string]int),
		TasksByPriority: make(map[string]int),
		TotalAgents:     len(agents),
		AgentsByStatus:  make(map[string]int),
	}
	for _, t := range tasks {
		stats.TasksByStatus[t.Status]++
		stats.TasksByPriority[t.Priority]++
	}
	for _, a := range agents {
		stats.AgentsByStatus[a.Status]++
	}
	return stats, nil
}
