// ABOUTME: Task lifecycle operations: creation, partial updates, assignment, status
// ABOUTME: Enforces transition side effects and cycle-free parent links under per-task locks

package board

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2389/taskboard/internal/store"
)

// TaskUpdate carries a partial task update. Nil fields are left untouched,
// so concurrent updates only contend on the fields they actually set.
type TaskUpdate struct {
	Title        *string
	Description  *string
	Status       *string
	Priority     *string
	AssigneeIDs  *[]string
	ParentTaskID *string
	BlockedBy    *[]string
	Tags         *[]string
	DueDate      *time.Time
}

// applyTransition moves a task to status and stamps the lifecycle
// timestamps. StartedAt is set the first time the task leaves inbox and never
// overwritten; CompletedAt is set entering done and cleared leaving it.
// Stamps carry second precision, the same resolution the store persists, so
// the value written equals the value every later read returns.
func applyTransition(task *store.Task, status string, now time.Time) {
	now = now.Truncate(time.Second)
	prev := task.Status
	task.Status = status

	if task.StartedAt == nil && status != store.TaskStatusInbox &&
		(prev == store.TaskStatusInbox || status == store.TaskStatusInProgress) {
		t := now
		task.StartedAt = &t
	}
	if status == store.TaskStatusDone {
		if task.CompletedAt == nil {
			t := now
			task.CompletedAt = &t
		}
	} else {
		task.CompletedAt = nil
	}
}

// CreateTask adds a task to the board. Status defaults to inbox and priority
// to medium; a task created with assignees lands in assigned directly and
// the assignees are notified.
func (s *Service) CreateTask(ctx context.Context, task *store.Task) error {
	if task.Title == "" {
		return validationErr("title", "required")
	}
	if task.Status != "" && !store.ValidTaskStatus(task.Status) {
		return validationErr("status", "unknown value "+task.Status)
	}
	if task.Priority != "" && !store.ValidPriority(task.Priority) {
		return validationErr("priority", "unknown value "+task.Priority)
	}

	if len(task.AssigneeIDs) > 0 && (task.Status == "" || task.Status == store.TaskStatusInbox) {
		task.Status = store.TaskStatusAssigned
	}
	if task.Status != "" && task.Status != store.TaskStatusInbox {
		target := task.Status
		task.Status = store.TaskStatusInbox
		applyTransition(task, target, time.Now().UTC())
	}

	if err := s.store.CreateTask(ctx, task); err != nil {
		return fmt.Errorf("creating task: %w", err)
	}

	s.recordActivity(ctx, &store.Activity{
		Type:    store.ActivityTaskCreated,
		AgentID: task.CreatorID,
		TaskID:  task.ID,
		Message: fmt.Sprintf("Task created: %s", task.Title),
	})

	if len(task.AssigneeIDs) > 0 {
		if _, err := s.dispatcher.NotifyAssignment(ctx, task, task.AssigneeIDs); err != nil {
			s.logger.Error("assignment notification failed", "task_id", task.ID, "error", err)
			return err
		}
	}
	return nil
}

// GetTask returns a task by id.
func (s *Service) GetTask(ctx context.Context, id string) (*store.Task, error) {
	return s.store.GetTask(ctx, id)
}

// ListTasks returns tasks matching the filter, newest first.
func (s *Service) ListTasks(ctx context.Context, filter store.TaskFilter) ([]*store.Task, error) {
	return s.store.ListTasks(ctx, filter)
}

// UpdateTask applies a partial update under the task's lock. Assignment and
// status side effects fire exactly as they do for the dedicated calls.
func (s *Service) UpdateTask(ctx context.Context, taskID, actorID string, upd TaskUpdate) (*store.Task, error) {
	if upd.Status != nil && !store.ValidTaskStatus(*upd.Status) {
		return nil, validationErr("status", "unknown value "+*upd.Status)
	}
	if upd.Priority != nil && !store.ValidPriority(*upd.Priority) {
		return nil, validationErr("priority", "unknown value "+*upd.Priority)
	}
	if upd.Title != nil && *upd.Title == "" {
		return nil, validationErr("title", "required")
	}

	unlock := s.taskLocks.lock(taskID)
	defer unlock()

	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if upd.ParentTaskID != nil && *upd.ParentTaskID != task.ParentTaskID && *upd.ParentTaskID != "" {
		if err := s.checkParentCycle(ctx, taskID, *upd.ParentTaskID); err != nil {
			return nil, err
		}
	}

	if upd.Title != nil {
		task.Title = *upd.Title
	}
	if upd.Description != nil {
		task.Description = *upd.Description
	}
	if upd.Priority != nil {
		task.Priority = *upd.Priority
	}
	if upd.ParentTaskID != nil {
		task.ParentTaskID = *upd.ParentTaskID
	}
	if upd.BlockedBy != nil {
		task.BlockedBy = *upd.BlockedBy
	}
	if upd.Tags != nil {
		task.Tags = *upd.Tags
	}
	if upd.DueDate != nil {
		task.DueDate = upd.DueDate
	}

	var added []string
	if upd.AssigneeIDs != nil {
		added = newMembers(task.AssigneeIDs, *upd.AssigneeIDs)
		task.AssigneeIDs = *upd.AssigneeIDs
	}

	now := time.Now().UTC()
	statusChanged := false
	switch {
	case upd.Status != nil && *upd.Status != task.Status:
		applyTransition(task, *upd.Status, now)
		statusChanged = true
	case upd.Status == nil && upd.AssigneeIDs != nil && len(task.AssigneeIDs) > 0 && task.Status == store.TaskStatusInbox:
		applyTransition(task, store.TaskStatusAssigned, now)
		statusChanged = true
	}

	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("updating task: %w", err)
	}

	switch {
	case statusChanged:
		s.recordActivity(ctx, &store.Activity{
			Type:    store.ActivityStatusChanged,
			AgentID: actorID,
			TaskID:  task.ID,
			Message: fmt.Sprintf("Task %s moved to %s", task.Title, task.Status),
		})
	case len(added) > 0:
		s.recordActivity(ctx, &store.Activity{
			Type:    store.ActivityTaskAssigned,
			AgentID: actorID,
			TaskID:  task.ID,
			Message: fmt.Sprintf("Task %s assigned to %d agent(s)", task.Title, len(added)),
		})
	default:
		s.recordActivity(ctx, &store.Activity{
			Type:    store.ActivityTaskUpdated,
			AgentID: actorID,
			TaskID:  task.ID,
			Message: fmt.Sprintf("Task %s updated", task.Title),
		})
	}

	if len(added) > 0 {
		if _, err := s.dispatcher.NotifyAssignment(ctx, task, added); err != nil {
			s.logger.Error("assignment notification failed", "task_id", task.ID, "error", err)
			return nil, err
		}
		s.setCurrentTask(ctx, added, task.ID)
	}
	return task, nil
}

// UpdateStatus moves a task to a new status on behalf of an acting agent.
func (s *Service) UpdateStatus(ctx context.Context, taskID, status, actingAgentID string) (*store.Task, error) {
	return s.UpdateTask(ctx, taskID, actingAgentID, TaskUpdate{Status: &status})
}

// Assign adds agents to a task's assignee set. Each agent must exist. A task
// still in inbox moves to assigned; only newly added agents are notified.
func (s *Service) Assign(ctx context.Context, taskID string, agentIDs []string, actorID string) (*store.Task, error) {
	if len(agentIDs) == 0 {
		return nil, validationErr("agent_ids", "required")
	}
	for _, id := range agentIDs {
		if _, err := s.store.GetAgent(ctx, id); err != nil {
			return nil, fmt.Errorf("assignee %s: %w", id, err)
		}
	}

	unlock := s.taskLocks.lock(taskID)
	defer unlock()

	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	added := newMembers(task.AssigneeIDs, agentIDs)
	task.AssigneeIDs = append(task.AssigneeIDs, added...)
	if task.Status == store.TaskStatusInbox {
		applyTransition(task, store.TaskStatusAssigned, time.Now().UTC())
	}

	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("assigning task: %w", err)
	}

	s.recordActivity(ctx, &store.Activity{
		Type:    store.ActivityTaskAssigned,
		AgentID: actorID,
		TaskID:  task.ID,
		Message: fmt.Sprintf("Task %s assigned to %d agent(s)", task.Title, len(added)),
	})

	if len(added) > 0 {
		if _, err := s.dispatcher.NotifyAssignment(ctx, task, added); err != nil {
			s.logger.Error("assignment notification failed", "task_id", task.ID, "error", err)
			return nil, err
		}
		s.setCurrentTask(ctx, added, task.ID)
	}
	return task, nil
}

// DeleteTask removes a task and, best-effort, its message thread.
func (s *Service) DeleteTask(ctx context.Context, taskID, actorID string) error {
	unlock := s.taskLocks.lock(taskID)
	defer unlock()

	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, taskID); err != nil {
		return err
	}
	if err := s.store.DeleteTaskMessages(ctx, taskID); err != nil {
		s.logger.Warn("message cleanup failed", "task_id", taskID, "error", err)
	}

	s.recordActivity(ctx, &store.Activity{
		Type:    store.ActivityTaskDeleted,
		AgentID: actorID,
		TaskID:  taskID,
		Message: fmt.Sprintf("Task deleted: %s", task.Title),
	})
	return nil
}

// checkParentCycle rejects a parent link that would make the task its own
// ancestor. Dangling parents end the walk; they cannot close a cycle.
func (s *Service) checkParentCycle(ctx context.Context, taskID, parentID string) error {
	seen := make(map[string]bool)
	for cur := parentID; cur != ""; {
		if cur == taskID {
			return ErrParentCycle
		}
		if seen[cur] {
			return nil
		}
		seen[cur] = true

		parent, err := s.store.GetTask(ctx, cur)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("walking parent chain: %w", err)
		}
		cur = parent.ParentTaskID
	}
	return nil
}

// setCurrentTask points newly assigned agents at the task. Best-effort; a
// failed pointer update is logged and does not fail the assignment.
func (s *Service) setCurrentTask(ctx context.Context, agentIDs []string, taskID string) {
	for _, id := range agentIDs {
		agent, err := s.store.GetAgent(ctx, id)
		if err != nil {
			s.logger.Warn("current task update skipped", "agent_id", id, "error", err)
			continue
		}
		agent.CurrentTaskID = taskID
		if err := s.store.UpdateAgent(ctx, agent); err != nil {
			s.logger.Warn("current task update failed", "agent_id", id, "error", err)
		}
	}
}

// newMembers returns the ids in candidate that are not already in existing.
func newMembers(existing, candidate []string) []string {
	have := make(map[string]bool, len(existing))
	for _, id := range existing {
		have[id] = true
	}
	var added []string
	for _, id := range candidate {
		if !have[id] {
			have[id] = true
			added = append(added, id)
		}
	}
	return added
}
