// ABOUTME: Message posting on task threads
// ABOUTME: Resolves mentions once at creation and fans notifications out through the dispatcher

package board

import (
	"context"
	"fmt"

	"github.com/2389/taskboard/internal/mention"
	"github.com/2389/taskboard/internal/store"
)

// PostMessage posts a message on a task's thread. Mentions are resolved
// against the agent directory and the task's current assignees (@all),
// stored on the message as an immutable snapshot, and fanned out as one
// notification per mentee in a single batch.
func (s *Service) PostMessage(ctx context.Context, taskID, fromAgentID, content string, attachmentIDs []string) (*store.Message, error) {
	if content == "" {
		return nil, validationErr("content", "required")
	}

	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	from, err := s.store.GetAgent(ctx, fromAgentID)
	if err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	agents, err := s.store.ListAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing agents: %w", err)
	}

	msg := &store.Message{
		TaskID:        taskID,
		FromAgentID:   fromAgentID,
		Content:       content,
		AttachmentIDs: attachmentIDs,
		Mentions:      mention.Resolve(content, agents, task.AssigneeIDs),
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	s.recordActivity(ctx, &store.Activity{
		Type:    store.ActivityMessageSent,
		AgentID: fromAgentID,
		TaskID:  taskID,
		Message: fmt.Sprintf("%s posted on %s", from.Name, task.Title),
	})

	// The message is durable at this point. A dispatch failure is surfaced
	// for caller retry; the batch insert guarantees no partial fan-out.
	if _, err := s.dispatcher.NotifyMentions(ctx, msg, from.Name); err != nil {
		s.logger.Error("mention fan-out failed", "message_id", msg.ID, "error", err)
		return msg, err
	}
	return msg, nil
}

// GetMessage returns a message by id.
func (s *Service) GetMessage(ctx context.Context, id string) (*store.Message, error) {
	return s.store.GetMessage(ctx, id)
}

// ListMessages returns a task's thread in chronological order.
func (s *Service) ListMessages(ctx context.Context, taskID string, limit int) ([]*store.Message, error) {
	return s.store.ListTaskMessages(ctx, taskID, limit)
}
