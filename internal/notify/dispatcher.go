// ABOUTME: Notification dispatch for mentions and assignments
// ABOUTME: Builds full fan-out batches before persisting so readers never see partial fan-out

package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/2389/taskboard/internal/store"
)

// Dispatcher creates and manages notifications. Creation and delivery are
// separate steps: a notification is created undelivered and later marked
// delivered (idempotently) by whichever transport hands it to the agent.
type Dispatcher struct {
	store  store.Store
	logger *slog.Logger
}

// NewDispatcher creates a Dispatcher. Pass nil logger for default.
func NewDispatcher(s store.Store, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:  s,
		logger: logger.With("component", "notify"),
	}
}

// Notify creates a single notification for an agent.
func (d *Dispatcher) Notify(ctx context.Context, agentID, typ, content, sourceMessageID, sourceTaskID string) (*store.Notification, error) {
	n := &store.Notification{
		AgentID:         agentID,
		Type:            typ,
		Content:         content,
		SourceMessageID: sourceMessageID,
		SourceTaskID:    sourceTaskID,
	}
	if err := d.store.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("creating notification: %w", err)
	}

	d.logger.Debug("notification created",
		"notification_id", n.ID,
		"agent_id", agentID,
		"type", typ,
	)
	return n, nil
}

// NotifyMentions fans a posted message out to its mention snapshot, one
// notification per mentee. The batch is constructed in full and persisted in
// a single transaction: the notifications created always match the mentions
// recorded on the message, exactly.
func (d *Dispatcher) NotifyMentions(ctx context.Context, msg *store.Message, fromName string) ([]*store.Notification, error) {
	if len(msg.Mentions) == 0 {
		return nil, nil
	}

	batch := make([]*store.Notification, 0, len(msg.Mentions))
	for _, agentID := range msg.Mentions {
		batch = append(batch, &store.Notification{
			AgentID:         agentID,
			Type:            store.NotificationTypeMention,
			Content:         fmt.Sprintf("%s mentioned you: %s", fromName, msg.Content),
			SourceMessageID: msg.ID,
			SourceTaskID:    msg.TaskID,
		})
	}

	if err := d.store.CreateNotifications(ctx, batch); err != nil {
		return nil, fmt.Errorf("fanning out mentions: %w", err)
	}

	d.logger.Debug("mention fan-out complete",
		"message_id", msg.ID,
		"task_id", msg.TaskID,
		"mentions", len(batch),
	)
	return batch, nil
}

// NotifyAssignment notifies each newly added assignee of a task. Callers
// pass only the agents added by this assignment; re-saving an existing
// assignee set must not re-notify.
func (d *Dispatcher) NotifyAssignment(ctx context.Context, task *store.Task, addedIDs []string) ([]*store.Notification, error) {
	if len(addedIDs) == 0 {
		return nil, nil
	}

	batch := make([]*store.Notification, 0, len(addedIDs))
	for _, agentID := range addedIDs {
		batch = append(batch, &store.Notification{
			AgentID:      agentID,
			Type:         store.NotificationTypeAssignment,
			Content:      fmt.Sprintf("You were assigned to task: %s", task.Title),
			SourceTaskID: task.ID,
		})
	}

	if err := d.store.CreateNotifications(ctx, batch); err != nil {
		return nil, fmt.Errorf("notifying assignees: %w", err)
	}
	return batch, nil
}

// MarkDelivered marks a notification delivered. Repeat calls are no-ops.
func (d *Dispatcher) MarkDelivered(ctx context.Context, id string) error {
	return d.store.MarkNotificationDelivered(ctx, id)
}

// MarkRead marks a notification read, promoting it to delivered first if the
// transport never confirmed delivery.
func (d *Dispatcher) MarkRead(ctx context.Context, id string) error {
	return d.store.MarkNotificationRead(ctx, id)
}

// ListForAgent lists an agent's notifications, newest first.
func (d *Dispatcher) ListForAgent(ctx context.Context, agentID string, unreadOnly bool, limit int) ([]*store.Notification, error) {
	return d.store.ListNotifications(ctx, agentID, unreadOnly, limit)
}

// UnreadCount counts an agent's unread notifications.
func (d *Dispatcher) UnreadCount(ctx context.Context, agentID string) (int, error) {
	return d.store.CountUnreadNotifications(ctx, agentID)
}
