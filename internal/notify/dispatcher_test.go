// ABOUTME: Tests for the notification dispatcher
// ABOUTME: Fan-out batches, assignment notices, and delivery state transitions

package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/taskboard/internal/store"
)

func setupDispatcher(t *testing.T) (*Dispatcher, store.Store) {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewDispatcher(s, nil), s
}

func TestDispatcher_NotifyMentions(t *testing.T) {
	d, _ := setupDispatcher(t)
	ctx := context.Background()

	msg := &store.Message{
		ID:          "msg-1",
		TaskID:      "task-1",
		FromAgentID: "id-jarvis",
		Content:     "@Shuri @Wanda please review",
		Mentions:    []string{"id-shuri", "id-wanda"},
	}

	batch, err := d.NotifyMentions(ctx, msg, "Jarvis")
	require.NoError(t, err)
	require.Len(t, batch, 2)

	for _, agentID := range []string{"id-shuri", "id-wanda"} {
		notifs, err := d.ListForAgent(ctx, agentID, false, 0)
		require.NoError(t, err)
		require.Len(t, notifs, 1)
		n := notifs[0]
		assert.Equal(t, store.NotificationTypeMention, n.Type)
		assert.Equal(t, "msg-1", n.SourceMessageID)
		assert.Equal(t, "task-1", n.SourceTaskID)
		assert.Contains(t, n.Content, "Jarvis mentioned you")
		assert.False(t, n.Delivered)
		assert.False(t, n.Read)
	}
}

func TestDispatcher_NotifyMentionsEmpty(t *testing.T) {
	d, _ := setupDispatcher(t)

	batch, err := d.NotifyMentions(context.Background(), &store.Message{ID: "m", TaskID: "t"}, "Jarvis")
	require.NoError(t, err)
	assert.Empty(t, batch)
}

func TestDispatcher_NotifyAssignment(t *testing.T) {
	d, _ := setupDispatcher(t)
	ctx := context.Background()

	task := &store.Task{ID: "task-1", Title: "Ship the report"}

	batch, err := d.NotifyAssignment(ctx, task, []string{"id-shuri"})
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, store.NotificationTypeAssignment, batch[0].Type)
	assert.Contains(t, batch[0].Content, "Ship the report")
	assert.Equal(t, "task-1", batch[0].SourceTaskID)
	assert.Empty(t, batch[0].SourceMessageID)

	// No newly added assignees means no notifications.
	batch, err = d.NotifyAssignment(ctx, task, nil)
	require.NoError(t, err)
	assert.Empty(t, batch)

	notifs, err := d.ListForAgent(ctx, "id-shuri", false, 0)
	require.NoError(t, err)
	assert.Len(t, notifs, 1)
}

func TestDispatcher_DeliveryLifecycle(t *testing.T) {
	d, _ := setupDispatcher(t)
	ctx := context.Background()

	n, err := d.Notify(ctx, "id-shuri", store.NotificationTypeMention, "hi", "msg-1", "task-1")
	require.NoError(t, err)

	count, err := d.UnreadCount(ctx, "id-shuri")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, d.MarkDelivered(ctx, n.ID))
	require.NoError(t, d.MarkDelivered(ctx, n.ID)) // idempotent

	// Delivered but unread still counts as unread.
	count, err = d.UnreadCount(ctx, "id-shuri")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, d.MarkRead(ctx, n.ID))

	count, err = d.UnreadCount(ctx, "id-shuri")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	unread, err := d.ListForAgent(ctx, "id-shuri", true, 0)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestDispatcher_MarkReadPromotesDelivery(t *testing.T) {
	d, _ := setupDispatcher(t)
	ctx := context.Background()

	n, err := d.Notify(ctx, "id-wanda", store.NotificationTypeAssignment, "assigned", "", "task-1")
	require.NoError(t, err)

	// Read without a prior delivery confirmation.
	require.NoError(t, d.MarkRead(ctx, n.ID))

	notifs, err := d.ListForAgent(ctx, "id-wanda", false, 0)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.True(t, notifs[0].Read)
	assert.True(t, notifs[0].Delivered)
	assert.NotNil(t, notifs[0].DeliveredAt)
	assert.NotNil(t, notifs[0].ReadAt)
}
