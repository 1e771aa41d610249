// ABOUTME: Tests for message posting and mention fan-out
// ABOUTME: Includes the full assign/mention/heartbeat board walkthrough

package board

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/taskboard/internal/store"
)

func TestPostMessage_MentionsMatchNotifications(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	jarvis := registerAgent(t, svc, "Jarvis")
	shuri := registerAgent(t, svc, "Shuri")
	wanda := registerAgent(t, svc, "Wanda")

	task := &store.Task{Title: "mission brief"}
	require.NoError(t, svc.CreateTask(ctx, task))

	msg, err := svc.PostMessage(ctx, task.ID, jarvis.ID, "@Shuri and @Wanda take a look", nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{shuri.ID, wanda.ID}, msg.Mentions)

	// One mention notification per mentee, no more, no fewer.
	for _, agent := range []*store.Agent{shuri, wanda} {
		notifs, err := svc.Notifications().ListForAgent(ctx, agent.ID, false, 0)
		require.NoError(t, err)
		require.Len(t, notifs, 1)
		assert.Equal(t, store.NotificationTypeMention, notifs[0].Type)
		assert.Equal(t, msg.ID, notifs[0].SourceMessageID)
		assert.Equal(t, task.ID, notifs[0].SourceTaskID)
	}

	// The sender mentioned nobody named Jarvis.
	notifs, err := svc.Notifications().ListForAgent(ctx, jarvis.ID, false, 0)
	require.NoError(t, err)
	assert.Empty(t, notifs)
}

func TestPostMessage_NoMentions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	jarvis := registerAgent(t, svc, "Jarvis")
	task := &store.Task{Title: "quiet thread"}
	require.NoError(t, svc.CreateTask(ctx, task))

	msg, err := svc.PostMessage(ctx, task.ID, jarvis.ID, "status update, nothing urgent", nil)
	require.NoError(t, err)
	assert.Empty(t, msg.Mentions)

	msgs, err := svc.ListMessages(ctx, task.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, msg.ID, msgs[0].ID)
}

func TestPostMessage_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	jarvis := registerAgent(t, svc, "Jarvis")
	task := &store.Task{Title: "t"}
	require.NoError(t, svc.CreateTask(ctx, task))

	var vErr *ValidationError
	_, err := svc.PostMessage(ctx, task.ID, jarvis.ID, "", nil)
	assert.ErrorAs(t, err, &vErr)

	_, err = svc.PostMessage(ctx, "ghost-task", jarvis.ID, "hello", nil)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.PostMessage(ctx, task.ID, "ghost-agent", "hello", nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// The end-to-end walkthrough: assignment notifies once, an @mention plus
// overlapping @all collapses to a single additional notification, and the
// in_progress transition stamps started_at with one activity appended.
func TestBoardWalkthrough(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	jarvis := registerAgent(t, svc, "Jarvis")
	shuri := registerAgent(t, svc, "Shuri")

	task := &store.Task{Title: "T", CreatorID: jarvis.ID}
	require.NoError(t, svc.CreateTask(ctx, task))
	require.Equal(t, store.TaskStatusInbox, task.Status)

	updated, err := svc.Assign(ctx, task.ID, []string{shuri.ID}, jarvis.ID)
	require.NoError(t, err)
	assert.Equal(t, store.TaskStatusAssigned, updated.Status)

	notifs, err := svc.Notifications().ListForAgent(ctx, shuri.ID, false, 0)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, store.NotificationTypeAssignment, notifs[0].Type)

	// @all adds nothing new: Shuri is the whole assignee set.
	msg, err := svc.PostMessage(ctx, task.ID, jarvis.ID, "@Shuri start now, @all fyi", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{shuri.ID}, msg.Mentions)

	notifs, err = svc.Notifications().ListForAgent(ctx, shuri.ID, false, 0)
	require.NoError(t, err)
	require.Len(t, notifs, 2)

	before, err := svc.ListActivities(ctx, store.ActivityFilter{TaskID: task.ID})
	require.NoError(t, err)

	updated, err = svc.UpdateStatus(ctx, task.ID, store.TaskStatusInProgress, shuri.ID)
	require.NoError(t, err)
	assert.NotNil(t, updated.StartedAt)

	after, err := svc.ListActivities(ctx, store.ActivityFilter{TaskID: task.ID})
	require.NoError(t, err)
	assert.Len(t, after, len(before)+1)
	assert.Equal(t, store.ActivityStatusChanged, after[0].Type)
}
