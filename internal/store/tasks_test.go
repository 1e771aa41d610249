// ABOUTME: Tests for task persistence
// ABOUTME: Covers CRUD, filtered listing, and open-task counting per assignee

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStore_CreateDefaults(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	task := &Task{Title: "Write report"}
	require.NoError(t, s.CreateTask(ctx, task))

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, TaskStatusInbox, got.Status)
	assert.Equal(t, PriorityMedium, got.Priority)
	assert.Nil(t, got.StartedAt)
	assert.Nil(t, got.CompletedAt)
}

func TestTaskStore_RoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	due := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	task := &Task{
		Title:        "Ship deliverable",
		Description:  "final PDF",
		Status:       TaskStatusInProgress,
		Priority:     PriorityUrgent,
		AssigneeIDs:  []string{"agent-1", "agent-2"},
		CreatorID:    "agent-0",
		ParentTaskID: "parent-1",
		BlockedBy:    []string{"task-9"},
		Tags:         []string{"q3", "report"},
		DueDate:      &due,
	}
	require.NoError(t, s.CreateTask(ctx, task))

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"agent-1", "agent-2"}, got.AssigneeIDs)
	assert.Equal(t, "parent-1", got.ParentTaskID)
	assert.Equal(t, []string{"task-9"}, got.BlockedBy)
	require.NotNil(t, got.DueDate)
	assert.True(t, got.DueDate.Equal(due))
}

func TestTaskStore_ListFilters(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTask(ctx, &Task{Title: "a", Status: TaskStatusDone, AssigneeIDs: []string{"shuri"}}))
	require.NoError(t, s.CreateTask(ctx, &Task{Title: "b", Status: TaskStatusInProgress, AssigneeIDs: []string{"shuri"}, Tags: []string{"infra"}}))
	require.NoError(t, s.CreateTask(ctx, &Task{Title: "c", Status: TaskStatusInProgress, Priority: PriorityHigh}))

	byStatus, err := s.ListTasks(ctx, TaskFilter{Status: TaskStatusInProgress})
	require.NoError(t, err)
	assert.Len(t, byStatus, 2)

	byAssignee, err := s.ListTasks(ctx, TaskFilter{AssigneeID: "shuri"})
	require.NoError(t, err)
	assert.Len(t, byAssignee, 2)

	byTag, err := s.ListTasks(ctx, TaskFilter{Tag: "infra"})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, "b", byTag[0].Title)

	byPriority, err := s.ListTasks(ctx, TaskFilter{Priority: PriorityHigh})
	require.NoError(t, err)
	require.Len(t, byPriority, 1)
	assert.Equal(t, "c", byPriority[0].Title)
}

func TestTaskStore_ListByParent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	parent := &Task{Title: "epic"}
	require.NoError(t, s.CreateTask(ctx, parent))
	require.NoError(t, s.CreateTask(ctx, &Task{Title: "sub", ParentTaskID: parent.ID}))

	subs, err := s.ListTasks(ctx, TaskFilter{ParentID: parent.ID})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "sub", subs[0].Title)
}

func TestTaskStore_Update(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	task := &Task{Title: "draft"}
	require.NoError(t, s.CreateTask(ctx, task))

	started := time.Now().UTC().Truncate(time.Second)
	task.Status = TaskStatusInProgress
	task.StartedAt = &started
	task.AssigneeIDs = []string{"shuri"}
	require.NoError(t, s.UpdateTask(ctx, task))

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, TaskStatusInProgress, got.Status)
	require.NotNil(t, got.StartedAt)
	assert.True(t, got.StartedAt.Equal(started))
}

func TestTaskStore_UpdateMissing(t *testing.T) {
	s := setupTestStore(t)
	err := s.UpdateTask(context.Background(), &Task{ID: "ghost", Title: "x", Status: TaskStatusInbox, Priority: PriorityLow})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskStore_CountOpenTasksForAgent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTask(ctx, &Task{Title: "open1", Status: TaskStatusAssigned, AssigneeIDs: []string{"shuri"}}))
	require.NoError(t, s.CreateTask(ctx, &Task{Title: "open2", Status: TaskStatusBlocked, AssigneeIDs: []string{"shuri", "jarvis"}}))
	require.NoError(t, s.CreateTask(ctx, &Task{Title: "closed", Status: TaskStatusDone, AssigneeIDs: []string{"shuri"}}))

	count, err := s.CountOpenTasksForAgent(ctx, "shuri")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = s.CountOpenTasksForAgent(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestTaskStore_DeleteCascadesMessages(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	task := &Task{Title: "t"}
	require.NoError(t, s.CreateTask(ctx, task))
	require.NoError(t, s.CreateMessage(ctx, &Message{TaskID: task.ID, FromAgentID: "a", Content: "hi"}))

	require.NoError(t, s.DeleteTask(ctx, task.ID))
	require.NoError(t, s.DeleteTaskMessages(ctx, task.ID))

	msgs, err := s.ListTaskMessages(ctx, task.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
