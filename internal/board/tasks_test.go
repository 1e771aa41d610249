// ABOUTME: Tests for the task state machine and assignment side effects
// ABOUTME: Lifecycle timestamps, cycle rejection, partial updates, notification fan-out

package board

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/taskboard/internal/store"
)

func TestCreateTask_Defaults(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	task := &store.Task{Title: "triage inbox"}
	require.NoError(t, svc.CreateTask(ctx, task))
	assert.Equal(t, store.TaskStatusInbox, task.Status)
	assert.Equal(t, store.PriorityMedium, task.Priority)
	assert.Nil(t, task.StartedAt)
	assert.Nil(t, task.CompletedAt)

	require.Error(t, svc.CreateTask(ctx, &store.Task{}))
	var vErr *ValidationError
	assert.ErrorAs(t, svc.CreateTask(ctx, &store.Task{Title: "x", Status: "limbo"}), &vErr)
}

func TestCreateTask_WithAssignees(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	shuri := registerAgent(t, svc, "Shuri")
	task := &store.Task{Title: "vibranium analysis", AssigneeIDs: []string{shuri.ID}}
	require.NoError(t, svc.CreateTask(ctx, task))

	assert.Equal(t, store.TaskStatusAssigned, task.Status)

	notifs, err := svc.Notifications().ListForAgent(ctx, shuri.ID, false, 0)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, store.NotificationTypeAssignment, notifs[0].Type)
}

func TestAssign(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	jarvis := registerAgent(t, svc, "Jarvis")
	shuri := registerAgent(t, svc, "Shuri")

	task := &store.Task{Title: "write report", CreatorID: jarvis.ID}
	require.NoError(t, svc.CreateTask(ctx, task))
	require.Equal(t, store.TaskStatusInbox, task.Status)

	updated, err := svc.Assign(ctx, task.ID, []string{shuri.ID}, jarvis.ID)
	require.NoError(t, err)
	assert.Equal(t, store.TaskStatusAssigned, updated.Status)
	assert.Equal(t, []string{shuri.ID}, updated.AssigneeIDs)

	// The assignee gets exactly one assignment notification.
	notifs, err := svc.Notifications().ListForAgent(ctx, shuri.ID, false, 0)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, store.NotificationTypeAssignment, notifs[0].Type)
	assert.Equal(t, task.ID, notifs[0].SourceTaskID)

	// Re-assigning the same agent does not re-notify.
	_, err = svc.Assign(ctx, task.ID, []string{shuri.ID}, jarvis.ID)
	require.NoError(t, err)
	notifs, err = svc.Notifications().ListForAgent(ctx, shuri.ID, false, 0)
	require.NoError(t, err)
	assert.Len(t, notifs, 1)

	// Assignment points the agent at the task.
	got, err := svc.GetAgent(ctx, shuri.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.CurrentTaskID)

	// Unknown assignees are rejected.
	_, err = svc.Assign(ctx, task.ID, []string{"ghost"}, jarvis.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateStatus_LifecycleTimestamps(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	jarvis := registerAgent(t, svc, "Jarvis")
	task := &store.Task{Title: "ship it"}
	require.NoError(t, svc.CreateTask(ctx, task))

	updated, err := svc.UpdateStatus(ctx, task.ID, store.TaskStatusInProgress, jarvis.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.StartedAt)
	started := *updated.StartedAt
	assert.Nil(t, updated.CompletedAt)

	// The stamp returned by the write is exactly what later reads return:
	// stamps carry the store's second precision, nothing finer.
	assert.Equal(t, started, started.Truncate(time.Second))
	got, err := svc.GetTask(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.StartedAt)
	assert.Equal(t, started, *got.StartedAt)

	// started_at is stamped once and survives later transitions.
	updated, err = svc.UpdateStatus(ctx, task.ID, store.TaskStatusDone, jarvis.ID)
	require.NoError(t, err)
	assert.Equal(t, started, *updated.StartedAt)
	require.NotNil(t, updated.CompletedAt)

	// Reopening clears completed_at.
	updated, err = svc.UpdateStatus(ctx, task.ID, store.TaskStatusReview, jarvis.ID)
	require.NoError(t, err)
	assert.Nil(t, updated.CompletedAt)
	assert.Equal(t, started, *updated.StartedAt)
}

func TestCompletedAtIffDone_RandomWalk(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	jarvis := registerAgent(t, svc, "Jarvis")
	task := &store.Task{Title: "random walk"}
	require.NoError(t, svc.CreateTask(ctx, task))

	statuses := []string{
		store.TaskStatusAssigned, store.TaskStatusInProgress, store.TaskStatusReview,
		store.TaskStatusDone, store.TaskStatusBlocked, store.TaskStatusInbox,
	}
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 40; i++ {
		next := statuses[rng.Intn(len(statuses))]
		updated, err := svc.UpdateStatus(ctx, task.ID, next, jarvis.ID)
		require.NoError(t, err)
		if updated.Status == store.TaskStatusDone {
			assert.NotNil(t, updated.CompletedAt)
		} else {
			assert.Nil(t, updated.CompletedAt)
		}
	}
}

func TestUpdateTask_PartialFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	jarvis := registerAgent(t, svc, "Jarvis")
	task := &store.Task{Title: "original", Description: "keep me", Tags: []string{"infra"}}
	require.NoError(t, svc.CreateTask(ctx, task))

	title := "renamed"
	priority := store.PriorityUrgent
	updated, err := svc.UpdateTask(ctx, task.ID, jarvis.ID, TaskUpdate{Title: &title, Priority: &priority})
	require.NoError(t, err)

	// Untouched fields survive.
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, store.PriorityUrgent, updated.Priority)
	assert.Equal(t, "keep me", updated.Description)
	assert.Equal(t, []string{"infra"}, updated.Tags)
	assert.Equal(t, store.TaskStatusInbox, updated.Status)
}

func TestUpdateTask_ParentCycleRejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	jarvis := registerAgent(t, svc, "Jarvis")
	a := &store.Task{Title: "a"}
	require.NoError(t, svc.CreateTask(ctx, a))
	b := &store.Task{Title: "b", ParentTaskID: a.ID}
	require.NoError(t, svc.CreateTask(ctx, b))

	// a -> b -> a would be a cycle.
	_, err := svc.UpdateTask(ctx, a.ID, jarvis.ID, TaskUpdate{ParentTaskID: &b.ID})
	require.ErrorIs(t, err, ErrParentCycle)

	// Both parent links are unchanged.
	gotA, err := svc.GetTask(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, gotA.ParentTaskID)
	gotB, err := svc.GetTask(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, gotB.ParentTaskID)

	// Self-parenting is the degenerate cycle.
	_, err = svc.UpdateTask(ctx, a.ID, jarvis.ID, TaskUpdate{ParentTaskID: &a.ID})
	assert.ErrorIs(t, err, ErrParentCycle)
}

func TestUpdateTask_EachMutationAppendsOneActivity(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	jarvis := registerAgent(t, svc, "Jarvis")
	task := &store.Task{Title: "audit trail", CreatorID: jarvis.ID}
	require.NoError(t, svc.CreateTask(ctx, task))

	_, err := svc.UpdateStatus(ctx, task.ID, store.TaskStatusInProgress, jarvis.ID)
	require.NoError(t, err)
	desc := "with details"
	_, err = svc.UpdateTask(ctx, task.ID, jarvis.ID, TaskUpdate{Description: &desc})
	require.NoError(t, err)

	activities, err := svc.ListActivities(ctx, store.ActivityFilter{TaskID: task.ID})
	require.NoError(t, err)
	require.Len(t, activities, 3)
	assert.Equal(t, store.ActivityTaskUpdated, activities[0].Type)
	assert.Equal(t, store.ActivityStatusChanged, activities[1].Type)
	assert.Equal(t, store.ActivityTaskCreated, activities[2].Type)
}

func TestDeleteTask_CleansThread(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	jarvis := registerAgent(t, svc, "Jarvis")
	task := &store.Task{Title: "short-lived"}
	require.NoError(t, svc.CreateTask(ctx, task))
	_, err := svc.PostMessage(ctx, task.ID, jarvis.ID, "note to self", nil)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTask(ctx, task.ID, jarvis.ID))

	_, err = svc.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	msgs, err := s.ListTaskMessages(ctx, task.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestConcurrentStatusUpdates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	jarvis := registerAgent(t, svc, "Jarvis")
	task := &store.Task{Title: "contended"}
	require.NoError(t, svc.CreateTask(ctx, task))

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		status := store.TaskStatusInProgress
		if i%2 == 0 {
			status = store.TaskStatusReview
		}
		go func(status string) {
			_, err := svc.UpdateStatus(ctx, task.ID, status, jarvis.ID)
			done <- err
		}(status)
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, <-done)
	}

	// The winner is one of the requested statuses and the invariants hold.
	got, err := svc.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Contains(t, []string{store.TaskStatusInProgress, store.TaskStatusReview}, got.Status)
	assert.NotNil(t, got.StartedAt)
	assert.Nil(t, got.CompletedAt)
}
