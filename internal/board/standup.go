// ABOUTME: Standup reporting, a read-only aggregation of tasks and activity
// ABOUTME: Produces a structured report with Markdown and HTML renderings

package board

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/2389/taskboard/internal/store"
)

// StandupReport is a point-in-time summary of the board. It holds no state
// of its own and always reflects what the store held at generation time.
type StandupReport struct {
	GeneratedAt    time.Time
	Cutoff         time.Time
	TasksByStatus  map[string]int
	Overdue        []*store.Task
	CompletedSince []*store.Task
	RecentActivity []*store.Activity
}

// Standup aggregates the current task set and activity feed into a report.
// Completed-since and recent-activity windows start at cutoff.
func (s *Service) Standup(ctx context.Context, cutoff time.Time) (*StandupReport, error) {
	now := time.Now().UTC()

	tasks, err := s.store.ListTasks(ctx, store.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	report := &StandupReport{
		GeneratedAt:   now,
		Cutoff:        cutoff,
		TasksByStatus: make(map[string]int),
	}
	for _, t := range tasks {
		report.TasksByStatus[t.Status]++
		if t.DueDate != nil && t.DueDate.Before(now) && t.Status != store.TaskStatusDone {
			report.Overdue = append(report.Overdue, t)
		}
		if t.Status == store.TaskStatusDone && t.CompletedAt != nil && t.CompletedAt.After(cutoff) {
			report.CompletedSince = append(report.CompletedSince, t)
		}
	}
	sort.Slice(report.Overdue, func(i, j int) bool {
		return report.Overdue[i].DueDate.Before(*report.Overdue[j].DueDate)
	})

	activity, err := s.store.ListActivities(ctx, store.ActivityFilter{Since: &cutoff, Limit: 20})
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	report.RecentActivity = activity
	return report, nil
}

// Markdown renders the report for chat or terminal display.
func (r *StandupReport) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Standup %s\n\n", r.GeneratedAt.Format("2006-01-02"))

	b.WriteString("## Board\n\n")
	for _, status := range []string{
		store.TaskStatusInbox, store.TaskStatusAssigned, store.TaskStatusInProgress,
		store.TaskStatusReview, store.TaskStatusBlocked, store.TaskStatusDone,
	} {
		if n := r.TasksByStatus[status]; n > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", status, n)
		}
	}

	if len(r.CompletedSince) > 0 {
		fmt.Fprintf(&b, "\n## Completed since %s\n\n", r.Cutoff.Format("2006-01-02 15:04"))
		for _, t := range r.CompletedSince {
			fmt.Fprintf(&b, "- %s\n", t.Title)
		}
	}

	if len(r.Overdue) > 0 {
		b.WriteString("\n## Overdue\n\n")
		for _, t := range r.Overdue {
			fmt.Fprintf(&b, "- %s (due %s)\n", t.Title, t.DueDate.Format("2006-01-02"))
		}
	}

	if len(r.RecentActivity) > 0 {
		b.WriteString("\n## Recent activity\n\n")
		for _, a := range r.RecentActivity {
			fmt.Fprintf(&b, "- %s\n", a.Message)
		}
	}
	return b.String()
}

// HTML renders the Markdown report to HTML for the dashboard collaborator.
func (r *StandupReport) HTML() (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(r.Markdown()), &buf); err != nil {
		return "", fmt.Errorf("rendering standup: %w", err)
	}
	return buf.String(), nil
}
