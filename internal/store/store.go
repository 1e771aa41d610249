// ABOUTME: Store interface and data types for taskboard persistence
// ABOUTME: Defines Agent, Task, Message, Activity, Document, Notification and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrNameTaken is returned when registering an agent whose name is already
// in use (names are matched case-insensitively for @mentions).
var ErrNameTaken = errors.New("agent name already taken")

// Agent status constants.
const (
	AgentStatusIdle    = "idle"
	AgentStatusActive  = "active"
	AgentStatusBlocked = "blocked"
	AgentStatusOffline = "offline"
)

// Agent level constants.
const (
	AgentLevelIntern     = "intern"
	AgentLevelSpecialist = "specialist"
	AgentLevelLead       = "lead"
)

// Task status constants. The lifecycle is ordered but not strictly linear;
// the board service enforces transition side effects.
const (
	TaskStatusInbox      = "inbox"
	TaskStatusAssigned   = "assigned"
	TaskStatusInProgress = "in_progress"
	TaskStatusReview     = "review"
	TaskStatusDone       = "done"
	TaskStatusBlocked    = "blocked"
)

// Task priority constants.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Document type constants.
const (
	DocumentTypeDeliverable = "deliverable"
	DocumentTypeResearch    = "research"
	DocumentTypeProtocol    = "protocol"
	DocumentTypeTemplate    = "template"
	DocumentTypeDraft       = "draft"
)

// Notification type constants.
const (
	NotificationTypeMention    = "mention"
	NotificationTypeAssignment = "assignment"
)

// Activity type constants. The type column is an open string enum; these
// cover the events the engine itself emits.
const (
	ActivityTaskCreated     = "task_created"
	ActivityTaskUpdated     = "task_updated"
	ActivityTaskDeleted     = "task_deleted"
	ActivityTaskAssigned    = "task_assigned"
	ActivityStatusChanged   = "task_status_changed"
	ActivityMessageSent     = "message_sent"
	ActivityAgentCreated    = "agent_created"
	ActivityAgentDeleted    = "agent_deleted"
	ActivityDocumentCreated = "document_created"
	ActivityDocumentUpdated = "document_updated"
)

// ValidTaskStatus reports whether s is a known task status.
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusInbox, TaskStatusAssigned, TaskStatusInProgress,
		TaskStatusReview, TaskStatusDone, TaskStatusBlocked:
		return true
	}
	return false
}

// ValidPriority reports whether p is a known task priority.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ValidAgentStatus reports whether s is a known agent status.
func ValidAgentStatus(s string) bool {
	switch s {
	case AgentStatusIdle, AgentStatusActive, AgentStatusBlocked, AgentStatusOffline:
		return true
	}
	return false
}

// ValidAgentLevel reports whether l is a known agent level.
func ValidAgentLevel(l string) bool {
	switch l {
	case AgentLevelIntern, AgentLevelSpecialist, AgentLevelLead:
		return true
	}
	return false
}

// ValidDocumentType reports whether t is a known document type.
func ValidDocumentType(t string) bool {
	switch t {
	case DocumentTypeDeliverable, DocumentTypeResearch, DocumentTypeProtocol,
		DocumentTypeTemplate, DocumentTypeDraft:
		return true
	}
	return false
}

// Agent is a registered board participant. Agents are referenced by tasks,
// messages, and notifications through plain id strings, never embedded.
type Agent struct {
	ID            string
	Name          string // unique, case-insensitive for mention matching
	Role          string
	Description   string
	Specialties   []string
	Status        string // idle, active, blocked, offline
	Level         string // intern, specialist, lead
	CurrentTaskID string // weak reference, empty when unset
	LastHeartbeat *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Task is a unit of work on the shared board.
type Task struct {
	ID           string
	Title        string
	Description  string
	Status       string // inbox, assigned, in_progress, review, done, blocked
	Priority     string // low, medium, high, urgent
	AssigneeIDs  []string
	CreatorID    string
	ParentTaskID string   // weak reference, empty when top-level
	BlockedBy    []string // weak references; dangling entries mean "already resolved"
	Tags         []string
	DueDate      *time.Time
	StartedAt    *time.Time // stamped once the task first leaves inbox
	CompletedAt  *time.Time // set iff status == done
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Message is a note posted on a task's thread. Mentions are resolved once at
// creation time and stored as an immutable snapshot.
type Message struct {
	ID            string
	TaskID        string
	FromAgentID   string
	Content       string
	AttachmentIDs []string
	Mentions      []string
	CreatedAt     time.Time
}

// Activity is an append-only record of a domain event. Activities are never
// mutated or deleted; corrections are new entries.
type Activity struct {
	ID         string
	Type       string
	AgentID    string // actor
	Message    string // human-readable summary
	TaskID     string // optional
	DocumentID string // optional
	CreatedAt  time.Time
}

// Document is a work product linked to a task. Version increments on every
// content update.
type Document struct {
	ID        string
	Title     string
	Content   string
	Type      string // deliverable, research, protocol, template, draft
	TaskID    string // optional owning reference
	AuthorID  string
	Tags      []string
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Notification is a pending signal for an agent. Invariant: Read implies
// Delivered; DeliveredAt and ReadAt are each set exactly once, when the
// corresponding flag first flips true.
type Notification struct {
	ID              string
	AgentID         string // recipient
	Type            string // mention, assignment
	Content         string
	SourceMessageID string // weak reference, optional
	SourceTaskID    string // weak reference, optional
	Delivered       bool
	Read            bool
	CreatedAt       time.Time
	DeliveredAt     *time.Time
	ReadAt          *time.Time
}

// TaskFilter narrows ListTasks. Zero values mean "any".
type TaskFilter struct {
	Status     string
	Priority   string
	AssigneeID string
	ParentID   string
	Tag        string
}

// ActivityFilter narrows ListActivities. Zero values mean "any".
type ActivityFilter struct {
	TaskID  string
	AgentID string
	Type    string
	Since   *time.Time
	Limit   int
}

// Store defines persistence for all board entity types. Each entity type is
// individually durable; there is no cross-type transaction.
type Store interface {
	// Agents
	CreateAgent(ctx context.Context, agent *Agent) error
	GetAgent(ctx context.Context, id string) (*Agent, error)
	GetAgentByName(ctx context.Context, name string) (*Agent, error)
	ListAgents(ctx context.Context) ([]*Agent, error)
	UpdateAgent(ctx context.Context, agent *Agent) error
	DeleteAgent(ctx context.Context, id string) error

	// Tasks
	CreateTask(ctx context.Context, task *Task) error
	GetTask(ctx context.Context, id string) (*Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]*Task, error)
	UpdateTask(ctx context.Context, task *Task) error
	DeleteTask(ctx context.Context, id string) error
	CountOpenTasksForAgent(ctx context.Context, agentID string) (int, error)

	// Messages
	CreateMessage(ctx context.Context, msg *Message) error
	GetMessage(ctx context.Context, id string) (*Message, error)
	ListTaskMessages(ctx context.Context, taskID string, limit int) ([]*Message, error)
	DeleteTaskMessages(ctx context.Context, taskID string) error

	// Activities (append-only)
	CreateActivity(ctx context.Context, activity *Activity) error
	ListActivities(ctx context.Context, filter ActivityFilter) ([]*Activity, error)
	CountActivities(ctx context.Context, filter ActivityFilter) (int, error)

	// Documents
	CreateDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	ListDocuments(ctx context.Context, taskID string) ([]*Document, error)
	UpdateDocument(ctx context.Context, doc *Document) error
	DeleteDocument(ctx context.Context, id string) error

	// Notifications
	CreateNotification(ctx context.Context, n *Notification) error
	CreateNotifications(ctx context.Context, batch []*Notification) error
	GetNotification(ctx context.Context, id string) (*Notification, error)
	ListNotifications(ctx context.Context, agentID string, unreadOnly bool, limit int) ([]*Notification, error)
	MarkNotificationDelivered(ctx context.Context, id string) error
	MarkNotificationRead(ctx context.Context, id string) error
	CountUnreadNotifications(ctx context.Context, agentID string) (int, error)

	// Close releases any resources held by the store
	Close() error
}
