// Package store provides persistent storage for the taskboard using SQLite.
//
// # Architecture
//
// A single Store interface covers all six entity types; SQLiteStore
// implements it. Entities reference each other through plain id strings
// (weak references) resolved at read time, so deleting an entity never
// corrupts the entities that point at it.
//
// # Data Models
//
//   - Agent: registered board participant with status, level, and heartbeat
//   - Task: unit of work with the inbox → done lifecycle and assignee set
//   - Message: task-thread note with an immutable mention snapshot
//   - Activity: append-only domain event record
//   - Document: versioned work product, optionally linked to a task
//   - Notification: per-agent signal with delivered/read flags
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Timestamps are stored as RFC 3339 text; string sets (assignees, tags,
// mentions) are JSON-encoded text columns.
//
// # Consistency
//
// Each entity type is individually durable; there is no cross-type
// transaction. The one multi-row operation, CreateNotifications, wraps a
// single table in a transaction so notification fan-out for a message is
// all-or-nothing.
//
// # Error Handling
//
//   - ErrNotFound: requested entity does not exist
//   - ErrNameTaken: agent name already registered (case-insensitive)
//
// All methods accept context.Context for cancellation support.
//
// # Testing
//
// Use NewSQLiteStore(":memory:") for tests; each call gets a fresh database.
package store
