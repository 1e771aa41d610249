// ABOUTME: Document operations for task work products
// ABOUTME: Versioned create/update with activity records

package board

import (
	"context"
	"fmt"

	"github.com/2389/taskboard/internal/store"
)

// CreateDocument stores a new document at version 1.
func (s *Service) CreateDocument(ctx context.Context, doc *store.Document) error {
	if doc.Title == "" {
		return validationErr("title", "required")
	}
	if doc.Type == "" {
		doc.Type = store.DocumentTypeDraft
	}
	if !store.ValidDocumentType(doc.Type) {
		return validationErr("type", "unknown value "+doc.Type)
	}

	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return fmt.Errorf("creating document: %w", err)
	}

	s.recordActivity(ctx, &store.Activity{
		Type:       store.ActivityDocumentCreated,
		AgentID:    doc.AuthorID,
		TaskID:     doc.TaskID,
		DocumentID: doc.ID,
		Message:    fmt.Sprintf("Document created: %s", doc.Title),
	})
	return nil
}

// UpdateDocument saves a document revision, bumping its version.
func (s *Service) UpdateDocument(ctx context.Context, doc *store.Document, actorID string) error {
	if doc.Type != "" && !store.ValidDocumentType(doc.Type) {
		return validationErr("type", "unknown value "+doc.Type)
	}

	if err := s.store.UpdateDocument(ctx, doc); err != nil {
		return err
	}

	s.recordActivity(ctx, &store.Activity{
		Type:       store.ActivityDocumentUpdated,
		AgentID:    actorID,
		TaskID:     doc.TaskID,
		DocumentID: doc.ID,
		Message:    fmt.Sprintf("Document %s updated to v%d", doc.Title, doc.Version),
	})
	return nil
}

// GetDocument returns a document by id.
func (s *Service) GetDocument(ctx context.Context, id string) (*store.Document, error) {
	return s.store.GetDocument(ctx, id)
}

// ListDocuments returns documents, optionally narrowed to one task.
func (s *Service) ListDocuments(ctx context.Context, taskID string) ([]*store.Document, error) {
	return s.store.ListDocuments(ctx, taskID)
}

// DeleteDocument removes a document by id.
func (s *Service) DeleteDocument(ctx context.Context, id string) error {
	return s.store.DeleteDocument(ctx, id)
}
