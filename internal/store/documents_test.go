// ABOUTME: Tests for document persistence
// ABOUTME: Version bumps on every update are the main thing under test

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentStore_VersionBumpsOnUpdate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	doc := &Document{
		Title:    "Q3 report",
		Content:  "draft one",
		Type:     DocumentTypeDraft,
		TaskID:   "task-1",
		AuthorID: "jarvis",
	}
	require.NoError(t, s.CreateDocument(ctx, doc))
	assert.Equal(t, 1, doc.Version)

	doc.Content = "draft two"
	require.NoError(t, s.UpdateDocument(ctx, doc))
	assert.Equal(t, 2, doc.Version)

	doc.Content = "final"
	doc.Type = DocumentTypeDeliverable
	require.NoError(t, s.UpdateDocument(ctx, doc))

	got, err := s.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Version)
	assert.Equal(t, "final", got.Content)
	assert.Equal(t, DocumentTypeDeliverable, got.Type)
}

func TestDocumentStore_ListByTask(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateDocument(ctx, &Document{Title: "a", Type: DocumentTypeResearch, TaskID: "t1"}))
	require.NoError(t, s.CreateDocument(ctx, &Document{Title: "b", Type: DocumentTypeResearch, TaskID: "t2"}))

	docs, err := s.ListDocuments(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a", docs[0].Title)

	all, err := s.ListDocuments(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDocumentStore_NotFound(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.GetDocument(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeleteDocument(ctx, "ghost"), ErrNotFound)
}
