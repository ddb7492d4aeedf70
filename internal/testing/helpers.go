// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package testing

import (
	"context"
	"testing"

	"github.com/kurtlabs/kurt/pkg/storage"
)

// SetupTestBackend creates a throwaway project backend in a temp directory.
// The backend is closed automatically when the test finishes.
//
// Example:
//
//	func TestMyFeature(t *testing.T) {
//	    backend := testing.SetupTestBackend(t)
//	    testing.InsertTestDocument(t, backend, "doc:a.md", "a.md", "A")
//	    // ...
//	}
func SetupTestBackend(t *testing.T) *storage.Backend {
	t.Helper()

	backend, err := storage.Open(storage.Config{
		DataDir:   t.TempDir(),
		ProjectID: "test",
	})
	if err != nil {
		t.Fatalf("failed to create test backend: %v", err)
	}

	t.Cleanup(func() {
		_ = backend.Close()
	})

	return backend
}

// InsertTestDocument registers a document for seeding test data.
func InsertTestDocument(t *testing.T, backend *storage.Backend, documentID, source, title string) {
	t.Helper()

	err := backend.UpsertDocument(context.Background(), storage.DocumentRecord{
		DocumentID: documentID,
		Source:     source,
		Title:      title,
	})
	if err != nil {
		t.Fatalf("failed to insert test document: %v", err)
	}
}

// InsertTestFetch records a successful fetch with the given content.
func InsertTestFetch(t *testing.T, backend *storage.Backend, documentID, runID, content, contentHash string) {
	t.Helper()

	if err := backend.RecordFetchSuccess(context.Background(), documentID, runID, content, contentHash); err != nil {
		t.Fatalf("failed to insert test fetch: %v", err)
	}
}

// QueryDocuments returns all rows from the document table.
// Rows have [document_id, source, title] columns.
func QueryDocuments(t *testing.T, backend *storage.Backend) *storage.QueryResult {
	t.Helper()

	result, err := backend.Query(context.Background(),
		"SELECT document_id, source, title FROM kurt_document ORDER BY document_id")
	if err != nil {
		t.Fatalf("failed to query documents: %v", err)
	}
	return result
}

// QueryEntities returns all rows from the entity table.
// Rows have [entity_id, name, canonical_name, entity_type] columns.
func QueryEntities(t *testing.T, backend *storage.Backend) *storage.QueryResult {
	t.Helper()

	result, err := backend.Query(context.Background(),
		"SELECT entity_id, name, canonical_name, entity_type FROM kurt_entity ORDER BY canonical_name")
	if err != nil {
		t.Fatalf("failed to query entities: %v", err)
	}
	return result
}

// QuerySections returns all rows from the section table for a document.
// Rows have [section_id, section_number, heading] columns.
func QuerySections(t *testing.T, backend *storage.Backend, documentID string) *storage.QueryResult {
	t.Helper()

	result, err := backend.Query(context.Background(),
		"SELECT section_id, section_number, heading FROM kurt_section WHERE document_id = ? ORDER BY section_number",
		documentID)
	if err != nil {
		t.Fatalf("failed to query sections: %v", err)
	}
	return result
}
