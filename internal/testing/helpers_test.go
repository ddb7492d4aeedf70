// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSetupTestBackend verifies the test backend is created correctly.
func TestSetupTestBackend(t *testing.T) {
	backend := SetupTestBackend(t)

	require.NotNil(t, backend)

	// Schema should exist and start empty
	result := QueryDocuments(t, backend)
	require.NotNil(t, result)
	assert.Empty(t, result.Rows, "Should start with no documents")
}

// TestInsertTestDocument verifies document insertion.
func TestInsertTestDocument(t *testing.T) {
	backend := SetupTestBackend(t)

	InsertTestDocument(t, backend, "doc:a.md", "a.md", "A")

	result := QueryDocuments(t, backend)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "doc:a.md", result.Rows[0][0])
	assert.Equal(t, "a.md", result.Rows[0][1])
	assert.Equal(t, "A", result.Rows[0][2])
}

// TestInsertTestFetch verifies fetch recording against a registered document.
func TestInsertTestFetch(t *testing.T) {
	backend := SetupTestBackend(t)

	InsertTestDocument(t, backend, "doc:a.md", "a.md", "A")
	InsertTestFetch(t, backend, "doc:a.md", "run1", "# A\n\ncontent", "hash-a")

	result := QueryDocuments(t, backend)
	require.Len(t, result.Rows, 1)

	entities := QueryEntities(t, backend)
	assert.Empty(t, entities.Rows, "Fetching alone should create no entities")
}

// TestMultipleInserts verifies multiple documents can be inserted.
func TestMultipleInserts(t *testing.T) {
	backend := SetupTestBackend(t)

	InsertTestDocument(t, backend, "doc:a.md", "a.md", "A")
	InsertTestDocument(t, backend, "doc:b.md", "b.md", "B")
	InsertTestDocument(t, backend, "doc:c.md", "c.md", "C")

	result := QueryDocuments(t, backend)
	require.Len(t, result.Rows, 3)
	assert.Equal(t, "doc:a.md", result.Rows[0][0])
}

// TestQuerySectionsEmpty verifies the section helper works on a fresh project.
func TestQuerySectionsEmpty(t *testing.T) {
	backend := SetupTestBackend(t)

	InsertTestDocument(t, backend, "doc:a.md", "a.md", "A")

	result := QuerySections(t, backend, "doc:a.md")
	require.NotNil(t, result)
	assert.Empty(t, result.Rows)
}

// TestBackendIsolation verifies each test gets an isolated backend.
func TestBackendIsolation(t *testing.T) {
	backend1 := SetupTestBackend(t)
	InsertTestDocument(t, backend1, "doc:a.md", "a.md", "A")

	backend2 := SetupTestBackend(t)
	result := QueryDocuments(t, backend2)
	assert.Empty(t, result.Rows, "Second backend should be isolated from first")

	result1 := QueryDocuments(t, backend1)
	assert.Len(t, result1.Rows, 1)
}
