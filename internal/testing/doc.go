// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

// Package testing provides shared helpers for tests that need a real
// project backend.
//
// SetupTestBackend opens a SQLite-backed project in a temp directory and
// registers cleanup with the test. The Insert* helpers seed documents and
// fetches, and the Query* helpers read tables back for assertions.
//
// Example:
//
//	func TestIndexing(t *testing.T) {
//	    backend := testing.SetupTestBackend(t)
//	    testing.InsertTestDocument(t, backend, "doc:guide.md", "guide.md", "Guide")
//	    testing.InsertTestFetch(t, backend, "doc:guide.md", "run1", "# Guide\n...", hash)
//	    // run the code under test, then:
//	    rows := testing.QuerySections(t, backend, "doc:guide.md")
//	}
package testing
