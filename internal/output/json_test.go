// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestJSON(t *testing.T) {
	var buf bytes.Buffer

	data := map[string]any{
		"project_id": "test-project",
		"count":      42,
	}

	if err := JSONTo(&buf, data); err != nil {
		t.Fatalf("JSONTo failed: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "  \"project_id\"") {
		t.Errorf("expected 2-space indentation, got: %s", got)
	}
	if !strings.Contains(got, `"count": 42`) {
		t.Errorf("missing count field, got: %s", got)
	}
	if !strings.HasSuffix(got, "}\n") {
		t.Errorf("expected trailing newline, got: %q", got)
	}
}

func TestJSONCompact(t *testing.T) {
	var buf bytes.Buffer

	data := map[string]any{"project_id": "test-project", "count": 42}
	if err := JSONCompactTo(&buf, data); err != nil {
		t.Fatalf("JSONCompactTo failed: %v", err)
	}

	got := buf.String()
	if strings.Contains(got, "  ") {
		t.Errorf("compact JSON should not have indentation, got: %s", got)
	}
	if !strings.Contains(got, `"project_id":"test-project"`) {
		t.Errorf("missing project_id field, got: %s", got)
	}
}

func TestJSONError(t *testing.T) {
	var buf bytes.Buffer

	if encErr := JSONErrorTo(&buf, errors.New("something went wrong")); encErr != nil {
		t.Fatalf("JSONErrorTo failed: %v", encErr)
	}

	got := buf.String()
	if !strings.Contains(got, `"error": "something went wrong"`) {
		t.Errorf("missing error field, got: %s", got)
	}
}

func TestJSONStructTags(t *testing.T) {
	type row struct {
		DocumentID string `json:"document_id"`
		Count      int    `json:"count"`
		Note       string `json:"note,omitempty"`
		Skip       string `json:"-"`
	}

	var buf bytes.Buffer
	if err := JSONTo(&buf, row{DocumentID: "doc:a.md", Count: 3, Skip: "hidden"}); err != nil {
		t.Fatalf("JSONTo failed: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, `"document_id"`) {
		t.Errorf("expected document_id tag, got: %s", got)
	}
	if strings.Contains(got, `"note"`) {
		t.Errorf("expected note to be omitted, got: %s", got)
	}
	if strings.Contains(got, "hidden") {
		t.Errorf("expected Skip to be excluded, got: %s", got)
	}
}
