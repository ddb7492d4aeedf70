// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"strings"
	"testing"
)

func TestExtractParsesFencedJSON(t *testing.T) {
	provider := &MockProvider{
		GenerateFunc: func(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
			return &GenerateResponse{
				Text: "```json\n{\"metadata\": {\"content_type\": \"guide\"}, \"entities\": [], \"relationships\": [], \"claims\": []}\n```",
				Done: true,
			}, nil
		},
	}

	ex := NewKnowledgeExtractor(provider, CallOptions{Model: "mock-model"})
	raw, err := ex.Extract(context.Background(), ExtractInput{Title: "Doc - Intro", Content: "some text"})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !strings.Contains(string(raw.Metadata), "guide") {
		t.Errorf("metadata not parsed: %s", raw.Metadata)
	}
}

func TestExtractRejectsNonJSON(t *testing.T) {
	provider := &MockProvider{
		GenerateFunc: func(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
			return &GenerateResponse{Text: "I could not process this section.", Done: true}, nil
		},
	}

	ex := NewKnowledgeExtractor(provider, CallOptions{})
	if _, err := ex.Extract(context.Background(), ExtractInput{Content: "text"}); err == nil {
		t.Error("expected error for non-JSON output")
	}
}

func TestExtractPromptListsExistingEntities(t *testing.T) {
	var captured string
	provider := &MockProvider{
		GenerateFunc: func(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
			captured = req.Prompt
			return &GenerateResponse{Text: "{}", Done: true}, nil
		},
	}

	ex := NewKnowledgeExtractor(provider, CallOptions{})
	_, err := ex.Extract(context.Background(), ExtractInput{
		Title:   "Doc",
		Content: "text",
		ExistingEntities: []ExistingEntity{
			{Name: "PostgreSQL", EntityType: "Technology"},
			{Name: "pgbouncer", EntityType: "Tool", Description: "connection pooler"},
		},
	})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !strings.Contains(captured, "0. PostgreSQL (Technology)") {
		t.Errorf("prompt missing zero-indexed catalog entry:\n%s", captured)
	}
	if !strings.Contains(captured, "1. pgbouncer (Tool) - connection pooler") {
		t.Errorf("prompt missing catalog description:\n%s", captured)
	}
}

func TestExtractJSONStripping(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"Here is the result:\n{\"a\": 1}\nDone.", `{"a": 1}`},
	}
	for _, c := range cases {
		if got := extractJSON(c.in); got != c.want {
			t.Errorf("extractJSON(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNewProviderTypes(t *testing.T) {
	for _, typ := range []string{"ollama", "openai", "anthropic", "mock"} {
		p, err := NewProvider(ProviderConfig{Type: typ, DefaultModel: "m"})
		if err != nil {
			t.Errorf("NewProvider(%q) failed: %v", typ, err)
			continue
		}
		if p.Name() == "" {
			t.Errorf("provider %q has empty name", typ)
		}
	}
	if _, err := NewProvider(ProviderConfig{Type: "bogus"}); err == nil {
		t.Error("expected error for unknown provider type")
	}
}
