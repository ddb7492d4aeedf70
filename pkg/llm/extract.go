// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kurtlabs/kurt/internal/contract"
)

// CallOptions are the model settings for one extraction call. They are
// passed by value into every call so concurrent extractions each work from
// their own copy. No global mutable model configuration exists anywhere in
// this package.
type CallOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// ExistingEntity is one catalog entry shown to the model so it can resolve
// mentions against already-known entities instead of inventing duplicates.
type ExistingEntity struct {
	Name        string `json:"name"`
	EntityType  string `json:"entity_type"`
	Description string `json:"description,omitempty"`
}

// ExtractInput is the payload for one structured-extraction call.
type ExtractInput struct {
	Title            string
	Content          string
	ExistingEntities []ExistingEntity
}

// RawExtraction is the model's output before normalization. Fields are kept
// as raw JSON because models return them inconsistently: sometimes proper
// arrays or objects, sometimes JSON-encoded strings. The caller normalizes.
type RawExtraction struct {
	Metadata      json.RawMessage `json:"metadata"`
	Entities      json.RawMessage `json:"entities"`
	Relationships json.RawMessage `json:"relationships"`
	Claims        json.RawMessage `json:"claims"`
}

const extractionSystemPrompt = `You are a knowledge extraction engine. Given a document section, extract structured knowledge as a single JSON object with these keys:

"metadata": object classifying the section (e.g. {"content_type": "tutorial", "topics": [...], "summary": "..."}).

"entities": array of entity mentions. Each entry:
  {"name", "entity_type", "description", "aliases", "confidence",
   "resolution_status": "EXISTING" or "NEW",
   "matched_entity_index": index into the EXISTING ENTITIES list below (only when resolution_status is "EXISTING"),
   "quote": short supporting quote from the section}

"relationships": array of typed edges between entities named above:
  {"source", "target", "relation_type", "description", "confidence"}

"claims": array of atomic factual statements:
  {"statement", "entity_indices": indices into your "entities" array, "quote", "confidence"}

Rules:
- Mark an entity EXISTING only when it clearly matches a listed existing entity; set matched_entity_index accordingly.
- entity_indices in claims refer to positions in YOUR entities array, zero-based.
- Text in [PRECEDING CONTEXT] / [FOLLOWING CONTEXT] brackets is for orientation only; never extract from it.
- Respond with the JSON object only.`

// KnowledgeExtractor runs structured knowledge extraction against a
// Provider. It is safe for concurrent use: every call builds its request
// from a private copy of the options.
type KnowledgeExtractor struct {
	provider Provider
	opts     CallOptions
}

// NewKnowledgeExtractor creates an extractor bound to a provider with
// default call options.
func NewKnowledgeExtractor(provider Provider, opts CallOptions) *KnowledgeExtractor {
	if opts.Timeout == 0 {
		opts.Timeout = 120 * time.Second
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 4096
	}
	return &KnowledgeExtractor{provider: provider, opts: opts}
}

// Extract runs one structured-extraction call for a section.
func (e *KnowledgeExtractor) Extract(ctx context.Context, in ExtractInput) (*RawExtraction, error) {
	opts := e.opts

	prompt := buildExtractionPrompt(in)
	if v := contract.ValidatePrompt(prompt); !v.OK {
		return nil, fmt.Errorf("invalid extraction payload: %s", v.Message)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	resp, err := e.provider.Generate(ctx, GenerateRequest{
		System:      extractionSystemPrompt,
		Prompt:      prompt,
		Model:       opts.Model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction call: %w", err)
	}

	var raw RawExtraction
	if err := json.Unmarshal([]byte(extractJSON(resp.Text)), &raw); err != nil {
		return nil, fmt.Errorf("extraction output is not valid JSON: %w", err)
	}
	return &raw, nil
}

func buildExtractionPrompt(in ExtractInput) string {
	var b strings.Builder

	if len(in.ExistingEntities) > 0 {
		b.WriteString("EXISTING ENTITIES (for resolution, zero-indexed):\n")
		for i, e := range in.ExistingEntities {
			fmt.Fprintf(&b, "%d. %s (%s)", i, e.Name, e.EntityType)
			if e.Description != "" {
				fmt.Fprintf(&b, " - %s", e.Description)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "SECTION TITLE: %s\n\nSECTION CONTENT:\n%s\n", in.Title, in.Content)
	return b.String()
}

// extractJSON strips markdown code fences and surrounding prose, returning
// the outermost JSON object in the text.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx >= 0 {
			text = text[idx+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}
