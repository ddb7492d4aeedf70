// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package ingestion

import "github.com/google/uuid"

// DocumentSection is one contiguous span of a source document produced by
// the splitter. Sections partition the document: every character belongs to
// exactly one section, and offsets are byte positions into the normalized
// markdown content.
type DocumentSection struct {
	SectionID     string `json:"section_id"`
	SectionNumber int    `json:"section_number"`
	Heading       string `json:"heading"`
	Content       string `json:"content"`
	StartOffset   int    `json:"start_offset"`
	EndOffset     int    `json:"end_offset"`

	// OverlapPrefix and OverlapSuffix carry neighboring text supplied to the
	// extractor as context only. They are never part of Content and never
	// affect offsets.
	OverlapPrefix string `json:"overlap_prefix,omitempty"`
	OverlapSuffix string `json:"overlap_suffix,omitempty"`
}

// SectionInput is the unit of work handed to extraction workers.
type SectionInput struct {
	DocumentID    string
	DocumentTitle string
	SectionID     string
	SectionNumber int
	Heading       string
	Content       string
	OverlapPrefix string
	OverlapSuffix string
}

// ResolutionStatus marks whether an extracted entity matched the existing
// catalog or is new in this run.
type ResolutionStatus string

const (
	ResolutionExisting ResolutionStatus = "EXISTING"
	ResolutionNew      ResolutionStatus = "NEW"
)

// ExtractedEntity is one entity mention produced by the model for a section.
type ExtractedEntity struct {
	Name        string           `json:"name"`
	EntityType  string           `json:"entity_type"`
	Description string           `json:"description"`
	Aliases     []string         `json:"aliases,omitempty"`
	Confidence  float64          `json:"confidence"`
	Resolution  ResolutionStatus `json:"resolution_status"`

	// MatchedEntityIndex is the position in the existing-entities list the
	// model was shown. Only meaningful when Resolution is EXISTING.
	MatchedEntityIndex *int `json:"matched_entity_index,omitempty"`

	Quote string `json:"quote,omitempty"`
}

// ExtractedRelationship links two entities named in the same section.
type ExtractedRelationship struct {
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	RelationType string `json:"relation_type"`
	Description string  `json:"description,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// ExtractedClaim is a factual statement grounded in the section text.
// EntityIndices reference positions in the combined entity list for the
// section (existing first, then new).
type ExtractedClaim struct {
	Statement     string  `json:"statement"`
	EntityIndices []int   `json:"entity_indices"`
	Quote         string  `json:"quote,omitempty"`
	Confidence    float64 `json:"confidence"`
}

// SectionMetadata holds free-form per-section metadata (topics, summary)
// returned by the model.
type SectionMetadata map[string]any

// CatalogRef is one row of the existing-entity catalog shown to the model
// for entity resolution.
type CatalogRef struct {
	ID            uuid.UUID
	Name          string
	CanonicalName string
	EntityType    string
	Description   string
}

// KGData is the reconciled knowledge-graph payload for one section:
// existing-entity references resolved to stable IDs, genuinely new
// entities, and a count of claims dropped for referencing invalid indices.
type KGData struct {
	ExistingEntities []uuid.UUID
	NewEntities      []ExtractedEntity
	DroppedClaims    int
}

// ExtractionResult is the complete outcome of extracting one section.
// A failed section carries Err and empty payloads; the run continues.
type ExtractionResult struct {
	DocumentID     string
	SectionID      string
	SectionNumber  int
	SectionHeading string

	Metadata      SectionMetadata
	Entities      []ExtractedEntity
	Relationships []ExtractedRelationship
	Claims        []ExtractedClaim
	KG            *KGData

	Err string
}

// Failed reports whether extraction failed for this section.
func (r *ExtractionResult) Failed() bool {
	return r.Err != ""
}
