// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package ingestion

import (
	"bytes"
	"encoding/json"
	"log/slog"

	"github.com/kurtlabs/kurt/pkg/llm"
)

// NormalizeExtraction converts a raw extraction payload into typed data.
// Models return the four fields inconsistently: proper arrays or objects,
// JSON-encoded strings wrapping those, or nothing at all. Any field that
// cannot be decoded falls back to its empty default with a warning; a
// malformed field never fails the section.
func NormalizeExtraction(raw *llm.RawExtraction) (SectionMetadata, []ExtractedEntity, []ExtractedRelationship, []ExtractedClaim) {
	metadata := SectionMetadata{}
	var entities []ExtractedEntity
	var relationships []ExtractedRelationship
	var claims []ExtractedClaim

	if raw == nil {
		return metadata, entities, relationships, claims
	}

	if !decodeField("metadata", raw.Metadata, &metadata) {
		metadata = SectionMetadata{}
	}
	if !decodeField("entities", raw.Entities, &entities) {
		entities = nil
	}
	if !decodeField("relationships", raw.Relationships, &relationships) {
		relationships = nil
	}
	if !decodeField("claims", raw.Claims, &claims) {
		claims = nil
	}

	if metadata == nil {
		metadata = SectionMetadata{}
	}
	return metadata, entities, relationships, claims
}

// decodeField unmarshals one extraction field into out, first unwrapping up
// to three layers of JSON-string encoding. Returns false when the field was
// malformed so the caller can reset out to its empty default.
func decodeField(name string, raw json.RawMessage, out any) bool {
	data := bytes.TrimSpace(raw)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return true
	}

	for i := 0; i < 3 && len(data) > 0 && data[0] == '"'; i++ {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			break
		}
		data = bytes.TrimSpace([]byte(s))
	}

	if err := json.Unmarshal(data, out); err != nil {
		slog.Warn("kurt.ingestion.extract.malformed_field",
			"field", name,
			"error", err)
		return false
	}
	return true
}
