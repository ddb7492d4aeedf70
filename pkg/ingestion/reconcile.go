// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package ingestion

import (
	"log/slog"
	"strings"
)

// typeGroups maps entity types that are close enough to be interchangeable
// for catalog matching. A mention typed "Tool" may legitimately resolve to
// a catalog entry typed "Technology".
var typeGroups = map[string]string{
	"Technology": "tech",
	"Tool":       "tech",
	"Product":    "tech",
}

// Reconcile validates one extraction call's entity resolutions against the
// catalog snapshot and splits them for persistence.
//
// The returned KGData keeps both halves of the split: catalog IDs for
// EXISTING matches and full payloads for NEW entities. Claims referencing
// indices outside the combined entities list are dropped and counted rather
// than persisted with dangling references.
//
// The input entities slice is the combined ordered list exactly as the
// model produced it; claim indices are validated against that ordering, not
// against the NEW subset.
func Reconcile(entities []ExtractedEntity, claims []ExtractedClaim, catalog []CatalogRef) (*KGData, []ExtractedClaim) {
	kg := &KGData{}

	for i := range entities {
		e := &entities[i]
		if e.Resolution != ResolutionExisting {
			e.Resolution = ResolutionNew
			e.MatchedEntityIndex = nil
			kg.NewEntities = append(kg.NewEntities, *e)
			continue
		}

		if e.MatchedEntityIndex != nil {
			idx := *e.MatchedEntityIndex
			if idx >= 0 && idx < len(catalog) {
				kg.ExistingEntities = append(kg.ExistingEntities, catalog[idx].ID)
				continue
			}
			slog.Warn("kurt.ingestion.reconcile.invalid_match_index",
				"entity", e.Name,
				"index", idx,
				"catalog_size", len(catalog))
		}

		// The model claimed an existing match but gave no usable index.
		// Try a name lookup before giving up on the resolution.
		if ref, ok := matchCatalog(e, catalog); ok {
			kg.ExistingEntities = append(kg.ExistingEntities, ref.ID)
			continue
		}

		slog.Warn("kurt.ingestion.reconcile.unresolved_existing",
			"entity", e.Name,
			"entity_type", e.EntityType)
		e.Resolution = ResolutionNew
		e.MatchedEntityIndex = nil
		kg.NewEntities = append(kg.NewEntities, *e)
	}

	valid := make([]ExtractedClaim, 0, len(claims))
	for _, c := range claims {
		if claimIndicesValid(c, len(entities)) {
			valid = append(valid, c)
			continue
		}
		kg.DroppedClaims++
		slog.Warn("kurt.ingestion.reconcile.claim_dropped",
			"statement", truncate(c.Statement, 80),
			"indices", c.EntityIndices,
			"entity_count", len(entities))
	}

	return kg, valid
}

// matchCatalog finds a catalog entry by case-insensitive name or canonical
// name, requiring the types to be equal or in the same group.
func matchCatalog(e *ExtractedEntity, catalog []CatalogRef) (CatalogRef, bool) {
	name := strings.ToLower(strings.TrimSpace(e.Name))
	if name == "" {
		return CatalogRef{}, false
	}
	for _, ref := range catalog {
		if !typesCompatible(e.EntityType, ref.EntityType) {
			continue
		}
		if strings.ToLower(ref.Name) == name || strings.ToLower(ref.CanonicalName) == name {
			return ref, true
		}
	}
	return CatalogRef{}, false
}

func typesCompatible(a, b string) bool {
	if strings.EqualFold(a, b) {
		return true
	}
	ga, aok := typeGroups[a]
	gb, bok := typeGroups[b]
	return aok && bok && ga == gb
}

func claimIndicesValid(c ExtractedClaim, entityCount int) bool {
	for _, idx := range c.EntityIndices {
		if idx < 0 || idx >= entityCount {
			return false
		}
	}
	return true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
