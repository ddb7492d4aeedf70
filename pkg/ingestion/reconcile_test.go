// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package ingestion

import (
	"testing"

	"github.com/google/uuid"
)

func intPtr(i int) *int { return &i }

func testCatalog() []CatalogRef {
	return []CatalogRef{
		{ID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), Name: "PostgreSQL", CanonicalName: "postgresql", EntityType: "Technology"},
		{ID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), Name: "Kubernetes", CanonicalName: "kubernetes", EntityType: "Technology"},
	}
}

func TestReconcileSplitsExistingAndNew(t *testing.T) {
	entities := []ExtractedEntity{
		{Name: "PostgreSQL", EntityType: "Technology", Resolution: ResolutionExisting, MatchedEntityIndex: intPtr(0)},
		{Name: "pgvector", EntityType: "Tool", Resolution: ResolutionNew},
		{Name: "Kubernetes", EntityType: "Technology", Resolution: ResolutionExisting, MatchedEntityIndex: intPtr(1)},
		{Name: "HNSW index", EntityType: "Concept", Resolution: ResolutionNew},
	}
	claims := []ExtractedClaim{
		{Statement: "pgvector adds vector search to PostgreSQL", EntityIndices: []int{0, 1}},
		{Statement: "references all four entities", EntityIndices: []int{0, 1, 2, 3}},
	}

	kg, valid := Reconcile(entities, claims, testCatalog())

	if len(kg.ExistingEntities) != 2 {
		t.Fatalf("existing entities = %d, want 2", len(kg.ExistingEntities))
	}
	if kg.ExistingEntities[0] != testCatalog()[0].ID || kg.ExistingEntities[1] != testCatalog()[1].ID {
		t.Errorf("existing entity IDs = %v", kg.ExistingEntities)
	}
	if len(kg.NewEntities) != 2 {
		t.Fatalf("new entities = %d, want 2", len(kg.NewEntities))
	}
	if kg.NewEntities[0].Name != "pgvector" || kg.NewEntities[1].Name != "HNSW index" {
		t.Errorf("new entities = %v", kg.NewEntities)
	}
	if len(valid) != 2 || kg.DroppedClaims != 0 {
		t.Errorf("valid claims = %d, dropped = %d", len(valid), kg.DroppedClaims)
	}
}

func TestReconcileDropsClaimsWithInvalidIndices(t *testing.T) {
	entities := []ExtractedEntity{
		{Name: "Redis", EntityType: "Technology", Resolution: ResolutionNew},
	}
	claims := []ExtractedClaim{
		{Statement: "valid", EntityIndices: []int{0}},
		{Statement: "out of range", EntityIndices: []int{0, 5}},
		{Statement: "negative", EntityIndices: []int{-1}},
	}

	kg, valid := Reconcile(entities, claims, nil)
	if len(valid) != 1 || valid[0].Statement != "valid" {
		t.Errorf("valid claims = %v", valid)
	}
	if kg.DroppedClaims != 2 {
		t.Errorf("dropped claims = %d, want 2", kg.DroppedClaims)
	}
}

func TestReconcileClaimIndicesAgainstCombinedList(t *testing.T) {
	// Claims index into the combined entities list, so a claim pointing at
	// an EXISTING entity's position stays valid even though that entity is
	// not part of the NEW subset.
	entities := []ExtractedEntity{
		{Name: "PostgreSQL", EntityType: "Technology", Resolution: ResolutionExisting, MatchedEntityIndex: intPtr(0)},
		{Name: "pgvector", EntityType: "Tool", Resolution: ResolutionNew},
	}
	claims := []ExtractedClaim{
		{Statement: "mentions only the existing entity", EntityIndices: []int{0}},
	}

	kg, valid := Reconcile(entities, claims, testCatalog())
	if len(valid) != 1 {
		t.Errorf("claim referencing existing entity position was dropped")
	}
	if kg.DroppedClaims != 0 {
		t.Errorf("dropped = %d, want 0", kg.DroppedClaims)
	}
}

func TestReconcileInvalidIndexFallsBackToNameMatch(t *testing.T) {
	entities := []ExtractedEntity{
		{Name: "postgresql", EntityType: "Tool", Resolution: ResolutionExisting, MatchedEntityIndex: intPtr(99)},
	}

	kg, _ := Reconcile(entities, nil, testCatalog())
	if len(kg.ExistingEntities) != 1 {
		t.Fatalf("name fallback failed, existing = %v", kg.ExistingEntities)
	}
	if kg.ExistingEntities[0] != testCatalog()[0].ID {
		t.Errorf("matched wrong catalog entry: %v", kg.ExistingEntities[0])
	}
}

func TestReconcileUnresolvableExistingDowngradesToNew(t *testing.T) {
	entities := []ExtractedEntity{
		{Name: "CockroachDB", EntityType: "Technology", Resolution: ResolutionExisting},
	}

	kg, _ := Reconcile(entities, nil, testCatalog())
	if len(kg.ExistingEntities) != 0 {
		t.Errorf("unresolvable entity must not produce a catalog ID")
	}
	if len(kg.NewEntities) != 1 {
		t.Fatalf("unresolvable entity must downgrade to NEW")
	}
	if kg.NewEntities[0].Resolution != ResolutionNew {
		t.Errorf("downgraded entity keeps EXISTING status")
	}
}

func TestTypesCompatible(t *testing.T) {
	if !typesCompatible("Tool", "Technology") {
		t.Error("Tool and Technology should be compatible")
	}
	if typesCompatible("Person", "Technology") {
		t.Error("Person and Technology should not be compatible")
	}
	if !typesCompatible("Concept", "concept") {
		t.Error("same type must be compatible regardless of case")
	}
}
