// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package dag

import (
	"reflect"
	"strings"
	"testing"
)

func testRegistry() *Registry {
	return NewRegistry(
		StageDef{Name: "fetching.document_fetch", TableName: "kurt_fetch"},
		StageDef{
			Name:      "indexing.document_sections",
			TableName: "kurt_section",
			References: map[string]string{
				"fetch": "fetching.document_fetch",
			},
		},
		StageDef{
			Name:      "indexing.section_extraction",
			TableName: "kurt_section_extraction",
			References: map[string]string{
				// References may use the table name instead of the stage name.
				"sections": "kurt_section",
			},
		},
		StageDef{
			Name:      "kg.entity_rollup",
			TableName: "kurt_entity",
			References: map[string]string{
				"extractions": "indexing.section_extraction",
			},
		},
		StageDef{
			Name:      "kg.claim_rollup",
			TableName: "kurt_claim",
			References: map[string]string{
				"extractions": "kurt_section_extraction",
			},
		},
	)
}

func TestRegistryLookupByNameAndTable(t *testing.T) {
	r := testRegistry()

	byName, ok := r.Get("indexing.document_sections")
	if !ok {
		t.Fatal("lookup by canonical name failed")
	}
	byTable, ok := r.Get("kurt_section")
	if !ok {
		t.Fatal("lookup by table name failed")
	}
	if byName.Name != byTable.Name {
		t.Errorf("name and table lookups resolve differently: %q vs %q", byName.Name, byTable.Name)
	}

	if _, ok := r.Get("nonexistent.stage"); ok {
		t.Error("unknown key should miss, not resolve")
	}
}

func TestBuildDependencyGraphFullSet(t *testing.T) {
	r := testRegistry()
	names := []string{
		"fetching.document_fetch",
		"indexing.document_sections",
		"indexing.section_extraction",
		"kg.entity_rollup",
		"kg.claim_rollup",
	}

	graph := r.BuildDependencyGraph(names)
	want := map[string][]string{
		"fetching.document_fetch":     {},
		"indexing.document_sections":  {"fetching.document_fetch"},
		"indexing.section_extraction": {"indexing.document_sections"},
		"kg.entity_rollup":            {"indexing.section_extraction"},
		"kg.claim_rollup":             {"indexing.section_extraction"},
	}
	if !reflect.DeepEqual(graph, want) {
		t.Errorf("graph = %v, want %v", graph, want)
	}
}

func TestBuildDependencyGraphDropsOutOfSubsetDeps(t *testing.T) {
	r := testRegistry()

	// Partial plan: the fetch stage is not requested, so the sections
	// stage's reference to it is dropped silently.
	graph := r.BuildDependencyGraph([]string{
		"indexing.document_sections",
		"indexing.section_extraction",
	})
	want := map[string][]string{
		"indexing.document_sections":  {},
		"indexing.section_extraction": {"indexing.document_sections"},
	}
	if !reflect.DeepEqual(graph, want) {
		t.Errorf("graph = %v, want %v", graph, want)
	}
}

func TestBuildDependencyGraphUnknownStage(t *testing.T) {
	r := testRegistry()
	graph := r.BuildDependencyGraph([]string{"mystery.stage"})
	if deps, ok := graph["mystery.stage"]; !ok || len(deps) != 0 {
		t.Errorf("unknown stage should get an empty dependency list, got %v", graph)
	}
}

func TestTopologicalSortEmpty(t *testing.T) {
	levels, err := TopologicalSort(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(levels) != 0 {
		t.Errorf("empty graph should yield no levels, got %v", levels)
	}
}

func TestTopologicalSortLevels(t *testing.T) {
	graph := map[string][]string{
		"a": {},
		"b": {"a"},
		"c": {"a"},
		"d": {"b", "c"},
	}

	levels, err := TopologicalSort(graph)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][]string{{"a"}, {"b", "c"}, {"d"}}
	if !reflect.DeepEqual(levels, want) {
		t.Errorf("levels = %v, want %v", levels, want)
	}
}

func TestTopologicalSortAlphabeticalWithinLevel(t *testing.T) {
	graph := map[string][]string{
		"zeta":  {},
		"alpha": {},
		"mid":   {},
	}

	for i := 0; i < 20; i++ {
		levels, err := TopologicalSort(graph)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := [][]string{{"alpha", "mid", "zeta"}}
		if !reflect.DeepEqual(levels, want) {
			t.Fatalf("run %d: levels = %v, want %v", i, levels, want)
		}
	}
}

func TestTopologicalSortSelfReference(t *testing.T) {
	_, err := TopologicalSort(map[string][]string{"a": {"a"}})
	if err == nil || !strings.Contains(err.Error(), "Circular dependency") {
		t.Errorf("self-reference should report a circular dependency, got %v", err)
	}
}

func TestTopologicalSortDirectCycle(t *testing.T) {
	_, err := TopologicalSort(map[string][]string{
		"a": {"b"},
		"b": {"a"},
	})
	if err == nil || !strings.Contains(err.Error(), "Circular dependency") {
		t.Errorf("direct cycle should report a circular dependency, got %v", err)
	}
}

func TestTopologicalSortLongCycle(t *testing.T) {
	_, err := TopologicalSort(map[string][]string{
		"a": {"c"},
		"b": {"a"},
		"c": {"b"},
		"d": {},
	})
	if err == nil || !strings.Contains(err.Error(), "Circular dependency") {
		t.Errorf("three-node cycle should report a circular dependency, got %v", err)
	}
}

func TestTopologicalSortEdgeToMissingNodeIsSatisfied(t *testing.T) {
	// Edges pointing outside the graph are treated as already satisfied so
	// hand-built partial graphs still sort.
	levels, err := TopologicalSort(map[string][]string{
		"b": {"not_in_graph"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(levels, [][]string{{"b"}}) {
		t.Errorf("levels = %v", levels)
	}
}

func TestBuildPlanEndToEnd(t *testing.T) {
	r := testRegistry()
	levels, err := r.BuildPlan([]string{
		"fetching.document_fetch",
		"indexing.document_sections",
		"indexing.section_extraction",
		"kg.entity_rollup",
		"kg.claim_rollup",
	})
	if err != nil {
		t.Fatalf("BuildPlan failed: %v", err)
	}
	want := [][]string{
		{"fetching.document_fetch"},
		{"indexing.document_sections"},
		{"indexing.section_extraction"},
		{"kg.claim_rollup", "kg.entity_rollup"},
	}
	if !reflect.DeepEqual(levels, want) {
		t.Errorf("plan = %v, want %v", levels, want)
	}
}

func TestDefaultRegistryPlan(t *testing.T) {
	r := DefaultRegistry()

	if _, ok := r.Get("kurt_entity"); !ok {
		t.Fatal("kg.entities not resolvable by table name")
	}

	levels, err := r.BuildPlan(r.Names())
	if err != nil {
		t.Fatalf("BuildPlan failed: %v", err)
	}
	want := [][]string{
		{"fetch.documents"},
		{"indexing.document_sections"},
		{"indexing.section_extraction"},
		{"kg.entities"},
		{"kg.claims", "kg.relationships"},
	}
	if !reflect.DeepEqual(levels, want) {
		t.Errorf("plan = %v, want %v", levels, want)
	}
}
