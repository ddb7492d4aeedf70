// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

// Package dag builds dependency graphs over named pipeline stages and turns
// them into level-grouped execution plans.
package dag

import "sort"

// StageDef describes one registered pipeline stage. References map a
// logical input name to another stage, identified by either that stage's
// canonical dotted name or its output table name.
type StageDef struct {
	Name      string
	TableName string
	References map[string]string
}

// Registry indexes stage definitions under both their canonical name and
// their table name, so references can use either form.
type Registry struct {
	byKey map[string]StageDef
	names []string
}

// NewRegistry builds a registry from stage definitions. Later definitions
// win on key collisions.
func NewRegistry(stages ...StageDef) *Registry {
	r := &Registry{byKey: make(map[string]StageDef, len(stages)*2)}
	for _, s := range stages {
		r.byKey[s.Name] = s
		if s.TableName != "" {
			r.byKey[s.TableName] = s
		}
		r.names = append(r.names, s.Name)
	}
	return r
}

// DefaultRegistry returns the built-in indexing stages. Stage references
// deliberately mix canonical names and table names; both resolve.
func DefaultRegistry() *Registry {
	return NewRegistry(
		StageDef{
			Name:      "fetch.documents",
			TableName: "kurt_fetch",
		},
		StageDef{
			Name:      "indexing.document_sections",
			TableName: "kurt_section",
			References: map[string]string{
				"documents": "fetch.documents",
			},
		},
		StageDef{
			Name:      "indexing.section_extraction",
			TableName: "kurt_section_extraction",
			References: map[string]string{
				"sections": "kurt_section",
			},
		},
		StageDef{
			Name:      "kg.entities",
			TableName: "kurt_entity",
			References: map[string]string{
				"extractions": "indexing.section_extraction",
			},
		},
		StageDef{
			Name:      "kg.relationships",
			TableName: "kurt_relationship",
			References: map[string]string{
				"entities":    "kurt_entity",
				"extractions": "indexing.section_extraction",
			},
		},
		StageDef{
			Name:      "kg.claims",
			TableName: "kurt_claim",
			References: map[string]string{
				"entities":    "kurt_entity",
				"extractions": "indexing.section_extraction",
			},
		},
	)
}

// Get looks up a stage by canonical name or table name. A miss returns a
// zero StageDef and false rather than an error; callers building partial
// plans tolerate unknown stages.
func (r *Registry) Get(key string) (StageDef, bool) {
	s, ok := r.byKey[key]
	return s, ok
}

// Names returns the canonical names of all registered stages, sorted.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	sort.Strings(out)
	return out
}

// BuildDependencyGraph resolves each requested stage's references into an
// adjacency map of stage name to dependency stage names.
//
// A reference only becomes an edge when the referenced stage is itself in
// the requested set; dependencies outside the subset are dropped silently
// so partial-pipeline plans stay valid. Requested names missing from the
// registry get an empty dependency list.
func (r *Registry) BuildDependencyGraph(stageNames []string) map[string][]string {
	requested := make(map[string]bool, len(stageNames))
	for _, name := range stageNames {
		requested[name] = true
	}

	graph := make(map[string][]string, len(stageNames))
	for _, name := range stageNames {
		graph[name] = []string{}

		def, ok := r.Get(name)
		if !ok {
			continue
		}

		refKeys := make([]string, 0, len(def.References))
		for k := range def.References {
			refKeys = append(refKeys, k)
		}
		sort.Strings(refKeys)

		for _, k := range refKeys {
			dep, ok := r.Get(def.References[k])
			if !ok {
				continue
			}
			if !requested[dep.Name] {
				continue
			}
			graph[name] = append(graph[name], dep.Name)
		}
	}
	return graph
}
