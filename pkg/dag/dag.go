// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package dag

import (
	"fmt"
	"sort"
	"strings"
)

// TopologicalSort groups the graph's nodes into execution levels. Level 0
// holds nodes with no dependencies; level k holds nodes whose dependencies
// all sit in earlier levels. Nodes within a level are sorted alphabetically
// so plans are deterministic.
//
// Returns an error containing "Circular dependency" when any node can never
// be placed, which covers self-references, direct cycles, and longer ones.
func TopologicalSort(graph map[string][]string) ([][]string, error) {
	if len(graph) == 0 {
		return nil, nil
	}

	placed := make(map[string]bool, len(graph))
	remaining := make([]string, 0, len(graph))
	for name := range graph {
		remaining = append(remaining, name)
	}
	sort.Strings(remaining)

	var levels [][]string
	for len(remaining) > 0 {
		var level []string
		for _, name := range remaining {
			ready := true
			for _, dep := range graph[name] {
				// Edges to nodes outside the graph are treated as already
				// satisfied; the builder only emits in-set edges anyway.
				if _, inGraph := graph[dep]; inGraph && !placed[dep] {
					ready = false
					break
				}
			}
			if ready {
				level = append(level, name)
			}
		}

		if len(level) == 0 {
			sort.Strings(remaining)
			return nil, fmt.Errorf("Circular dependency detected among stages: %s", strings.Join(remaining, ", "))
		}

		for _, name := range level {
			placed[name] = true
		}
		levels = append(levels, level)

		next := remaining[:0]
		for _, name := range remaining {
			if !placed[name] {
				next = append(next, name)
			}
		}
		remaining = next
	}
	return levels, nil
}

// BuildPlan is the one-call form: resolve dependencies for the requested
// stages and sort them into levels.
func (r *Registry) BuildPlan(stageNames []string) ([][]string, error) {
	return TopologicalSort(r.BuildDependencyGraph(stageNames))
}
