// SPDX-License-Identifier: MPL-2.0

// Package dag orders named benchmark target groups so that every group runs after
// the groups it depends on. A composite target such as "full" is expressed as a
// node whose incoming edges come from its member groups.
package dag

import (
	"fmt"
	"slices"
	"strings"
)

type (
	// CycleError indicates that the graph contains a cycle, preventing ordering.
	CycleError struct {
		// Nodes lists the nodes left unordered, in insertion order. They include
		// every node on a cycle and anything that depends on one.
		Nodes []string
	}

	// Graph is a directed graph of named nodes. An edge from A to B means A must be
	// ordered before B.
	Graph struct {
		edges map[string][]string
		order []string
		index map[string]int
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected among: %s", strings.Join(e.Nodes, " -> "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		edges: make(map[string][]string),
		index: make(map[string]int),
	}
}

// AddNode adds a node. Adding an existing node is a no-op and keeps its original
// insertion position.
func (g *Graph) AddNode(name string) {
	if _, ok := g.index[name]; ok {
		return
	}
	g.index[name] = len(g.order)
	g.order = append(g.order, name)
}

// AddEdge records that before must be ordered ahead of after. Both nodes are added
// if missing. Duplicate edges are ignored.
func (g *Graph) AddEdge(before, after string) {
	g.AddNode(before)
	g.AddNode(after)
	if slices.Contains(g.edges[before], after) {
		return
	}
	g.edges[before] = append(g.edges[before], after)
}

// Has reports whether name is a node of the graph.
func (g *Graph) Has(name string) bool {
	_, ok := g.index[name]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// Sort returns the nodes in dependency order using Kahn's algorithm. Among nodes
// that are ready at the same time, the one inserted first wins, so the result is
// deterministic. A *CycleError is returned if some nodes can never become ready.
func (g *Graph) Sort() ([]string, error) {
	if len(g.order) == 0 {
		return nil, nil
	}

	pending := make(map[string]int, len(g.order))
	for _, targets := range g.edges {
		for _, t := range targets {
			pending[t]++
		}
	}

	ready := make([]string, 0, len(g.order))
	for _, n := range g.order {
		if pending[n] == 0 {
			ready = append(ready, n)
		}
	}

	sorted := make([]string, 0, len(g.order))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		sorted = append(sorted, n)

		var released []string
		for _, t := range g.edges[n] {
			pending[t]--
			if pending[t] == 0 {
				released = append(released, t)
			}
		}
		// Keep the ready queue in insertion order.
		ready = append(ready, released...)
		slices.SortStableFunc(ready, func(a, b string) int { return g.index[a] - g.index[b] })
	}

	if len(sorted) != len(g.order) {
		var stuck []string
		for _, n := range g.order {
			if pending[n] > 0 {
				stuck = append(stuck, n)
			}
		}
		return nil, &CycleError{Nodes: stuck}
	}
	return sorted, nil
}
