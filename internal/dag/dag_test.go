// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"errors"
	"slices"
	"testing"
)

func TestSort_EmptyGraph(t *testing.T) {
	t.Parallel()
	order, err := New().Sort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order != nil {
		t.Errorf("expected nil, got %v", order)
	}
}

func TestSort_CompositeTarget(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddNode("full")
	for _, dep := range []string{"standard", "native-o1", "native-o2", "optimization-mode"} {
		g.AddEdge(dep, "full")
	}

	order, err := g.Sort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"standard", "native-o1", "native-o2", "optimization-mode", "full"}
	if !slices.Equal(order, want) {
		t.Errorf("Sort() = %v, want %v", order, want)
	}
}

func TestSort_IndependentNodesKeepInsertionOrder(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddNode("native-o2")
	g.AddNode("standard")
	g.AddNode("native-o1")

	order, err := g.Sort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"native-o2", "standard", "native-o1"}
	if !slices.Equal(order, want) {
		t.Errorf("Sort() = %v, want %v", order, want)
	}
}

func TestSort_Diamond(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddEdge("A", "B")
	g.AddEdge("A", "C")
	g.AddEdge("B", "D")
	g.AddEdge("C", "D")

	order, err := g.Sort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"A", "B", "C", "D"}
	if !slices.Equal(order, want) {
		t.Errorf("Sort() = %v, want %v", order, want)
	}
}

func TestSort_DuplicateEdgesIgnored(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddEdge("A", "B")
	g.AddEdge("A", "B")

	order, err := g.Sort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(order, []string{"A", "B"}) {
		t.Errorf("Sort() = %v, want [A B]", order)
	}
	if g.Len() != 2 {
		t.Errorf("Len() = %d, want 2", g.Len())
	}
}

func TestSort_Cycle(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddNode("standard")
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddEdge("c", "a")

	_, err := g.Sort()
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %v", err)
	}
	if !slices.Equal(cycleErr.Nodes, []string{"a", "b", "c"}) {
		t.Errorf("CycleError.Nodes = %v, want [a b c]", cycleErr.Nodes)
	}
}

func TestHas(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddNode("standard")
	if !g.Has("standard") {
		t.Error("Has(standard) = false, want true")
	}
	if g.Has("full") {
		t.Error("Has(full) = true, want false")
	}
}
