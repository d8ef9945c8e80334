package graph

import (
	"reflect"
	"testing"
)

func TestBuild_SimpleDAG(t *testing.T) {
	// A -> B -> D
	// A -> C -> D
	nodes := []Node{
		{ID: "a"},
		{ID: "b", Deps: []string{"a"}},
		{ID: "c", Deps: []string{"a"}},
		{ID: "d", Deps: []string{"b", "c"}},
	}
	g := Build(nodes)

	if g.NodeCount() != 4 {
		t.Fatalf("expected 4 nodes, got %d", g.NodeCount())
	}
	if !reflect.DeepEqual(g.Roots, []string{"a"}) {
		t.Errorf("expected roots [a], got %v", g.Roots)
	}
	if !reflect.DeepEqual(g.Adj["a"], []string{"b", "c"}) {
		t.Errorf("expected a to release [b c], got %v", g.Adj["a"])
	}

	deg := g.InDegrees()
	want := map[string]int{"a": 0, "b": 1, "c": 1, "d": 2}
	if !reflect.DeepEqual(deg, want) {
		t.Errorf("expected in-degrees %v, got %v", want, deg)
	}
}

func TestBuild_DuplicateEdgesCollapsed(t *testing.T) {
	nodes := []Node{
		{ID: "a"},
		{ID: "b", Deps: []string{"a", "a"}},
	}
	g := Build(nodes)
	if got := g.InDegrees()["b"]; got != 1 {
		t.Errorf("expected duplicate dep collapsed to in-degree 1, got %d", got)
	}
	if len(g.Adj["a"]) != 1 {
		t.Errorf("expected single edge a->b, got %v", g.Adj["a"])
	}
}

func TestBuild_DanglingDepsProduceNoEdges(t *testing.T) {
	nodes := []Node{
		{ID: "a", Deps: []string{"ghost"}},
		{ID: "b", Deps: []string{"a", "phantom"}},
	}
	g := Build(nodes)

	if got := g.InDegrees()["a"]; got != 0 {
		t.Errorf("expected a treated as a root, got in-degree %d", got)
	}
	if got := g.InDegrees()["b"]; got != 1 {
		t.Errorf("expected only the in-set dep counted for b, got %d", got)
	}

	dangling := g.Dangling()
	if !reflect.DeepEqual(dangling["a"], []string{"ghost"}) {
		t.Errorf("expected [ghost] dangling for a, got %v", dangling["a"])
	}
	if !reflect.DeepEqual(dangling["b"], []string{"phantom"}) {
		t.Errorf("expected [phantom] dangling for b, got %v", dangling["b"])
	}
}

func TestDetectCycle_Acyclic(t *testing.T) {
	nodes := []Node{
		{ID: "a"},
		{ID: "b", Deps: []string{"a"}},
		{ID: "c", Deps: []string{"b"}},
	}
	g := Build(nodes)
	if cycle := g.DetectCycle(); cycle != nil {
		t.Errorf("expected no cycle, got %v", cycle)
	}
	if stuck := g.Unreachable(); stuck != nil {
		t.Errorf("expected no unreachable nodes, got %v", stuck)
	}
}

func TestDetectCycle_SimpleCycle(t *testing.T) {
	nodes := []Node{
		{ID: "a", Deps: []string{"c"}},
		{ID: "b", Deps: []string{"a"}},
		{ID: "c", Deps: []string{"b"}},
	}
	g := Build(nodes)

	cycle := g.DetectCycle()
	if cycle == nil {
		t.Fatal("expected a cycle")
	}
	if len(cycle) != 3 {
		t.Errorf("expected 3-node cycle, got %v", cycle)
	}
}

func TestUnreachable_CycleBlocksDownstream(t *testing.T) {
	// a <-> b form a cycle; c depends on b; d is independent.
	nodes := []Node{
		{ID: "a", Deps: []string{"b"}},
		{ID: "b", Deps: []string{"a"}},
		{ID: "c", Deps: []string{"b"}},
		{ID: "d"},
	}
	g := Build(nodes)

	stuck := g.Unreachable()
	if !reflect.DeepEqual(stuck, []string{"a", "b", "c"}) {
		t.Errorf("expected [a b c] unreachable, got %v", stuck)
	}
}

func TestBuild_Empty(t *testing.T) {
	g := Build(nil)
	if g.NodeCount() != 0 {
		t.Errorf("expected empty graph, got %d nodes", g.NodeCount())
	}
	if cycle := g.DetectCycle(); cycle != nil {
		t.Errorf("expected no cycle in empty graph, got %v", cycle)
	}
}
