package graph

import "sort"

// Build constructs a Graph from the given nodes. Dependency ids that do
// not name a node in the set are recorded as dangling and produce no
// edge: the scheduler treats them as already satisfied. Duplicate edges
// are collapsed. Adjacency lists preserve input order so downstream
// tie-breaking by arrival stays deterministic.
func Build(nodes []Node) *Graph {
	g := &Graph{
		Adj:      make(map[string][]string),
		RevAdj:   make(map[string][]string),
		dangling: make(map[string][]string),
	}

	inSet := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		g.IDs = append(g.IDs, n.ID)
		inSet[n.ID] = true
	}

	edgeSet := make(map[[2]string]bool)
	for _, n := range nodes {
		for _, dep := range n.Deps {
			if !inSet[dep] {
				g.dangling[n.ID] = append(g.dangling[n.ID], dep)
				continue
			}
			key := [2]string{dep, n.ID}
			if edgeSet[key] {
				continue
			}
			edgeSet[key] = true
			g.Adj[dep] = append(g.Adj[dep], n.ID)
			g.RevAdj[n.ID] = append(g.RevAdj[n.ID], dep)
		}
	}

	for _, id := range g.IDs {
		if len(g.RevAdj[id]) == 0 {
			g.Roots = append(g.Roots, id)
		}
	}

	return g
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.IDs)
}

// InDegrees returns a fresh map of in-set dependency counts per node.
// Callers may mutate the returned map freely.
func (g *Graph) InDegrees() map[string]int {
	deg := make(map[string]int, len(g.IDs))
	for _, id := range g.IDs {
		deg[id] = len(g.RevAdj[id])
	}
	return deg
}

// Dangling returns, per node, the declared dependency ids that are not
// part of this graph. Empty when every dependency resolves in-set.
func (g *Graph) Dangling() map[string][]string {
	out := make(map[string][]string, len(g.dangling))
	for id, deps := range g.dangling {
		out[id] = append([]string(nil), deps...)
	}
	return out
}

// DetectCycle returns the cycle path if one exists, or nil if the graph
// is acyclic. Uses DFS with coloring: white (unvisited), gray (in
// progress), black (done).
func (g *Graph) DetectCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int)
	parent := make(map[string]string)

	var dfs func(node string) []string
	dfs = func(node string) []string {
		color[node] = gray
		for _, next := range g.Adj[node] {
			if color[next] == gray {
				// Found a cycle — reconstruct it
				cycle := []string{next, node}
				cur := node
				for cur != next {
					cur = parent[cur]
					cycle = append(cycle, cur)
				}
				// Reverse to get forward order
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			}
			if color[next] == white {
				parent[next] = node
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}
		color[node] = black
		return nil
	}

	// Sort keys for deterministic detection
	ids := append([]string(nil), g.IDs...)
	sort.Strings(ids)

	for _, id := range ids {
		if color[id] == white {
			if cycle := dfs(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// Unreachable returns, in input order, the nodes that can never reach
// in-degree zero because they sit on or behind a cycle. Empty for an
// acyclic graph.
func (g *Graph) Unreachable() []string {
	deg := g.InDegrees()

	queue := append([]string(nil), g.Roots...)
	visited := 0
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		visited++
		for _, succ := range g.Adj[node] {
			deg[succ]--
			if deg[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}

	if visited == len(g.IDs) {
		return nil
	}
	var stuck []string
	for _, id := range g.IDs {
		if deg[id] > 0 {
			stuck = append(stuck, id)
		}
	}
	return stuck
}
