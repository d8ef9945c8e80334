package graph

// Node is one schedulable unit: an id plus the ids it depends on.
type Node struct {
	ID   string
	Deps []string
}

// Graph is a directed dependency graph over a fixed node set.
// Edges point from a dependency to its dependents, so Adj lists the
// successors a node releases when it completes.
type Graph struct {
	IDs    []string            // node ids in input order
	Adj    map[string][]string // node -> nodes that depend on it
	RevAdj map[string][]string // node -> in-set dependencies
	Roots  []string            // nodes with no in-set dependencies

	dangling map[string][]string // node -> declared deps missing from the set
}
