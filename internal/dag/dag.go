package dag

import (
	"cmp"
	"fmt"
	"slices"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{index: make(map[string]int)}
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// AddNode adds a node with the given ID and returns its index. Adding an
// existing ID returns the existing index.
func (g *Graph) AddNode(id string) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	g.nodes = append(g.nodes, node{id: id})
	g.index[id] = len(g.nodes) - 1
	return len(g.nodes) - 1
}

// Has reports whether a node with the given ID exists.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// AddEdge records that fromID must come before toID. Duplicate edges are
// ignored. An error is returned if either node does not exist or if the
// edge would be a self-reference.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}
	from, ok := g.index[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	to, ok := g.index[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}
	if slices.Contains(g.nodes[from].succ, to) {
		return nil
	}
	g.nodes[from].succ = append(g.nodes[from].succ, to)
	g.nodes[to].pred = append(g.nodes[to].pred, from)
	return nil
}

// Reaches reports whether toID can be reached from fromID by following one
// or more edges.
func (g *Graph) Reaches(fromID, toID string) bool {
	from, ok := g.index[fromID]
	if !ok {
		return false
	}
	to, ok := g.index[toID]
	if !ok {
		return false
	}
	seen := make([]bool, len(g.nodes))
	stack := slices.Clone(g.nodes[from].succ)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == to {
			return true
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, g.nodes[n].succ...)
	}
	return false
}

// TopologicalSort returns all node IDs ordered so that every edge points
// forward. Among nodes that are free to go next the smallest ID is taken.
// If the graph has a cycle the result is a *CycleError listing every node
// that could not be placed.
func (g *Graph) TopologicalSort() ([]string, error) {
	indeg := make([]int, len(g.nodes))
	for i := range g.nodes {
		indeg[i] = len(g.nodes[i].pred)
	}

	// ready is kept sorted by ID; the front is always taken next.
	byID := func(a, b int) int { return cmp.Compare(g.nodes[a].id, g.nodes[b].id) }
	push := func(ready []int, n int) []int {
		pos, _ := slices.BinarySearchFunc(ready, n, byID)
		return slices.Insert(ready, pos, n)
	}

	var ready []int
	for i, d := range indeg {
		if d == 0 {
			ready = push(ready, i)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, g.nodes[n].id)
		for _, s := range g.nodes[n].succ {
			indeg[s]--
			if indeg[s] == 0 {
				ready = push(ready, s)
			}
		}
	}

	if len(order) != len(g.nodes) {
		var stuck []string
		for i, d := range indeg {
			if d > 0 {
				stuck = append(stuck, g.nodes[i].id)
			}
		}
		slices.Sort(stuck)
		return nil, &CycleError{Nodes: stuck}
	}
	return order, nil
}

// DetectCycles returns a *CycleError if the graph cannot be ordered.
func (g *Graph) DetectCycles() error {
	_, err := g.TopologicalSort()
	return err
}
