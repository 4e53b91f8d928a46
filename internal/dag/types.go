package dag

import (
	"fmt"
	"strings"
)

// Graph is a directed graph addressed by string IDs. It is not safe for
// concurrent use.
type Graph struct {
	// nodes is the arena; a node's index never changes once added.
	nodes []node
	// index maps an ID to its position in nodes.
	index map[string]int
}

// node is one vertex of the arena.
type node struct {
	id string
	// succ holds the indices of nodes that must come after this one.
	succ []int
	// pred holds the indices of nodes that must come before this one.
	pred []int
}

// CycleError reports nodes that could not be ordered because they sit on or
// behind a cycle.
type CycleError struct {
	// Nodes are the unordered IDs, sorted.
	Nodes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected involving %s", strings.Join(e.Nodes, ", "))
}
