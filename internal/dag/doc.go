// Package dag provides the directed graph used to order mods. Nodes live in
// an arena (a slice) and refer to each other by index, so the graph owns no
// pointer cycles and cycle detection is a plain graph algorithm.
//
// An edge from a to b means a must come before b. TopologicalSort is stable:
// whenever several nodes are free to go next, the one with the smallest ID
// wins, so the same graph always yields the same order regardless of the
// order nodes and edges were added in.
package dag
