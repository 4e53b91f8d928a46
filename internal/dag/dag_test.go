package dag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.Empty(t, g.nodes)
	assert.Equal(t, 0, g.Len())
}

func TestAddNode(t *testing.T) {
	g := New()

	a := g.AddNode("a")
	assert.Equal(t, 0, a)
	assert.Equal(t, 1, g.Len())

	again := g.AddNode("a") // Test idempotency
	assert.Equal(t, a, again)
	assert.Equal(t, 1, g.Len())

	b := g.AddNode("b")
	assert.Equal(t, 1, b)
	assert.True(t, g.Has("b"))
	assert.False(t, g.Has("c"))
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")

		err := g.AddEdge("a", "b") // a before b
		require.NoError(t, err)

		assert.True(t, g.Reaches("a", "b"))
		assert.False(t, g.Reaches("b", "a"))
		assert.Equal(t, []int{1}, g.nodes[0].succ)
		assert.Equal(t, []int{0}, g.nodes[1].pred)
	})

	t.Run("duplicate edge is ignored", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")

		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("a", "b"))

		assert.Len(t, g.nodes[0].succ, 1)
		assert.Len(t, g.nodes[1].pred, 1)
	})

	t.Run("error cases", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")

		err := g.AddEdge("dne", "a")
		assert.ErrorContains(t, err, "source node not found")

		err = g.AddEdge("a", "dne")
		assert.ErrorContains(t, err, "destination node not found")

		err = g.AddEdge("a", "a")
		assert.ErrorContains(t, err, "self-referential edge")
	})
}

func TestReaches(t *testing.T) {
	g := New()
	for _, id := range []string{"a", "b", "c", "d"} {
		g.AddNode(id)
	}
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "c"))

	assert.True(t, g.Reaches("a", "c"))
	assert.True(t, g.Reaches("a", "b"))
	assert.False(t, g.Reaches("c", "a"))
	assert.False(t, g.Reaches("a", "d"))
	assert.False(t, g.Reaches("a", "a"), "no path back to itself without a cycle")
	assert.False(t, g.Reaches("dne", "a"))
}

func TestTopologicalSort(t *testing.T) {
	t.Run("empty graph yields empty order", func(t *testing.T) {
		order, err := New().TopologicalSort()
		require.NoError(t, err)
		assert.Empty(t, order)
	})

	t.Run("unconstrained nodes are sorted by id", func(t *testing.T) {
		g := New()
		g.AddNode("c")
		g.AddNode("a")
		g.AddNode("b")

		order, err := g.TopologicalSort()
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, order)
	})

	t.Run("edges override id order", func(t *testing.T) {
		g := New()
		for _, id := range []string{"a", "b", "c", "z"} {
			g.AddNode(id)
		}
		require.NoError(t, g.AddEdge("z", "a"))
		require.NoError(t, g.AddEdge("c", "b"))

		order, err := g.TopologicalSort()
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "b", "z", "a"}, order)
	})

	t.Run("same graph built in different order sorts identically", func(t *testing.T) {
		// --- Arrange ---
		build := func(ids []string, edges [][2]string) []string {
			g := New()
			for _, id := range ids {
				g.AddNode(id)
			}
			for _, e := range edges {
				require.NoError(t, g.AddEdge(e[0], e[1]))
			}
			order, err := g.TopologicalSort()
			require.NoError(t, err)
			return order
		}
		edges := [][2]string{{"core", "ui"}, {"core", "items"}, {"items", "balance"}}
		reversed := [][2]string{edges[2], edges[1], edges[0]}

		// --- Act ---
		first := build([]string{"ui", "balance", "core", "items"}, edges)
		second := build([]string{"items", "core", "balance", "ui"}, reversed)

		// --- Assert ---
		assert.Equal(t, []string{"core", "items", "balance", "ui"}, first)
		assert.Equal(t, first, second)
	})
}

func TestDetectCycles(t *testing.T) {
	t.Run("empty graph has no cycles", func(t *testing.T) {
		g := New()
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("graph with nodes but no edges has no cycles", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("simple acyclic graph", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		g.AddNode("c")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("simple cycle", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "a"))

		err := g.DetectCycles()
		require.Error(t, err)
		assert.ErrorContains(t, err, "cycle detected")
	})

	t.Run("cycle reports stuck nodes including those behind it", func(t *testing.T) {
		// --- Arrange ---
		g := New()
		for _, id := range []string{"a", "b", "c", "d", "free"} {
			g.AddNode(id)
		}
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))
		require.NoError(t, g.AddEdge("c", "a"))
		require.NoError(t, g.AddEdge("c", "d"))

		// --- Act ---
		order, err := g.TopologicalSort()

		// --- Assert ---
		assert.Nil(t, order)
		var cycleErr *CycleError
		require.True(t, errors.As(err, &cycleErr))
		assert.Equal(t, []string{"a", "b", "c", "d"}, cycleErr.Nodes)
		assert.EqualError(t, err, "cycle detected involving a, b, c, d")
	})
}
