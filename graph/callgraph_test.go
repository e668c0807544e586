package graph_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/perfgraph/perfgraph/component"
	"github.com/perfgraph/perfgraph/graph"
	"github.com/perfgraph/perfgraph/registry"
)

func newComp() component.Component { return component.NewWallComponent() }

func countNodes(n *graph.Node) int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children() {
		total += countNodes(c)
	}
	return total
}

func TestTreeModeReusesNodeAcrossSiblingCalls(t *testing.T) {
	r := registry.New()
	g := graph.New(1, graph.RootBookmark)

	h, err := r.HashOf("fib")
	require.NoError(t, err)

	tok1 := g.Insert(h, graph.TREE, newComp)
	g.Pop(tok1)

	tok2 := g.Insert(h, graph.TREE, newComp)
	g.Pop(tok2)

	// Same label at the same parent (root) reuses the node: exactly one
	// child of root. No laps are recorded, since nothing started or
	// stopped its component.
	require.Len(t, g.Root.Children(), 1)
	require.Equal(t, uint64(0), g.Root.Children()[0].Laps()) // wall component needs Start/Stop to record a lap
}

func TestTreeModeRecursionCreatesChildren(t *testing.T) {
	r := registry.New()
	g := graph.New(1, graph.RootBookmark)
	h, err := r.HashOf("fib")
	require.NoError(t, err)

	outer := g.Insert(h, graph.TREE, newComp)
	inner := g.Insert(h, graph.TREE, newComp)

	require.NotEqual(t, outer, inner)
	require.Len(t, g.Root.Children(), 1)
	require.Len(t, g.Root.Children()[0].Children(), 1)

	g.Pop(inner)
	g.Pop(outer)
}

func TestFlatModeAttachesAtDepthOne(t *testing.T) {
	r := registry.New()
	g := graph.New(1, graph.RootBookmark)

	a, _ := r.HashOf("a")
	b, _ := r.HashOf("b")

	tokA := g.Insert(a, graph.FLAT, newComp)
	tokB := g.Insert(b, graph.FLAT, newComp)
	g.Pop(tokB)
	g.Pop(tokA)

	require.Len(t, g.Root.Children(), 2)
	for _, c := range g.Root.Children() {
		require.Equal(t, 1, c.Depth)
	}
}

func TestTimelineModeNeverReuses(t *testing.T) {
	r := registry.New()
	g := graph.New(1, graph.RootBookmark)
	h, _ := r.HashOf("tick")

	for i := 0; i < 5; i++ {
		tok := g.Insert(h, graph.TIMELINE, newComp)
		g.Pop(tok)
	}

	require.Len(t, g.Root.Children(), 5)
}

func TestMaxDepthZeroDisablesStorage(t *testing.T) {
	r := registry.New()
	g := graph.New(1, graph.RootBookmark)
	g.SetMaxDepth(0)
	h, _ := r.HashOf("a")

	tok := g.Insert(h, graph.TREE, newComp)
	g.Pop(tok)

	require.Nil(t, g.Root)
}

func TestMaxDepthLimitsInsertion(t *testing.T) {
	r := registry.New()
	g := graph.New(1, graph.RootBookmark)
	g.SetMaxDepth(2)

	a, _ := r.HashOf("a")
	b, _ := r.HashOf("b")
	c, _ := r.HashOf("c")

	tokA := g.Insert(a, graph.TREE, newComp)
	tokB := g.Insert(b, graph.TREE, newComp)
	tokC := g.Insert(c, graph.TREE, newComp) // depth 3, exceeds max 2

	g.Pop(tokC) // no-op, matches skipped token
	g.Pop(tokB)
	g.Pop(tokA)

	require.Equal(t, 3, countNodes(g.Root)) // root, a, b -- c never created
}

func TestPopWithNoMatchingInsertIsNoop(t *testing.T) {
	g := graph.New(1, graph.RootBookmark)
	g.SetMaxDepth(0)

	tok := g.Insert(registry.Hash(1), graph.TREE, newComp)
	require.NotPanics(t, func() { g.Pop(tok) })
}

func TestDisabledStoreCreatesNoNodes(t *testing.T) {
	r := registry.New()
	g := graph.New(1, graph.RootBookmark)
	g.Enable(false)
	h, _ := r.HashOf("a")

	tok := g.Insert(h, graph.TREE, newComp)
	g.Pop(tok)

	require.Nil(t, g.Root)
}

func TestTagOnlyComponentOccupiesNoStorageSlot(t *testing.T) {
	r := registry.New()
	g := graph.New(1, graph.RootBookmark)
	h, _ := r.HashOf("marker")

	tagOnly := func() component.Component { return component.NewCounterComponent("marker", "count", nil) }
	tok := g.Insert(h, graph.TREE, tagOnly)
	g.Pop(tok)

	require.Nil(t, tok.Node().Data)
	require.Equal(t, uint64(0), tok.Node().Laps())
}

func TestIsOnStackWhileHandleOpen(t *testing.T) {
	r := registry.New()
	g := graph.New(1, graph.RootBookmark)
	h, _ := r.HashOf("a")

	tok := g.Insert(h, graph.TREE, newComp)
	require.True(t, g.Root.IsOnStack())
	require.True(t, tok.Node().IsOnStack())

	g.Pop(tok)
	require.False(t, g.Root.IsOnStack())
}
