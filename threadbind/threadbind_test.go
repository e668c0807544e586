package threadbind_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/perfgraph/perfgraph/graph"
	"github.com/perfgraph/perfgraph/threadbind"
)

func TestGraphForCreatesLazily(t *testing.T) {
	b := threadbind.New()
	_, ok := b.Graph(1)
	require.False(t, ok)

	g := b.GraphFor(1, graph.RootBookmark)
	require.NotNil(t, g)

	again := b.GraphFor(1, graph.RootBookmark)
	require.Same(t, g, again)
}

func TestUnknownThreadBookmarksAtRoot(t *testing.T) {
	b := threadbind.New()
	require.Equal(t, graph.RootBookmark, b.Bookmark(99))
}

func TestThreadsSortedAscending(t *testing.T) {
	b := threadbind.New()
	b.GraphFor(30, graph.RootBookmark)
	b.GraphFor(10, graph.RootBookmark)
	b.GraphFor(20, graph.RootBookmark)

	require.Equal(t, []uint64{10, 20, 30}, b.Threads())
}

func TestRemoveAndClear(t *testing.T) {
	b := threadbind.New()
	b.GraphFor(1, graph.RootBookmark)
	b.GraphFor(2, graph.RootBookmark)

	b.Remove(1)
	require.Equal(t, []uint64{2}, b.Threads())

	b.Clear()
	require.Empty(t, b.Threads())
}

func TestCurrentThreadIDIsStableWithinACall(t *testing.T) {
	id1 := threadbind.CurrentThreadID()
	id2 := threadbind.CurrentThreadID()
	require.Equal(t, id1, id2)
}
