package scope_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/perfgraph/perfgraph/component"
	"github.com/perfgraph/perfgraph/graph"
	"github.com/perfgraph/perfgraph/registry"
	"github.com/perfgraph/perfgraph/scope"
)

func newWall() component.Component { return component.NewWallComponent() }

// panicComponent wraps a WallComponent but panics on Stop, to exercise
// Handle.Stop's recovery path.
type panicComponent struct {
	component.Component
}

func (p *panicComponent) Stop() { panic("boom") }

func (p *panicComponent) Clone() component.Component {
	return &panicComponent{Component: p.Component.Clone()}
}

func newPanicComponent() component.Component {
	return &panicComponent{Component: component.NewWallComponent()}
}

func TestBeginStopRestoresCursor(t *testing.T) {
	reg := registry.New()
	g := graph.New(1, graph.RootBookmark)

	// Establish the root via one handle first, so "the cursor before
	// construction" is a real node rather than the pre-root nil.
	warmup, err := scope.Begin(reg, g, "warmup", graph.TREE, newWall)
	require.NoError(t, err)
	warmup.Stop()

	before := g.Cursor()

	h, err := scope.Begin(reg, g, "region", graph.TREE, newWall)
	require.NoError(t, err)
	require.NotNil(t, h.Node())

	h.Stop()

	require.Equal(t, before, g.Cursor())
}

func TestStopIsIdempotent(t *testing.T) {
	reg := registry.New()
	g := graph.New(1, graph.RootBookmark)

	h, err := scope.Begin(reg, g, "region", graph.TREE, newWall)
	require.NoError(t, err)

	h.Stop()
	require.NotPanics(t, func() { h.Stop() })
}

func TestNoopHandleWhenDisabled(t *testing.T) {
	reg := registry.New()
	g := graph.New(1, graph.RootBookmark)
	g.Enable(false)

	h, err := scope.Begin(reg, g, "region", graph.TREE, newWall)
	require.NoError(t, err)
	require.Nil(t, h.Node())
	require.NotPanics(t, h.Stop)
}

func TestStopAndRecordReturnsValue(t *testing.T) {
	reg := registry.New()
	g := graph.New(1, graph.RootBookmark)

	h, err := scope.Begin(reg, g, "region", graph.TREE, newWall)
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	v := h.StopAndRecord()

	require.Greater(t, v, component.Value(0))
}

func TestNestedHandlesPopInLIFOOrder(t *testing.T) {
	reg := registry.New()
	g := graph.New(1, graph.RootBookmark)

	outer, err := scope.Begin(reg, g, "outer", graph.TREE, newWall)
	require.NoError(t, err)

	inner, err := scope.Begin(reg, g, "inner", graph.TREE, newWall)
	require.NoError(t, err)

	require.Equal(t, inner.Node(), g.Cursor())
	inner.Stop()
	require.Equal(t, outer.Node(), g.Cursor())
	outer.Stop()
	require.Equal(t, g.Root, g.Cursor())
}

func TestStopRecoversPanicButStillPops(t *testing.T) {
	reg := registry.New()
	g := graph.New(1, graph.RootBookmark)

	outer, err := scope.Begin(reg, g, "outer", graph.TREE, newWall)
	require.NoError(t, err)
	inner, err := scope.Begin(reg, g, "inner", graph.TREE, newPanicComponent)
	require.NoError(t, err)

	require.PanicsWithValue(t, true, func() {
		defer func() {
			r := recover()
			_, ok := r.(*scope.PanicError)
			require.True(t, ok)
			panic(ok)
		}()
		inner.Stop()
	})

	// Despite the panic, inner's token was popped, so the cursor is back
	// at outer rather than stuck on the dead inner node.
	require.Equal(t, outer.Node(), g.Cursor())
	outer.Stop()
}

func TestEmptyLabelRejected(t *testing.T) {
	reg := registry.New()
	g := graph.New(1, graph.RootBookmark)

	h, err := scope.Begin(reg, g, "   ", graph.TREE, newWall)
	require.Error(t, err)
	require.Nil(t, h.Node())
}
