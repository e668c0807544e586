package component_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/perfgraph/perfgraph/component"
)

func TestWallComponent(t *testing.T) {
	t.Run("start-stop-records-delta", func(t *testing.T) {
		c := component.NewWallComponent()
		c.Start()
		time.Sleep(time.Millisecond)
		c.Stop()

		require.GreaterOrEqual(t, c.Record(), component.Value(0))
		require.Equal(t, uint64(1), c.Laps())
		require.Equal(t, c.Record(), c.Accumulated())
	})

	t.Run("double-start-keeps-first-baseline", func(t *testing.T) {
		c := component.NewWallComponent()
		c.Start()
		time.Sleep(time.Millisecond)
		c.Start() // logic error, ignored
		time.Sleep(time.Millisecond)
		c.Stop()

		require.GreaterOrEqual(t, c.Record(), component.Value(0.002))
	})

	t.Run("stop-without-start-is-noop", func(t *testing.T) {
		c := component.NewWallComponent()
		c.Stop()
		require.Equal(t, uint64(0), c.Laps())
	})

	t.Run("merge-sums-accumulated-and-laps", func(t *testing.T) {
		a := component.NewWallComponent()
		a.Start()
		a.Stop()

		b := component.NewWallComponent()
		b.Start()
		b.Stop()
		b.Start()
		b.Stop()

		a.Merge(b)
		require.Equal(t, uint64(3), a.Laps())
	})

	t.Run("category-and-unit", func(t *testing.T) {
		c := component.NewWallComponent()
		require.Equal(t, component.CategoryTiming, c.Category())
		require.Equal(t, component.Unit("sec"), c.Unit())
		require.True(t, c.ContributesToStorage())
	})
}

func TestCounterComponent(t *testing.T) {
	t.Run("nil-read-func-is-tag-only", func(t *testing.T) {
		c := component.NewCounterComponent("markers", "count", nil)
		require.False(t, c.ContributesToStorage())
		c.Start()
		c.Stop()
		require.Equal(t, component.Value(0), c.Record())
	})

	t.Run("counts-delta-between-start-and-stop", func(t *testing.T) {
		n := 0
		read := func() component.Value {
			n++
			return component.Value(n)
		}
		c := component.NewCounterComponent("calls", "count", read)
		require.True(t, c.ContributesToStorage())
		c.Start()
		read()
		read()
		c.Stop()
		require.Equal(t, component.Value(3), c.Record())
	})
}

func TestStdDevComputedFromSumOfSquares(t *testing.T) {
	// Deltas 2, 4, 6 across three laps.
	vals := []component.Value{0, 2, 2, 6, 6, 12}
	i := 0
	read := func() component.Value {
		v := vals[i]
		i++
		return v
	}
	c := component.NewCounterComponent("x", "count", read)
	for j := 0; j < 3; j++ {
		c.Start()
		c.Stop()
	}

	want := math.Sqrt(8.0 / 3.0) // mean 4, variance (4+0+4)/3
	require.InDelta(t, want, float64(c.StdDev()), 1e-9)
}

func TestStdDevMergesAcrossComponents(t *testing.T) {
	valsA := []component.Value{0, 2}
	ia := 0
	a := component.NewCounterComponent("x", "count", func() component.Value {
		v := valsA[ia]
		ia++
		return v
	})
	a.Start()
	a.Stop()

	valsB := []component.Value{0, 4}
	ib := 0
	b := component.NewCounterComponent("x", "count", func() component.Value {
		v := valsB[ib]
		ib++
		return v
	})
	b.Start()
	b.Stop()

	a.Merge(b)
	want := math.Sqrt(1.0) // mean 3, variance ((2-3)^2+(4-3)^2)/2 = 1
	require.InDelta(t, want, float64(a.StdDev()), 1e-9)
}

func TestZeroLapsStdDevIsZero(t *testing.T) {
	c := component.NewWallComponent()
	require.Equal(t, component.Value(0), c.StdDev())
}

func TestCloneIsIndependent(t *testing.T) {
	a := component.NewWallComponent()
	a.Start()
	a.Stop()

	b := a.Clone()
	require.Equal(t, uint64(0), b.Laps())
}
