// Package component defines the Component capability: the measurement
// primitive shared by every node in a call graph. It is grounded on the
// DataDog/go-libddwaf timer package's component/baseTimer split
// (timer/component.go, timer/base_timer.go), generalized from "duration
// accumulated per named budget slot" to "arbitrary numeric measurement
// accumulated per node".
package component

import (
	"fmt"
	"math"

	"github.com/perfgraph/perfgraph/internal/log"
)

// Value is the numeric type every Component reports. A plain float64 covers
// wall/CPU seconds, byte deltas and raw counter deltas alike; Category and
// Unit give it meaning at render time.
type Value float64

// Category groups components for rendering and settings purposes.
type Category int

const (
	CategoryTiming Category = iota
	CategoryMemory
	CategoryPercent
	CategoryOther
)

func (c Category) String() string {
	switch c {
	case CategoryTiming:
		return "timing"
	case CategoryMemory:
		return "memory"
	case CategoryPercent:
		return "percent"
	default:
		return "other"
	}
}

// Unit is a display unit, e.g. "sec", "MB", "count".
type Unit string

// Component is the measurement primitive. Concrete variants (wall-clock,
// CPU, memory, hardware counter) all satisfy this interface; user-defined
// components need only implement it to be usable anywhere a Component is
// accepted.
type Component interface {
	// Start captures a baseline. Calling Start while already running is a
	// LogicError: the prior baseline is kept and the call is a no-op.
	Start()
	// Stop computes delta = now - baseline and updates Value/Accumulated/
	// laps. It sets no transient flag: Node.IsTransient is set by the
	// graph package when an existing node is re-entered or merged.
	Stop()
	// Record returns the most recently stopped Value without mutating
	// state.
	Record() Value
	// Merge folds other's accumulated sum, laps and min/max into this
	// component. Used by graph.Node.Merge and by the subtree copies it
	// makes when the aggregator stitches worker trees into the master;
	// TREE re-entry keeps using the node's existing component instead.
	Merge(other Component)
	// Reset clears all accumulated state, as if newly constructed.
	Reset()

	Current() Value
	Accumulated() Value
	Min() Value
	Max() Value
	Laps() uint64
	// StdDev returns the population standard deviation of every lap
	// recorded so far, derived from the running sum of squares rather
	// than stored per-lap samples.
	StdDev() Value

	// IsRunning reports whether Start has been called without a matching
	// Stop.
	IsRunning() bool

	Category() Category
	Unit() Unit

	// ContributesToStorage reports whether this component should occupy
	// a slot in a Node's data.
	ContributesToStorage() bool

	// Secondary returns child measurements this component wants
	// materialized as separate node entries. Most
	// components return nil.
	Secondary() []SecondaryEntry

	// Display formats Current() according to the component's category
	// and unit for text reports.
	Display() string

	// Clone returns a fresh, zeroed component of the same concrete type
	// and configuration, used when the graph package copies a node's data
	// into another tree during a merge.
	Clone() Component
}

// SecondaryEntry is one piece of secondary data a component contributes,
// e.g. one CUDA kernel invocation nested under a measured region.
type SecondaryEntry struct {
	Label string
	Value Value
}

// base holds the bookkeeping shared by every concrete component: the
// current/accumulated/min/max/lap counters every Node's data carries.
// It is embedded, never used standalone.
type base struct {
	current     Value
	accumulated Value
	sumSquares  Value
	min         Value
	max         Value
	laps        uint64
	running     bool
	hasSample   bool
}

func (b *base) recordSample(delta Value) {
	b.current = delta
	b.accumulated += delta
	b.sumSquares += delta * delta
	if !b.hasSample || delta < b.min {
		b.min = delta
	}
	if !b.hasSample || delta > b.max {
		b.max = delta
	}
	b.hasSample = true
	b.laps++
}

func (b *base) mergeBase(other *base) {
	b.accumulated += other.accumulated
	b.sumSquares += other.sumSquares
	b.laps += other.laps
	if other.hasSample {
		if !b.hasSample || other.min < b.min {
			b.min = other.min
		}
		if !b.hasSample || other.max > b.max {
			b.max = other.max
		}
		b.hasSample = true
	}
}

func (b *base) reset() {
	*b = base{}
}

func (b *base) Current() Value     { return b.current }
func (b *base) Accumulated() Value { return b.accumulated }
func (b *base) Min() Value         { return b.min }
func (b *base) Max() Value         { return b.max }
func (b *base) Laps() uint64       { return b.laps }
func (b *base) IsRunning() bool    { return b.running }

// StdDev computes the population standard deviation of every recorded
// lap from the running sum of squares, so no per-lap history needs to
// be retained: var = E[x^2] - E[x]^2.
func (b *base) StdDev() Value {
	if b.laps == 0 {
		return 0
	}
	n := float64(b.laps)
	mean := float64(b.accumulated) / n
	variance := float64(b.sumSquares)/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return Value(math.Sqrt(variance))
}

// warnDoubleStart logs a start on an already-running component: a logic
// error reported but not fatal. The prior baseline is preserved and the
// redundant start is dropped.
func warnDoubleStart(name string) {
	log.Logf(log.LevelWarning, "component", "%s: Start called while already running, ignoring", name)
}

func mean(accumulated Value, laps uint64) Value {
	if laps == 0 {
		return 0
	}
	return accumulated / Value(laps)
}

func formatDuration(v Value, unit Unit) string {
	return fmt.Sprintf("%.6f %s", float64(v), unit)
}
