// Package scope implements the scoped measurement handle: an RAII-style
// bracket that inserts a node and starts its component on construction,
// and stops+pops on destruction.
//
// Go has no destructors, so the construction/destruction pair is a
// constructor plus a Stop method meant to be called via `defer`. This
// mirrors the pattern the timer.Timed helper uses (timer/base_timer.go's
// Timed method wraps Start/Stop around a callback); scope additionally
// exposes the bare Handle for callers who prefer an explicit defer over
// a callback.
package scope

import (
	"github.com/perfgraph/perfgraph/component"
	"github.com/perfgraph/perfgraph/graph"
	"github.com/perfgraph/perfgraph/registry"
)

// Handle is a single open scoped measurement. It is not safe for
// concurrent use: a Handle belongs to the goroutine/thread that created
// it and must be closed on every exit path, including panics, hence the
// `defer handle.Stop()` idiom.
type Handle struct {
	graph *graph.CallGraph
	token graph.Token
	noop  bool
}

// Begin computes or looks up label's hash, inserts a node into g under
// mode, and starts the node's component. If g is disabled the returned
// Handle is a no-op sentinel: it tolerates being constructed while
// instrumentation is globally disabled and becomes a no-op on Stop.
func Begin(reg *registry.Registry, g *graph.CallGraph, label string, mode graph.Mode, newComponent graph.NewComponentFunc) (*Handle, error) {
	hash, err := reg.HashOf(label)
	if err != nil {
		return &Handle{noop: true}, err
	}

	tok := g.Insert(hash, mode, newComponent)
	if tok.Skipped() {
		return &Handle{noop: true}, nil
	}

	node := tok.Node()
	if node.Data != nil {
		node.Data.Start()
	}

	return &Handle{graph: g, token: tok}, nil
}

// Stop stops the node's component, folds the result in, and pops the
// token. Safe to call multiple times; only the first call has an effect.
// Safe to call from a defer on a panicking goroutine: if the component's
// Stop itself panics, the token is still popped before the panic is
// allowed to continue, so a misbehaving Component can't leave every
// handle still open above it stuck out of sync with the graph's cursor.
// The original panic is rewrapped in a PanicError and re-raised.
func (h *Handle) Stop() {
	if h == nil || h.noop {
		return
	}
	tok, g := h.token, h.graph
	h.noop = true

	defer func() {
		if r := recover(); r != nil {
			g.Pop(tok)
			panic(newPanicError(r))
		}
	}()

	node := tok.Node()
	if node != nil && node.Data != nil {
		node.Data.Stop()
	}
	g.Pop(tok)
}

// StopAndRecord stops the handle and returns the component's just-
// recorded value, useful for logging a single region's cost inline
// (supplemented from original_source/timemory's timer::stop_and_return).
func (h *Handle) StopAndRecord() component.Value {
	if h == nil || h.noop {
		return 0
	}
	node := h.token.Node()
	h.Stop()
	if node != nil && node.Data != nil {
		return node.Data.Record()
	}
	return 0
}

// Node returns the node this handle addresses, or nil if it is a no-op
// handle. Exposed for tests.
func (h *Handle) Node() *graph.Node {
	if h == nil {
		return nil
	}
	return h.token.Node()
}
