// Package aggregate implements the finalize-time merge that folds every
// thread's call graph into a single reportable structure: workers stitch
// under the node their parent thread was at when they were spawned,
// following the bookmark threadbind recorded; sibling roots optionally
// collapse into one tree afterward.
//
// Grounded on the merge/copy shape of DataDog/go-libddwaf's metricsStore
// (metrics.go's merge method folds one goroutine's counters into
// another's under a lock); aggregate generalizes that from a flat
// duration map to a tree walk guided by hash-path bookmarks.
package aggregate

import (
	"sort"

	"github.com/perfgraph/perfgraph/graph"
	"github.com/perfgraph/perfgraph/internal/log"
	"github.com/perfgraph/perfgraph/registry"
	"github.com/perfgraph/perfgraph/settings"
	"github.com/perfgraph/perfgraph/threadbind"
)

// Result is what Finalize hands to the report package.
type Result struct {
	// Roots holds one tree per thread, after workers have been stitched
	// into whichever tree spawned them. Keys are the surviving root
	// thread ids. When collapse_threads is enabled, the smallest tid's
	// entry is the same node as Master, so it also holds the children
	// folded in from the other roots.
	Roots map[uint64]*graph.Node

	// Master is non-nil only when collapse_threads is enabled: every
	// root tree folded into one, keyed by the smallest surviving tid.
	Master *graph.Node
}

// Finalize merges every thread bound in b into a Result and clears b, so
// a second call to Finalize (or continued measurement after it) starts
// from an empty thread set. cfg controls stack_clearing (whether open
// handles are force-stopped before merge) and collapse_threads (whether
// root trees are further folded into one).
func Finalize(b *threadbind.Binder, reg *registry.Registry, cfg *settings.Settings) *Result {
	tids := b.Threads()
	if len(tids) == 0 {
		return &Result{Roots: map[uint64]*graph.Node{}}
	}

	trees := make(map[uint64]*graph.CallGraph, len(tids))
	for _, tid := range tids {
		g, ok := b.Graph(tid)
		if !ok {
			continue
		}
		if cfg.StackClearing() {
			closeOpenHandles(g)
		}
		trees[tid] = g
	}

	childrenOf := make(map[uint64][]uint64)
	var rootTids []uint64
	for _, tid := range tids {
		g := trees[tid]
		if g == nil {
			continue
		}
		parent := g.Bookmark.ParentTID
		if parent == 0 || trees[parent] == nil || parent == tid {
			rootTids = append(rootTids, tid)
			continue
		}
		childrenOf[parent] = append(childrenOf[parent], tid)
	}
	sort.Slice(rootTids, func(i, j int) bool { return rootTids[i] < rootTids[j] })

	visited := make(map[uint64]bool, len(tids))
	for _, tid := range rootTids {
		mergeChildren(tid, trees, childrenOf, visited)
	}

	roots := make(map[uint64]*graph.Node, len(rootTids))
	for _, tid := range rootTids {
		if trees[tid] != nil && trees[tid].Root != nil {
			roots[tid] = trees[tid].Root
		}
	}

	result := &Result{Roots: roots}
	if cfg.CollapseThreads() && len(rootTids) > 0 {
		result.Master = collapse(rootTids, roots)
	}

	for _, tid := range tids {
		b.Remove(tid)
	}
	return result
}

// mergeChildren recursively merges tid's spawned workers into tid's tree,
// deepest worker first, so a worker that itself spawned workers arrives
// at its parent already fully merged.
func mergeChildren(tid uint64, trees map[uint64]*graph.CallGraph, childrenOf map[uint64][]uint64, visited map[uint64]bool) {
	if visited[tid] {
		return
	}
	visited[tid] = true

	kids := append([]uint64(nil), childrenOf[tid]...)
	sort.Slice(kids, func(i, j int) bool { return kids[i] < kids[j] })

	parent := trees[tid]
	for _, childTid := range kids {
		mergeChildren(childTid, trees, childrenOf, visited)
		child := trees[childTid]
		if parent == nil || child == nil || child.Root == nil {
			continue
		}
		if parent.Root == nil {
			// Parent never recorded anything of its own (e.g. it was
			// disabled) but still spawned a worker; adopt the worker's
			// tree as the parent's own rather than merging into a node
			// that doesn't exist.
			parent.Root = child.Root
			continue
		}
		target := resolveNode(parent.Root, child.Bookmark.HashPath)
		target.Merge(child.Root)
	}
}

// resolveNode walks path from root, following only TREE/FLAT children (no
// sequence number). A worker spawned from a since-cleared or
// never-recorded position has nowhere exact to stitch; resolveNode logs
// and returns the deepest node it could still match, which callers merge
// into directly.
func resolveNode(root *graph.Node, path []registry.Hash) *graph.Node {
	cur := root
	for _, h := range path {
		child, ok := cur.ChildByHash(h)
		if !ok {
			log.Logf(log.LevelWarning, "aggregate", "worker bookmark does not resolve past depth %d, merging here", cur.Depth)
			break
		}
		cur = child
	}
	return cur
}

// collapse folds every root tree's children into the tree with the
// smallest tid, and returns that tree's root.
func collapse(rootTids []uint64, roots map[uint64]*graph.Node) *graph.Node {
	var master *graph.Node
	for _, tid := range rootTids {
		other := roots[tid]
		if other == nil {
			continue
		}
		if master == nil {
			master = other
			continue
		}
		master.Merge(other)
	}
	return master
}

// closeOpenHandles stops and pops every node still open on g's stack, in
// LIFO order (leaf first), the same order their owners would have
// closed them in had every Stop actually run.
func closeOpenHandles(g *graph.CallGraph) {
	open := g.OpenHandles()
	for i := len(open) - 1; i >= 0; i-- {
		g.ForceClose(open[i])
	}
}
