// Package threadbind associates each OS thread with its own call-graph
// store, and records the bookmark a worker needs to have its subtree
// stitched under the spawning thread's cursor at merge time.
//
// Grounded on the RWMutex-guarded-map shape of DataDog/go-libddwaf's
// metricsStore (metrics.go): binding a new thread is rare, looking one up
// on every scoped measurement is frequent.
package threadbind

import (
	"sort"
	"sync"

	"github.com/perfgraph/perfgraph/graph"
)

// Binder owns the process-wide thread -> CallGraph association: global
// mutable state with a create-lazily / tear-down-at-finalize lifecycle.
type Binder struct {
	mu    sync.RWMutex
	trees map[uint64]*graph.CallGraph

	maxBookmarks int
}

// DefaultMaxBookmarks bounds the per-worker bookmark chain retained for
// re-stitch cost.
const DefaultMaxBookmarks = 64

func New() *Binder {
	return &Binder{
		trees:        make(map[uint64]*graph.CallGraph),
		maxBookmarks: DefaultMaxBookmarks,
	}
}

// SetMaxBookmarks configures the max_thread_bookmarks Settings value.
func (b *Binder) SetMaxBookmarks(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n <= 0 {
		n = DefaultMaxBookmarks
	}
	b.maxBookmarks = n
}

// Bookmark captures the calling thread's current position, to be handed
// to a worker thread the caller is about to spawn.
// If tid has no bound call-graph yet (e.g. called before Init, or from a
// thread that has never measured anything), it returns graph.RootBookmark.
func (b *Binder) Bookmark(tid uint64) graph.Bookmark {
	b.mu.RLock()
	defer b.mu.RUnlock()

	g, ok := b.trees[tid]
	if !ok {
		return graph.RootBookmark
	}

	path := g.CurrentHashPath()
	if len(path) > b.maxBookmarks {
		path = path[len(path)-b.maxBookmarks:]
	}
	return graph.Bookmark{ParentTID: tid, HashPath: path}
}

// GraphFor returns the call-graph bound to tid, creating one lazily on
// first use. bookmark is only used the first time tid is
// seen; a worker spawned before Init still records correctly, with a root
// bookmark.
func (b *Binder) GraphFor(tid uint64, bookmark graph.Bookmark) *graph.CallGraph {
	b.mu.RLock()
	g, ok := b.trees[tid]
	b.mu.RUnlock()
	if ok {
		return g
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if g, ok := b.trees[tid]; ok {
		return g
	}

	g = graph.New(tid, bookmark)
	b.trees[tid] = g
	return g
}

// Threads returns every currently bound thread id, sorted ascending for
// deterministic merge order.
func (b *Binder) Threads() []uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]uint64, 0, len(b.trees))
	for tid := range b.trees {
		ids = append(ids, tid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Graph returns the call-graph for tid without creating one.
func (b *Binder) Graph(tid uint64) (*graph.CallGraph, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	g, ok := b.trees[tid]
	return g, ok
}

// Remove drops tid's call-graph, e.g. after the aggregator has merged and
// cleared it.
func (b *Binder) Remove(tid uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.trees, tid)
}

// Clear discards every bound thread's call-graph.
func (b *Binder) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trees = make(map[uint64]*graph.CallGraph)
}
