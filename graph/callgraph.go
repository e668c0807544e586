package graph

import (
	"go.uber.org/atomic"

	"github.com/perfgraph/perfgraph/component"
	"github.com/perfgraph/perfgraph/registry"
)

// Bookmark is the (parent-thread-id, hash-path) recorded at worker
// creation, so the worker's sub-tree can later be stitched under the
// parent's cursor node during aggregation.
type Bookmark struct {
	ParentTID uint64
	HashPath  []registry.Hash
}

// RootBookmark is used for threads with no known parent context, e.g. a
// worker spawned before Init or one whose parent node was cleared before
// merge.
var RootBookmark = Bookmark{}

// Token is returned by Insert and must be passed to the matching Pop.
// Insert/Pop pair up by the token returned from Insert, not by naive
// stack depth, so a mismatched or skipped Pop stays a safe no-op: Token
// carries the exact Node a Pop must retire.
type Token struct {
	node    *Node
	skipped bool
}

// Node returns the Node this token addresses, or nil if the insertion was
// skipped (disabled store or depth overflow).
func (t Token) Node() *Node {
	return t.node
}

// Skipped reports whether the Insert that produced this token was a
// no-op.
func (t Token) Skipped() bool {
	return t.skipped
}

// NewComponentFunc creates a fresh Component instance for a newly created
// node. The CallGraph does not know which measurement kind a caller wants;
// it is supplied per-insertion.
type NewComponentFunc func() component.Component

// CallGraph is the per-thread rooted tree of Nodes plus a cursor
// identifying where the next insertion attaches. A CallGraph is owned by
// exactly one OS thread and is never shared; all of its methods assume
// single-threaded use by that owner.
type CallGraph struct {
	TID      uint64
	Bookmark Bookmark

	Root   *Node
	cursor *Node

	sequence uint64

	enabled  atomic.Bool
	maxDepth atomic.Int64 // <0 means unlimited
}

// unlimitedDepth is the sentinel max-depth value meaning "no limit".
const unlimitedDepth = -1

// New creates an empty, enabled call graph for the given thread, with no
// depth limit. The root node is created lazily on first Insert.
func New(tid uint64, bookmark Bookmark) *CallGraph {
	g := &CallGraph{TID: tid, Bookmark: bookmark}
	g.enabled.Store(true)
	g.maxDepth.Store(unlimitedDepth)
	return g
}

// Enable toggles insertion/pop for this store. When disabled, Insert and
// Pop are no-ops and no nodes are created.
func (g *CallGraph) Enable(v bool) {
	g.enabled.Store(v)
}

func (g *CallGraph) Enabled() bool {
	return g.enabled.Load()
}

// SetMaxDepth rejects further insertions at depth > n until reset. n < 0
// means unlimited; n == 0 disables all storage.
func (g *CallGraph) SetMaxDepth(n int) {
	if n < 0 {
		g.maxDepth.Store(unlimitedDepth)
		return
	}
	g.maxDepth.Store(int64(n))
}

func (g *CallGraph) MaxDepth() int {
	d := g.maxDepth.Load()
	if d < 0 {
		return unlimitedDepth
	}
	return int(d)
}

func (g *CallGraph) depthAllowed(depth int) bool {
	max := g.maxDepth.Load()
	if max < 0 {
		return true
	}
	return int64(depth) <= max
}

func (g *CallGraph) ensureRoot() {
	if g.Root == nil {
		g.Root = newNode(0, 0, nil, nil, false, g.TID)
		g.cursor = g.Root
	}
}

// Cursor returns the node the next Insert will attach relative to.
func (g *CallGraph) Cursor() *Node {
	return g.cursor
}

// Insert navigates from the current cursor according to mode, creating a
// node if needed, and returns a Token identifying it. If the store is
// disabled or the insertion would exceed the configured max depth, the
// cursor is not advanced and the returned Token is a no-op: the paired
// Pop must likewise be a no-op.
func (g *CallGraph) Insert(hash registry.Hash, mode Mode, newData NewComponentFunc) Token {
	if !g.enabled.Load() {
		return Token{skipped: true}
	}

	// The depth check must run against the would-be insertion depth
	// before Root is materialized: a max_depth of 0 means no storage at
	// all, not an empty Root node with every insertion under it skipped.
	cursorDepth := 0
	if g.cursor != nil {
		cursorDepth = g.cursor.Depth
	}

	var (
		node   *Node
		exists bool
	)

	switch mode {
	case FLAT:
		if !g.depthAllowed(1) {
			return Token{skipped: true}
		}
		g.ensureRoot()
		node, exists = g.Root.findOrCreateFlatChild(hash, g.TID, newData)
	case TIMELINE:
		if !g.depthAllowed(cursorDepth + 1) {
			return Token{skipped: true}
		}
		g.ensureRoot()
		g.sequence++
		node = g.cursor.createTimelineChild(hash, g.sequence, g.TID, newData)
	default: // TREE
		if !g.depthAllowed(cursorDepth + 1) {
			return Token{skipped: true}
		}
		g.ensureRoot()
		node, exists = g.cursor.findOrCreateTreeChild(hash, g.TID, newData)
	}

	if exists {
		node.IsTransient = true
	}

	for n := node; n != nil; n = n.Parent {
		n.stackRefs++
	}
	g.cursor = node

	return Token{node: node}
}

// Pop moves the cursor to the parent of the current node, clearing
// is_on_stack on every node from the popped node up to the root iff no
// other live handle still references it. A Pop with no matching Insert
// (because of depth overflow or a disabled store) is a no-op.
func (g *CallGraph) Pop(tok Token) {
	if tok.skipped || tok.node == nil {
		return
	}

	node := tok.node
	for n := node; n != nil; n = n.Parent {
		n.stackRefs--
	}

	if g.cursor == node {
		if node.Parent != nil {
			g.cursor = node.Parent
		} else {
			g.cursor = g.Root
		}
	}
}

// ForceClose stops n's component if still running and pops it, for a
// handle whose owner never called Stop. Used by the aggregator's
// stack_clearing path, which closes every still-open handle in LIFO
// order at finalize time.
func (g *CallGraph) ForceClose(n *Node) {
	if n == nil {
		return
	}
	if n.Data != nil && n.Data.IsRunning() {
		n.Data.Stop()
	}
	g.Pop(Token{node: n})
}

// OpenHandles reports the chain of nodes currently on the stack, root
// first, leaf last -- used by the aggregator's stack_clearing path
// to close outstanding handles in LIFO order.
func (g *CallGraph) OpenHandles() []*Node {
	if g.cursor == nil || g.cursor == g.Root {
		if g.Root != nil && g.Root.IsOnStack() {
			return []*Node{g.Root}
		}
		return nil
	}

	var chain []*Node
	for n := g.cursor; n != nil; n = n.Parent {
		chain = append([]*Node{n}, chain...)
	}
	return chain
}

// CurrentHashPath returns the hash path from root to the current cursor,
// used to compute a bookmark for a worker thread spawned from here.
func (g *CallGraph) CurrentHashPath() []registry.Hash {
	if g.cursor == nil {
		return nil
	}
	var path []registry.Hash
	for n := g.cursor; n != nil && n.Parent != nil; n = n.Parent {
		path = append([]registry.Hash{n.Hash}, path...)
	}
	return path
}
