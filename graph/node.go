package graph

import (
	"github.com/perfgraph/perfgraph/component"
	"github.com/perfgraph/perfgraph/registry"
)

// childKey identifies a child within a parent's children map. seq is
// always 0 for TREE and FLAT children (they are looked up and reused by
// hash alone); TIMELINE children carry the call-graph's monotonically
// increasing sequence number so they are never reused.
type childKey struct {
	hash registry.Hash
	seq  uint64
}

// Node is one entry in a per-thread call graph: hash, depth, parent,
// children, data, laps, is_transient, is_flat, is_on_stack, is_running,
// and the id of the thread that created it. Back-references to the
// parent are plain pointers within a single arena-like tree owned
// top-down by the CallGraph that created it: a Node never outlives its
// CallGraph and never owns its parent.
type Node struct {
	Hash   registry.Hash
	Depth  int
	Parent *Node
	Data   component.Component

	IsTransient bool
	IsFlat      bool
	TIDOfCreation uint64

	children map[childKey]*Node
	order    []childEntry

	stackRefs int32
}

// childEntry pairs a child with the key it was attached under, so
// iteration in insertion order (for the reporter and for Merge) doesn't
// need a reverse lookup into the children map.
type childEntry struct {
	key  childKey
	node *Node
}

func newNode(hash registry.Hash, depth int, parent *Node, data component.Component, flat bool, tid uint64) *Node {
	return &Node{
		Hash:          hash,
		Depth:         depth,
		Parent:        parent,
		Data:          data,
		IsFlat:        flat,
		TIDOfCreation: tid,
		children:      make(map[childKey]*Node),
	}
}

// Laps returns the number of completed start/stop cycles recorded on this
// node's Data component.
func (n *Node) Laps() uint64 {
	if n.Data == nil {
		return 0
	}
	return n.Data.Laps()
}

// IsOnStack reports whether this node currently has at least one open
// scoped handle at or below it on the call stack.
func (n *Node) IsOnStack() bool {
	return n.stackRefs > 0
}

// IsRunning reports whether this node's own component is between Start
// and Stop.
func (n *Node) IsRunning() bool {
	return n.Data != nil && n.Data.IsRunning()
}

// Children returns this node's children in stable insertion order, the
// order the reporter traverses in.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.order))
	for i, e := range n.order {
		out[i] = e.node
	}
	return out
}

// ChildByHash looks up a TREE/FLAT child by hash (seq 0), without
// creating one.
func (n *Node) ChildByHash(hash registry.Hash) (*Node, bool) {
	c, ok := n.children[childKey{hash: hash}]
	return c, ok
}

func (n *Node) attach(child *Node, key childKey) {
	n.children[key] = child
	n.order = append(n.order, childEntry{key: key, node: child})
}

// storageData constructs a component via newData and, if it is a
// tag-only marker (ContributesToStorage reports false), discards it:
// the node still occupies its place in the tree, but with a nil Data it
// is skipped by Start/Stop, excluded from merge, and rendered without a
// measurement row.
func storageData(newData func() component.Component) component.Component {
	d := newData()
	if d == nil || !d.ContributesToStorage() {
		return nil
	}
	return d
}

// findOrCreateTreeChild implements the TREE lookup/create rule.
func (n *Node) findOrCreateTreeChild(hash registry.Hash, tid uint64, newData func() component.Component) (*Node, bool) {
	key := childKey{hash: hash}
	if c, ok := n.children[key]; ok {
		return c, true
	}
	c := newNode(hash, n.Depth+1, n, storageData(newData), false, tid)
	n.attach(c, key)
	return c, false
}

// findOrCreateFlatChild implements the FLAT lookup/create rule: always a
// depth-1 child of the root, keyed by hash alone.
func (n *Node) findOrCreateFlatChild(hash registry.Hash, tid uint64, newData func() component.Component) (*Node, bool) {
	key := childKey{hash: hash}
	if c, ok := n.children[key]; ok {
		return c, true
	}
	c := newNode(hash, 1, n, storageData(newData), true, tid)
	n.attach(c, key)
	return c, false
}

// createTimelineChild implements the TIMELINE rule: always a new node,
// keyed by (hash, seq) so it is never reused.
func (n *Node) createTimelineChild(hash registry.Hash, seq uint64, tid uint64, newData func() component.Component) *Node {
	key := childKey{hash: hash, seq: seq}
	c := newNode(hash, n.Depth+1, n, storageData(newData), false, tid)
	n.attach(c, key)
	return c
}

// Merge folds other's Data and laps into n, and recurses into children at
// matching hash paths. Children present only in other are re-parented (a
// deep copy of the subtree) under n. n and other must otherwise be
// structurally compatible (same hash); Merge does not check this since
// the aggregator only ever merges nodes it has already matched by hash
// path.
func (n *Node) Merge(other *Node) {
	if other == nil {
		return
	}
	if n.Data == nil {
		n.Data = other.Data
	} else if other.Data != nil {
		n.Data.Merge(other.Data)
	}
	n.IsTransient = n.IsTransient || other.IsTransient

	for _, oe := range other.order {
		oc, key := oe.node, oe.key

		if key.seq != 0 {
			// TIMELINE children are never reused, even across a merge:
			// re-parent a copy under n with a fresh key so two workers'
			// timelines don't collide.
			clone := oc.deepCopy(n)
			n.attach(clone, childKey{hash: oc.Hash, seq: n.nextSeq()})
			continue
		}

		if existing, ok := n.children[key]; ok {
			existing.Merge(oc)
			continue
		}

		clone := oc.deepCopy(n)
		n.attach(clone, key)
	}
}

// nextSeq derives a fresh sequence number for re-parented TIMELINE
// children during merge, scoped to this node's existing children so it
// never collides with a sibling's key.
func (n *Node) nextSeq() uint64 {
	var max uint64
	for _, e := range n.order {
		if e.key.seq > max {
			max = e.key.seq
		}
	}
	return max + 1
}

// deepCopy clones a subtree under a new parent, for merging a worker's
// node wholesale when the master tree has no corresponding node yet.
func (n *Node) deepCopy(newParent *Node) *Node {
	var data component.Component
	if n.Data != nil {
		data = n.Data.Clone()
		data.Merge(n.Data)
	}

	depth := 0
	if newParent != nil {
		depth = newParent.Depth + 1
	}

	clone := newNode(n.Hash, depth, newParent, data, n.IsFlat, n.TIDOfCreation)
	clone.IsTransient = n.IsTransient

	for _, e := range n.order {
		key := e.key
		childClone := e.node.deepCopy(clone)
		if key.seq != 0 {
			key.seq = clone.nextSeq()
		}
		clone.attach(childClone, key)
	}

	return clone
}
