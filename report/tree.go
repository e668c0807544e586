package report

import (
	"github.com/perfgraph/perfgraph/graph"
	"github.com/perfgraph/perfgraph/registry"
)

// resolvedNode pairs a graph.Node with its label(s) resolved once up
// front, so both the text and JSON renderers walk the same shape without
// hitting the registry twice per node.
type resolvedNode struct {
	node     *graph.Node
	label    string
	labels   []string
	children []*resolvedNode
}

func resolveTree(n *graph.Node, reg *registry.Registry) *resolvedNode {
	label, _ := reg.LabelFor(n.Hash)
	r := &resolvedNode{
		node:   n,
		label:  label,
		labels: reg.AllLabelsFor(n.Hash),
	}
	for _, c := range n.Children() {
		r.children = append(r.children, resolveTree(c, reg))
	}
	return r
}

func (r *resolvedNode) nodeLabel() string { return r.label }
func (r *resolvedNode) kids() []labeledNode {
	out := make([]labeledNode, len(r.children))
	for i, c := range r.children {
		out[i] = c
	}
	return out
}
