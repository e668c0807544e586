package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/perfgraph/perfgraph/aggregate"
	"github.com/perfgraph/perfgraph/component"
	"github.com/perfgraph/perfgraph/registry"
	"github.com/perfgraph/perfgraph/settings"
)

// WriteText renders result as an indented, column-aligned text table:
// one row per node, DFS pre-order, indentation showing nesting the way a
// call-graph profiler's console output traditionally does.
func WriteText(w io.Writer, result *aggregate.Result, reg *registry.Registry, cfg *settings.Settings) error {
	trees := rootTrees(result, reg)

	labeled := make([]labeledNode, len(trees))
	for i, t := range trees {
		labeled[i] = t.tree
	}
	width := proposeOutputWidth(labeled, cfg.Width())

	var b strings.Builder
	for _, t := range trees {
		if t.threadID != nil {
			fmt.Fprintf(&b, "thread %d:\n", *t.threadID)
		}
		// t.tree is the synthetic, unlabeled root; only its children are
		// real measured regions.
		for _, c := range t.tree.children {
			writeTextNode(&b, c, 0, width, cfg)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeTextNode(b *strings.Builder, n *resolvedNode, depth int, width int, cfg *settings.Settings) {
	indent := strings.Repeat("  ", depth)
	label := indent + n.label
	if len(n.labels) > 1 {
		label += fmt.Sprintf(" (+%d collided)", len(n.labels)-1)
	}

	unit := ""
	category := ""
	current := ""
	accumulated := ""
	mean := ""
	stddev := ""
	if n.node.Data != nil {
		unit = string(n.node.Data.Unit())
		category = n.node.Data.Category().String()
		current = formatValue(n.node.Data.Current(), cfg)
		accumulated = formatValue(n.node.Data.Accumulated(), cfg)
		stddev = formatValue(n.node.Data.StdDev(), cfg)
		if n.node.Laps() > 0 {
			mean = formatValue(n.node.Data.Accumulated()/component.Value(n.node.Laps()), cfg)
		}
	}

	fmt.Fprintf(b, "%-*s laps=%-6d category=%-9s current=%-14s mean=%-14s sum=%-14s stddev=%-14s %s\n",
		width, label, n.node.Laps(), category, current, mean, accumulated, stddev, unit)

	for _, c := range n.children {
		writeTextNode(b, c, depth+1, width, cfg)
	}
}

type rootTree struct {
	threadID *uint64
	tree     *resolvedNode
}

// rootTrees normalizes an aggregate.Result into an ordered slice of trees
// to render: the collapsed master alone, or every surviving thread's root
// sorted by id.
func rootTrees(result *aggregate.Result, reg *registry.Registry) []rootTree {
	if result.Master != nil {
		return []rootTree{{tree: resolveTree(result.Master, reg)}}
	}

	tids := make([]uint64, 0, len(result.Roots))
	for tid := range result.Roots {
		tids = append(tids, tid)
	}
	sort.Slice(tids, func(i, j int) bool { return tids[i] < tids[j] })

	out := make([]rootTree, 0, len(tids))
	for _, tid := range tids {
		tid := tid
		out = append(out, rootTree{threadID: &tid, tree: resolveTree(result.Roots[tid], reg)})
	}
	return out
}
