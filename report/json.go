package report

import (
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/perfgraph/perfgraph/aggregate"
	"github.com/perfgraph/perfgraph/registry"
	"github.com/perfgraph/perfgraph/settings"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonNode is the wire schema for one call-graph entry: hash, label,
// depth, laps, value/accum/min/max/stddev, unit and children. Field
// names are stable across releases; new fields should be additive.
type jsonNode struct {
	Hash        uint64          `json:"hash"`
	Label       string          `json:"label"`
	Labels      []string        `json:"labels,omitempty"`
	Depth       int             `json:"depth"`
	Laps        uint64          `json:"laps"`
	Category    string          `json:"category,omitempty"`
	Value       float64         `json:"value"`
	Accum       float64         `json:"accum"`
	Mean        float64         `json:"mean,omitempty"`
	Min         float64         `json:"min,omitempty"`
	Max         float64         `json:"max,omitempty"`
	StdDev      float64         `json:"stddev,omitempty"`
	Unit        string          `json:"unit,omitempty"`
	IsTransient bool            `json:"is_transient,omitempty"`
	Secondary   []jsonSecondary `json:"secondary,omitempty"`
	Children    []*jsonNode     `json:"children,omitempty"`
}

type jsonSecondary struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// jsonRank is one rank's (thread's) call graph. When collapse_threads
// folded every thread into one master tree there is exactly one rank,
// with tid 0 standing in for the collapsed set rather than any single
// real thread id.
type jsonRank struct {
	TID   uint64      `json:"tid"`
	Graph []*jsonNode `json:"graph"`
}

// jsonDocument is the top-level object WriteJSON emits: a list of
// per-rank call graphs.
type jsonDocument struct {
	Ranks []jsonRank `json:"ranks"`
}

// WriteJSON renders result in the schema jsonDocument describes.
func WriteJSON(w io.Writer, result *aggregate.Result, reg *registry.Registry, cfg *settings.Settings) error {
	trees := rootTrees(result, reg)

	doc := jsonDocument{Ranks: make([]jsonRank, 0, len(trees))}
	for _, t := range trees {
		var tid uint64
		if t.threadID != nil {
			tid = *t.threadID
		}
		nodes := make([]*jsonNode, 0, len(t.tree.children))
		for _, c := range t.tree.children {
			nodes = append(nodes, toJSONNode(c))
		}
		doc.Ranks = append(doc.Ranks, jsonRank{TID: tid, Graph: nodes})
	}

	enc := jsonAPI.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func toJSONNode(n *resolvedNode) *jsonNode {
	out := &jsonNode{
		Hash:        uint64(n.node.Hash),
		Label:       n.label,
		Depth:       n.node.Depth,
		Laps:        n.node.Laps(),
		IsTransient: n.node.IsTransient,
	}
	if len(n.labels) > 1 {
		out.Labels = n.labels
	}
	if d := n.node.Data; d != nil {
		out.Category = d.Category().String()
		out.Unit = string(d.Unit())
		out.Value = float64(d.Current())
		out.Accum = float64(d.Accumulated())
		if laps := n.node.Laps(); laps > 0 {
			out.Mean = float64(d.Accumulated()) / float64(laps)
		}
		out.Min = float64(d.Min())
		out.Max = float64(d.Max())
		out.StdDev = float64(d.StdDev())
		for _, s := range d.Secondary() {
			out.Secondary = append(out.Secondary, jsonSecondary{Label: s.Label, Value: float64(s.Value)})
		}
	}
	for _, c := range n.children {
		out.Children = append(out.Children, toJSONNode(c))
	}
	return out
}
