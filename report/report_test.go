package report_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/perfgraph/perfgraph/aggregate"
	"github.com/perfgraph/perfgraph/component"
	"github.com/perfgraph/perfgraph/graph"
	"github.com/perfgraph/perfgraph/registry"
	"github.com/perfgraph/perfgraph/report"
	"github.com/perfgraph/perfgraph/settings"
	"github.com/perfgraph/perfgraph/threadbind"
)

func newComp() component.Component { return component.NewWallComponent() }

func buildResult(t *testing.T) (*aggregate.Result, *registry.Registry) {
	t.Helper()
	r := registry.New()
	b := threadbind.New()
	cfg := settings.New()

	g := b.GraphFor(1, graph.RootBookmark)
	h, err := r.HashOf("region")
	require.NoError(t, err)
	tok := g.Insert(h, graph.TREE, newComp)
	tok.Node().Data.Start()
	tok.Node().Data.Stop()
	g.Pop(tok)

	return aggregate.Finalize(b, r, cfg), r
}

func TestWriteTextContainsLabel(t *testing.T) {
	res, reg := buildResult(t)
	var buf bytes.Buffer
	require.NoError(t, report.WriteText(&buf, res, reg, settings.New()))
	require.True(t, strings.Contains(buf.String(), "region"))
	require.True(t, strings.Contains(buf.String(), "laps=1"))
}

func TestWriteJSONRoundTrips(t *testing.T) {
	res, reg := buildResult(t)
	var buf bytes.Buffer
	require.NoError(t, report.WriteJSON(&buf, res, reg, settings.New()))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	ranks := doc["ranks"].([]any)
	require.Len(t, ranks, 1)
	rank := ranks[0].(map[string]any)
	require.Equal(t, float64(0), rank["tid"])

	graph := rank["graph"].([]any)
	require.Len(t, graph, 1)
	node := graph[0].(map[string]any)
	require.Equal(t, "region", node["label"])
	require.Equal(t, float64(1), node["laps"])
	hash, err := reg.HashOf("region")
	require.NoError(t, err)
	require.Equal(t, float64(uint64(hash)), node["hash"])
}

func TestWriteTextIncludesStdDev(t *testing.T) {
	res, reg := buildResult(t)
	var buf bytes.Buffer
	require.NoError(t, report.WriteText(&buf, res, reg, settings.New()))
	require.True(t, strings.Contains(buf.String(), "stddev="))
}

func TestFormatValueUsesDefaults(t *testing.T) {
	orig := report.DefaultPrecision
	defer func() { report.DefaultPrecision = orig }()

	report.DefaultPrecision = 2
	require.Equal(t, "1.50", report.FormatValue(1.5))
}

func TestWriteJSONWithoutCollapse(t *testing.T) {
	r := registry.New()
	b := threadbind.New()
	cfg := settings.New(settings.WithCollapseThreads(false))
	g := b.GraphFor(7, graph.RootBookmark)
	h, err := r.HashOf("region")
	require.NoError(t, err)
	g.Insert(h, graph.TREE, newComp)

	res := aggregate.Finalize(b, r, cfg)
	var buf bytes.Buffer
	require.NoError(t, report.WriteJSON(&buf, res, r, cfg))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	ranks := doc["ranks"].([]any)
	require.Len(t, ranks, 1)
	rank := ranks[0].(map[string]any)
	require.Equal(t, float64(7), rank["tid"])
}
