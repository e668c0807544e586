package report

import (
	"strconv"

	"github.com/perfgraph/perfgraph/component"
	"github.com/perfgraph/perfgraph/settings"
)

// DefaultPrecision and DefaultFormat set how FormatValue renders a bare
// value. The text reporter does not read them: it takes precision and
// notation from Settings (WithPrecision/WithScientific).
var (
	DefaultPrecision = 6
	DefaultFormat    = "%f"
)

// formatValue renders a single number the way the text reporter needs
// it: fixed-point at the configured precision, or scientific notation
// when Settings asks for it. The JSON reporter writes raw numbers.
func formatValue(v component.Value, cfg *settings.Settings) string {
	precision := cfg.Precision()
	if cfg.Scientific() {
		return strconv.FormatFloat(float64(v), 'e', precision, 64)
	}
	return strconv.FormatFloat(float64(v), 'f', precision, 64)
}

// FormatValue renders v using the package-level DefaultPrecision/
// DefaultFormat, for callers logging a single measurement without a
// Settings instance at hand (e.g. a bare Handle.StopAndRecord() result).
func FormatValue(v component.Value) string {
	if DefaultFormat == "%e" {
		return strconv.FormatFloat(float64(v), 'e', DefaultPrecision, 64)
	}
	return strconv.FormatFloat(float64(v), 'f', DefaultPrecision, 64)
}

// proposeOutputWidth walks the tree once and returns a label column width
// wide enough to hold the longest indented label, floored at the
// configured minimum width, so long labels don't get truncated in the
// text table.
func proposeOutputWidth(roots []labeledNode, minWidth int) int {
	width := minWidth
	for _, r := range roots {
		w := measureWidth(r, 0)
		if w > width {
			width = w
		}
	}
	return width
}

type labeledNode interface {
	nodeLabel() string
	kids() []labeledNode
}

func measureWidth(n labeledNode, depth int) int {
	w := depth*2 + len(n.nodeLabel())
	for _, c := range n.kids() {
		if cw := measureWidth(c, depth+1); cw > w {
			w = cw
		}
	}
	return w
}
