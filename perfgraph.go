// Package perfgraph is a hierarchical, low-overhead call-graph
// instrumentation library: scoped measurement handles insert nodes into
// a per-thread tree keyed by label, threads bind lazily on first use,
// and Finalize stitches every thread's tree into a single reportable
// graph.
//
// The package-level functions operate on a default Library the way the
// standard library's log package operates on a default Logger; embed
// your own Library when you need more than one independent instrumented
// region in the same process.
package perfgraph

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/perfgraph/perfgraph/aggregate"
	"github.com/perfgraph/perfgraph/component"
	"github.com/perfgraph/perfgraph/graph"
	"github.com/perfgraph/perfgraph/internal/log"
	"github.com/perfgraph/perfgraph/perferrors"
	"github.com/perfgraph/perfgraph/registry"
	"github.com/perfgraph/perfgraph/report"
	"github.com/perfgraph/perfgraph/scope"
	"github.com/perfgraph/perfgraph/settings"
	"github.com/perfgraph/perfgraph/threadbind"
)

// Library owns one instrumented region: a label registry, one call
// graph per thread, and the settings governing both.
type Library struct {
	reg    *registry.Registry
	binder *threadbind.Binder
	cfg    *settings.Settings
}

// New returns a ready-to-use Library.
func New(opts ...settings.Option) *Library {
	cfg := settings.New(opts...)
	log.SetLevel(cfg.Verbosity())
	binder := threadbind.New()
	binder.SetMaxBookmarks(cfg.MaxThreadBookmarks())
	return &Library{
		reg:    registry.New(),
		binder: binder,
		cfg:    cfg,
	}
}

func (l *Library) Settings() *settings.Settings { return l.cfg }

func (l *Library) Enable(v bool)   { l.cfg.SetEnabled(v) }
func (l *Library) IsEnabled() bool { return l.cfg.Enabled() }

func (l *Library) SetMaxDepth(n int) { l.cfg.SetMaxDepth(n) }

func (l *Library) GetMaxDepth() int { return l.cfg.MaxDepth() }

// SpawnBookmark captures the calling thread's current position, to be
// handed to BindThread on a worker the caller is about to launch.
func (l *Library) SpawnBookmark() graph.Bookmark {
	return l.binder.Bookmark(threadbind.CurrentThreadID())
}

// BindThread associates the calling thread with bookmark before its
// first measurement, so the worker's subtree stitches under the
// spawning thread's cursor at Finalize. Calling it after the thread has
// already measured something has no effect.
func (l *Library) BindThread(bookmark graph.Bookmark) {
	l.binder.GraphFor(threadbind.CurrentThreadID(), bookmark)
}

// graphForCurrentThread returns the calling thread's call graph, synced
// with the library-wide enabled flag and depth limit: a thread that
// starts measuring after Enable(false) or SetMaxDepth is called still
// picks up the current setting on its first Insert.
func (l *Library) graphForCurrentThread() *graph.CallGraph {
	tid := threadbind.CurrentThreadID()
	g := l.binder.GraphFor(tid, graph.RootBookmark)
	g.Enable(l.cfg.Enabled())
	g.SetMaxDepth(l.cfg.MaxDepth())
	return g
}

// measureConfig collects Measure's optional knobs.
type measureConfig struct {
	mode         graph.Mode
	newComponent graph.NewComponentFunc
}

// MeasureOption customizes a single Measure/Timer call.
type MeasureOption func(*measureConfig)

// WithScopeMode overrides the Settings-derived default scope mode for
// this one measurement.
func WithScopeMode(m graph.Mode) MeasureOption {
	return func(c *measureConfig) { c.mode = m }
}

// WithComponentFunc supplies a component other than the default
// wall-clock timer, e.g. an application counter or a CPU/memory sampler.
func WithComponentFunc(newComponent graph.NewComponentFunc) MeasureOption {
	return func(c *measureConfig) { c.newComponent = newComponent }
}

// Measure opens a scoped measurement for label on the calling thread's
// call graph. The returned handle must be stopped, typically via
// `defer h.Stop()`.
func (l *Library) Measure(label string, opts ...MeasureOption) *scope.Handle {
	mc := measureConfig{
		mode:         l.cfg.DefaultScopeMode(),
		newComponent: func() component.Component { return component.NewWallComponent() },
	}
	for _, o := range opts {
		o(&mc)
	}

	g := l.graphForCurrentThread()
	h, err := scope.Begin(l.reg, g, label, mc.mode, mc.newComponent)
	if err != nil {
		log.Logf(log.LevelWarning, "perfgraph", "Measure(%q): %s", label, err)
	}
	return h
}

// Timer is Measure with the default wall-clock component; the common
// case of timing a region.
func (l *Library) Timer(label string, opts ...MeasureOption) *scope.Handle {
	return l.Measure(label, opts...)
}

// Finalize merges every bound thread's call graph into a single
// reportable Result and clears the thread bindings.
func (l *Library) Finalize() *aggregate.Result {
	return aggregate.Finalize(l.binder, l.reg, l.cfg)
}

// Report finalizes and writes a text report to w.
func (l *Library) Report(w io.Writer) error {
	res := l.Finalize()
	return report.WriteText(w, res, l.reg, l.cfg)
}

// WriteJSON finalizes and writes a JSON report to w.
func (l *Library) WriteJSON(w io.Writer) error {
	res := l.Finalize()
	return report.WriteJSON(w, res, l.reg, l.cfg)
}

// WriteReportFile finalizes and writes a text report under Settings'
// output_path/output_prefix. If the file can't be opened, it logs an
// IOError and falls back to stdout rather than losing the report.
func (l *Library) WriteReportFile() error {
	res := l.Finalize()
	return l.writeToFile(res, "txt", func(w io.Writer, res *aggregate.Result) error {
		return report.WriteText(w, res, l.reg, l.cfg)
	})
}

// WriteJSONFile is WriteReportFile's JSON counterpart.
func (l *Library) WriteJSONFile() error {
	res := l.Finalize()
	return l.writeToFile(res, "json", func(w io.Writer, res *aggregate.Result) error {
		return report.WriteJSON(w, res, l.reg, l.cfg)
	})
}

func (l *Library) writeToFile(res *aggregate.Result, ext string, write func(io.Writer, *aggregate.Result) error) error {
	path := filepath.Join(l.cfg.OutputPath(), l.cfg.OutputPrefix()+"report."+ext)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Logf(log.LevelWarning, "perfgraph", "%s, writing to stdout", perferrors.Wrap(perferrors.IOError, "creating output directory", err))
		return write(os.Stdout, res)
	}

	f, err := os.Create(path)
	if err != nil {
		log.Logf(log.LevelWarning, "perfgraph", "%s, writing to stdout", perferrors.Wrap(perferrors.IOError, "opening "+path, err))
		return write(os.Stdout, res)
	}
	defer f.Close()

	return write(f, res)
}

// Clear discards every registered label and thread binding, but
// preserves Settings, so a long-running host can start a new
// measurement window without re-configuring the library.
func (l *Library) Clear() {
	l.binder.Clear()
	l.reg.Clear()
}

var (
	defaultMu      sync.RWMutex
	defaultLibrary = New()
)

func defaultLib() *Library {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLibrary
}

// Init (re)configures the default Library. Existing measurements on the
// prior default are discarded.
func Init(opts ...settings.Option) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLibrary = New(opts...)
}

func Enable(v bool)     { defaultLib().Enable(v) }
func IsEnabled() bool   { return defaultLib().IsEnabled() }
func SetMaxDepth(n int) { defaultLib().SetMaxDepth(n) }
func GetMaxDepth() int  { return defaultLib().GetMaxDepth() }

func SpawnBookmark() graph.Bookmark { return defaultLib().SpawnBookmark() }
func BindThread(b graph.Bookmark)   { defaultLib().BindThread(b) }

func Measure(label string, opts ...MeasureOption) *scope.Handle {
	return defaultLib().Measure(label, opts...)
}
func Timer(label string, opts ...MeasureOption) *scope.Handle {
	return defaultLib().Timer(label, opts...)
}

func Finalize() *aggregate.Result { return defaultLib().Finalize() }
func Report(w io.Writer) error    { return defaultLib().Report(w) }
func WriteJSON(w io.Writer) error { return defaultLib().WriteJSON(w) }
func WriteReportFile() error      { return defaultLib().WriteReportFile() }
func WriteJSONFile() error        { return defaultLib().WriteJSONFile() }
func Clear()                      { defaultLib().Clear() }
