// Package settings implements the enumerated Settings surface every
// other perfgraph package consults. It is grounded on timer/config.go's
// functional Option pattern for construction, generalized to the full
// option table, with atomics for flag-shaped values and a mutex for
// strings on the shared Settings object.
package settings

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/perfgraph/perfgraph/graph"
	"github.com/perfgraph/perfgraph/internal/log"
	"github.com/perfgraph/perfgraph/perferrors"
)

// TimingUnit and MemoryUnit select the display scale for rendering.
type TimingUnit string

const (
	TimingSeconds      TimingUnit = "sec"
	TimingMilliseconds TimingUnit = "ms"
	TimingMicroseconds TimingUnit = "us"
	TimingNanoseconds  TimingUnit = "ns"
)

func validTimingUnit(u TimingUnit) bool {
	switch u {
	case TimingSeconds, TimingMilliseconds, TimingMicroseconds, TimingNanoseconds:
		return true
	default:
		return false
	}
}

// Settings is the read-mostly, process-wide configuration object every
// other perfgraph package consults.
type Settings struct {
	enabled         atomic.Bool
	maxDepth        atomic.Int64 // <0 unlimited
	flatProfile     atomic.Bool
	timelineProfile atomic.Bool

	collapseThreads    atomic.Bool
	collapseProcesses  atomic.Bool
	maxThreadBookmarks atomic.Int64

	precision  atomic.Int64
	width      atomic.Int64
	scientific atomic.Bool

	stackClearing atomic.Bool

	mu           sync.RWMutex
	timingUnits  TimingUnit
	memoryUnits  string
	outputPath   string
	outputPrefix string

	verbosity atomic.Int64 // log.Level
}

// Option configures a Settings at construction time, in the shape of
// timer.Option (timer/config.go).
type Option func(*Settings)

func WithEnabled(v bool) Option { return func(s *Settings) { s.enabled.Store(v) } }

func WithMaxDepth(n int) Option {
	return func(s *Settings) { s.SetMaxDepth(n) }
}

func WithFlatProfile() Option {
	return func(s *Settings) { s.flatProfile.Store(true) }
}

func WithTimelineProfile() Option {
	return func(s *Settings) { s.timelineProfile.Store(true) }
}

func WithCollapseThreads(v bool) Option {
	return func(s *Settings) { s.collapseThreads.Store(v) }
}

func WithCollapseProcesses(v bool) Option {
	return func(s *Settings) { s.collapseProcesses.Store(v) }
}

func WithMaxThreadBookmarks(n int) Option {
	return func(s *Settings) { s.maxThreadBookmarks.Store(int64(n)) }
}

func WithPrecision(n int) Option {
	return func(s *Settings) { s.precision.Store(int64(n)) }
}

func WithWidth(n int) Option {
	return func(s *Settings) { s.width.Store(int64(n)) }
}

func WithScientific(v bool) Option {
	return func(s *Settings) { s.scientific.Store(v) }
}

func WithTimingUnits(u TimingUnit) Option {
	return func(s *Settings) { s.SetTimingUnits(u) }
}

func WithMemoryUnits(u string) Option {
	return func(s *Settings) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.memoryUnits = u
	}
}

func WithStackClearing(v bool) Option {
	return func(s *Settings) { s.stackClearing.Store(v) }
}

func WithOutputPath(p string) Option {
	return func(s *Settings) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.outputPath = p
	}
}

func WithOutputPrefix(p string) Option {
	return func(s *Settings) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.outputPrefix = p
	}
}

// New returns Settings with sensible defaults: enabled, no depth limit,
// TREE scope, threads collapsed at finalize, 6-digit precision,
// seconds/KB units, output under "./perfgraph-output/".
func New(opts ...Option) *Settings {
	s := &Settings{}
	s.enabled.Store(true)
	s.maxDepth.Store(-1)
	s.collapseThreads.Store(true)
	s.maxThreadBookmarks.Store(64)
	s.precision.Store(6)
	s.width.Store(10)
	s.timingUnits = TimingSeconds
	s.memoryUnits = "KB"
	s.outputPath = "./perfgraph-output/"
	s.outputPrefix = "perfgraph-"
	s.verbosity.Store(int64(log.LevelWarning))

	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Settings) Enabled() bool     { return s.enabled.Load() }
func (s *Settings) SetEnabled(v bool) { s.enabled.Store(v) }

// MaxDepth returns -1 for "unlimited".
func (s *Settings) MaxDepth() int { return int(s.maxDepth.Load()) }

// SetMaxDepth rejects a negative-but-not-sentinel value as a
// ConfigurationError and falls back to unlimited.
func (s *Settings) SetMaxDepth(n int) {
	if n < -1 {
		log.Logf(log.LevelWarning, "settings", "invalid max_depth %d, falling back to unlimited", n)
		s.maxDepth.Store(-1)
		return
	}
	s.maxDepth.Store(int64(n))
}

// DefaultScopeMode reflects the flat_profile / timeline_profile keys: at
// most one of them should be set; if both are, flat wins and a
// ConfigurationError is logged.
func (s *Settings) DefaultScopeMode() graph.Mode {
	flat := s.flatProfile.Load()
	timeline := s.timelineProfile.Load()
	if flat && timeline {
		log.Logf(log.LevelWarning, "settings", "both flat_profile and timeline_profile set, using flat_profile")
		return graph.FLAT
	}
	if flat {
		return graph.FLAT
	}
	if timeline {
		return graph.TIMELINE
	}
	return graph.TREE
}

func (s *Settings) SetFlatProfile(v bool)     { s.flatProfile.Store(v) }
func (s *Settings) SetTimelineProfile(v bool) { s.timelineProfile.Store(v) }

func (s *Settings) CollapseThreads() bool     { return s.collapseThreads.Load() }
func (s *Settings) SetCollapseThreads(v bool) { s.collapseThreads.Store(v) }

func (s *Settings) CollapseProcesses() bool     { return s.collapseProcesses.Load() }
func (s *Settings) SetCollapseProcesses(v bool) { s.collapseProcesses.Store(v) }

func (s *Settings) MaxThreadBookmarks() int { return int(s.maxThreadBookmarks.Load()) }
func (s *Settings) SetMaxThreadBookmarks(n int) {
	if n <= 0 {
		log.Logf(log.LevelWarning, "settings", "invalid max_thread_bookmarks %d, falling back to 64", n)
		n = 64
	}
	s.maxThreadBookmarks.Store(int64(n))
}

func (s *Settings) Precision() int { return int(s.precision.Load()) }
func (s *Settings) SetPrecision(n int) {
	if n < 0 {
		n = 6
	}
	s.precision.Store(int64(n))
}

func (s *Settings) Width() int { return int(s.width.Load()) }
func (s *Settings) SetWidth(n int) {
	if n < 0 {
		n = 10
	}
	s.width.Store(int64(n))
}

func (s *Settings) Scientific() bool     { return s.scientific.Load() }
func (s *Settings) SetScientific(v bool) { s.scientific.Store(v) }

func (s *Settings) StackClearing() bool     { return s.stackClearing.Load() }
func (s *Settings) SetStackClearing(v bool) { s.stackClearing.Store(v) }

func (s *Settings) TimingUnits() TimingUnit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timingUnits
}

// SetTimingUnits validates against the enumerated unit set; an
// unrecognized value falls back to seconds.
func (s *Settings) SetTimingUnits(u TimingUnit) {
	if !validTimingUnit(u) {
		log.Logf(log.LevelWarning, "settings", "invalid timing_units %q, falling back to sec", u)
		u = TimingSeconds
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timingUnits = u
}

func (s *Settings) MemoryUnits() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.memoryUnits
}

func (s *Settings) OutputPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outputPath
}

func (s *Settings) OutputPrefix() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outputPrefix
}

func (s *Settings) Verbosity() log.Level { return log.Level(s.verbosity.Load()) }
func (s *Settings) SetVerbosity(l log.Level) {
	s.verbosity.Store(int64(l))
	log.SetLevel(l)
}

// newConfigError builds the error a caller can inspect when a setter's
// fallback should be surfaced as more than a log line, e.g. Init raising
// a non-fatal warning flag for the host to query.
func newConfigError(setting, detail string) *perferrors.Error {
	return perferrors.New(perferrors.ConfigurationError, setting+": "+detail)
}
