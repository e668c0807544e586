package component

import (
	"os"
	"sync"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/perfgraph/perfgraph/internal/log"
)

// selfProcess is a lazily-created, process-wide handle to the current
// process, shared by every CPUComponent and MemoryComponent instance since
// gopsutil re-reads /proc on every call and there's nothing per-node to
// cache besides the pid.
var (
	selfOnce sync.Once
	self     *process.Process
)

func selfProc() *process.Process {
	selfOnce.Do(func() {
		p, err := process.NewProcess(int32(os.Getpid()))
		if err != nil {
			log.Logf(log.LevelError, "component", "failed to open self process handle: %s", err)
			return
		}
		self = p
	})
	return self
}

// CPUComponent measures process CPU time (user+system) consumed during a
// lap, read via gopsutil's cross-platform process.Times.
type CPUComponent struct {
	base
	start Value
}

var _ Component = (*CPUComponent)(nil)

func NewCPUComponent() *CPUComponent {
	return &CPUComponent{}
}

func cpuSecondsNow() Value {
	p := selfProc()
	if p == nil {
		return 0
	}
	times, err := p.Times()
	if err != nil {
		log.Logf(log.LevelWarning, "component", "cpu times unavailable: %s", err)
		return 0
	}
	return Value(times.User + times.System)
}

func (c *CPUComponent) Start() {
	if c.running {
		warnDoubleStart("cpu")
		return
	}
	c.running = true
	c.start = cpuSecondsNow()
}

func (c *CPUComponent) Stop() {
	if !c.running {
		return
	}
	delta := cpuSecondsNow() - c.start
	if delta < 0 {
		delta = 0
	}
	c.running = false
	c.recordSample(delta)
}

func (c *CPUComponent) Record() Value { return c.current }

func (c *CPUComponent) Merge(other Component) {
	o, ok := other.(*CPUComponent)
	if !ok {
		return
	}
	c.mergeBase(&o.base)
}

func (c *CPUComponent) Reset() {
	c.reset()
	c.start = 0
}

func (c *CPUComponent) Category() Category         { return CategoryTiming }
func (c *CPUComponent) Unit() Unit                 { return "sec" }
func (c *CPUComponent) ContributesToStorage() bool { return true }
func (c *CPUComponent) Secondary() []SecondaryEntry { return nil }
func (c *CPUComponent) Display() string            { return formatDuration(c.current, c.Unit()) }
func (c *CPUComponent) Clone() Component           { return NewCPUComponent() }
