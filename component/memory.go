package component

import (
	"fmt"

	"github.com/perfgraph/perfgraph/internal/log"
)

// MemoryUnit selects the display scale for MemoryComponent, mirroring
// the memory_units Settings key.
type MemoryUnit string

const (
	MemoryUnitBytes MemoryUnit = "B"
	MemoryUnitKB    MemoryUnit = "KB"
	MemoryUnitMB    MemoryUnit = "MB"
	MemoryUnitGB    MemoryUnit = "GB"
)

func (u MemoryUnit) scale() float64 {
	switch u {
	case MemoryUnitKB:
		return 1024
	case MemoryUnitMB:
		return 1024 * 1024
	case MemoryUnitGB:
		return 1024 * 1024 * 1024
	default:
		return 1
	}
}

// MemoryComponent measures the change in resident set size (RSS) across a
// lap, read via gopsutil's process.MemoryInfo.
type MemoryComponent struct {
	base
	unit  MemoryUnit
	start Value
}

var _ Component = (*MemoryComponent)(nil)

func NewMemoryComponent(unit MemoryUnit) *MemoryComponent {
	if unit == "" {
		unit = MemoryUnitKB
	}
	return &MemoryComponent{unit: unit}
}

func rssBytesNow() Value {
	p := selfProc()
	if p == nil {
		return 0
	}
	info, err := p.MemoryInfo()
	if err != nil || info == nil {
		log.Logf(log.LevelWarning, "component", "rss unavailable: %s", err)
		return 0
	}
	return Value(info.RSS)
}

func (m *MemoryComponent) Start() {
	if m.running {
		warnDoubleStart("memory")
		return
	}
	m.running = true
	m.start = rssBytesNow()
}

func (m *MemoryComponent) Stop() {
	if !m.running {
		return
	}
	delta := rssBytesNow() - m.start
	m.running = false
	m.recordSample(delta)
}

func (m *MemoryComponent) Record() Value { return m.current }

func (m *MemoryComponent) Merge(other Component) {
	o, ok := other.(*MemoryComponent)
	if !ok {
		return
	}
	m.mergeBase(&o.base)
}

func (m *MemoryComponent) Reset() {
	m.reset()
	m.start = 0
}

func (m *MemoryComponent) Category() Category         { return CategoryMemory }
func (m *MemoryComponent) Unit() Unit                 { return Unit(m.unit) }
func (m *MemoryComponent) ContributesToStorage() bool { return true }
func (m *MemoryComponent) Secondary() []SecondaryEntry { return nil }

func (m *MemoryComponent) Display() string {
	return fmt.Sprintf("%.3f %s", float64(m.current)/m.unit.scale(), m.unit)
}

func (m *MemoryComponent) Clone() Component { return NewMemoryComponent(m.unit) }
