package component

// ReadFunc samples an external counter (a PAPI hardware counter, a CUDA
// event count, an application-defined tally). perfgraph ships no PAPI or
// CUDA binding itself; those are external Component capability
// collaborators, so CounterComponent is the pluggable seam a caller
// wires a real counter source into.
type ReadFunc func() Value

// CounterComponent measures the delta of an arbitrary monotonically
// increasing external counter across a lap.
type CounterComponent struct {
	base
	name  string
	unit  Unit
	read  ReadFunc
	start Value
}

var _ Component = (*CounterComponent)(nil)

// NewCounterComponent wires an external counter source. If read is nil the
// component always reports zero, which is still useful as a tag-only
// marker (see ContributesToStorage).
func NewCounterComponent(name string, unit Unit, read ReadFunc) *CounterComponent {
	return &CounterComponent{name: name, unit: unit, read: read}
}

func (c *CounterComponent) sample() Value {
	if c.read == nil {
		return 0
	}
	return c.read()
}

func (c *CounterComponent) Start() {
	if c.running {
		warnDoubleStart(c.name)
		return
	}
	c.running = true
	c.start = c.sample()
}

func (c *CounterComponent) Stop() {
	if !c.running {
		return
	}
	delta := c.sample() - c.start
	c.running = false
	c.recordSample(delta)
}

func (c *CounterComponent) Record() Value { return c.current }

func (c *CounterComponent) Merge(other Component) {
	o, ok := other.(*CounterComponent)
	if !ok {
		return
	}
	c.mergeBase(&o.base)
}

func (c *CounterComponent) Reset() {
	c.reset()
	c.start = 0
}

func (c *CounterComponent) Category() Category         { return CategoryOther }
func (c *CounterComponent) Unit() Unit                 { return c.unit }
func (c *CounterComponent) ContributesToStorage() bool { return c.read != nil }
func (c *CounterComponent) Secondary() []SecondaryEntry { return nil }

func (c *CounterComponent) Display() string {
	return formatDuration(c.current, c.unit)
}

func (c *CounterComponent) Clone() Component {
	return NewCounterComponent(c.name, c.unit, c.read)
}
