package component

import "time"

// clock keeps the last time it returned and advances it by time.Since on
// each call, so every call still reads the monotonic clock.
type clock struct {
	last time.Time
}

func (c *clock) now() time.Time {
	if c.last.IsZero() {
		c.last = time.Now()
		return c.last
	}
	c.last = c.last.Add(time.Since(c.last))
	return c.last
}

// WallComponent measures wall-clock elapsed time per lap.
type WallComponent struct {
	base
	clock clock
	start time.Time
}

var _ Component = (*WallComponent)(nil)

// NewWallComponent returns a fresh wall-clock component reporting seconds.
func NewWallComponent() *WallComponent {
	return &WallComponent{}
}

func (w *WallComponent) Start() {
	if w.running {
		warnDoubleStart("wall")
		return
	}
	w.running = true
	w.start = w.clock.now()
}

func (w *WallComponent) Stop() {
	if !w.running {
		return
	}
	delta := Value(w.clock.now().Sub(w.start).Seconds())
	w.running = false
	w.recordSample(delta)
}

func (w *WallComponent) Record() Value { return w.current }

func (w *WallComponent) Merge(other Component) {
	o, ok := other.(*WallComponent)
	if !ok {
		return
	}
	w.mergeBase(&o.base)
}

func (w *WallComponent) Reset() {
	w.reset()
	w.start = time.Time{}
}

func (w *WallComponent) Category() Category             { return CategoryTiming }
func (w *WallComponent) Unit() Unit                      { return "sec" }
func (w *WallComponent) ContributesToStorage() bool      { return true }
func (w *WallComponent) Secondary() []SecondaryEntry     { return nil }
func (w *WallComponent) Display() string                 { return formatDuration(w.current, w.Unit()) }
func (w *WallComponent) Clone() Component                { return NewWallComponent() }

// Mean returns the average lap duration.
func (w *WallComponent) Mean() Value { return mean(w.accumulated, w.laps) }
