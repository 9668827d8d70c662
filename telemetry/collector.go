package telemetry

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// controllerWindow accumulates one controller's ticks within a window.
type controllerWindow struct {
	kind      string
	errors    []float64
	saturated int
	forceSum  float64
}

// Collector accumulates tick records within time windows and produces
// per-controller WindowStats.
type Collector struct {
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32
	windows         map[string]*controllerWindow
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int32(1)
	if dt > 0 {
		ticksPerWindow = max(int32(windowDurationSec/dt), 1)
	}

	return &Collector{
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
		windows:             make(map[string]*controllerWindow),
	}
}

// Record adds a tick record to the current window.
func (c *Collector) Record(rec TickRecord) {
	w, ok := c.windows[rec.Controller]
	if !ok {
		w = &controllerWindow{kind: rec.Kind}
		c.windows[rec.Controller] = w
	}
	w.errors = append(w.errors, r3.Norm(rec.ErrorVec()))
	w.forceSum += r3.Norm(rec.ForceVec())
	if rec.Saturated {
		w.saturated++
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces one WindowStats per controller seen in the window, sorted by
// controller name, and starts the next window. Controllers that did not tick
// during the window are omitted.
func (c *Collector) Flush(currentTick int32) []WindowStats {
	names := make([]string, 0, len(c.windows))
	for name, w := range c.windows {
		if len(w.errors) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]WindowStats, 0, len(names))
	for _, name := range names {
		w := c.windows[name]
		n := len(w.errors)
		es := ComputeErrorStats(w.errors)
		out = append(out, WindowStats{
			WindowStartTick: c.windowStartTick,
			WindowEndTick:   currentTick,
			SimTimeSec:      float64(currentTick) * c.dt,
			Controller:      name,
			Kind:            w.kind,
			Ticks:           n,
			ErrRMS:          es.RMS,
			ErrMeanAbs:      es.MeanAbs,
			ErrMax:          es.Max,
			ErrP50:          es.P50,
			ErrP90:          es.P90,
			SaturatedFrac:   float64(w.saturated) / float64(n),
			ForceMean:       w.forceSum / float64(n),
		})
	}

	// Reset for next window, keeping buffers
	c.windowStartTick = currentTick
	for _, w := range c.windows {
		w.errors = w.errors[:0]
		w.saturated = 0
		w.forceSum = 0
	}

	return out
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
