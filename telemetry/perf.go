package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase is one stage of a simulation step.
type Phase int

const (
	PhaseRetune Phase = iota
	PhaseInput
	PhaseBuoyancy
	PhaseCarry
	PhaseSteering
	PhasePhysics
	PhaseTelemetry
	numPhases

	noPhase Phase = -1
)

var phaseNames = [numPhases]string{
	"retune", "input", "buoyancy", "carry", "steering", "physics", "telemetry",
}

func (p Phase) String() string {
	if p < 0 || p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// Phases lists the step phases in execution order.
var Phases = []Phase{
	PhaseRetune, PhaseInput, PhaseBuoyancy, PhaseCarry,
	PhaseSteering, PhasePhysics, PhaseTelemetry,
}

// ControllerPhase returns the phase in which controllers of kind tick.
func ControllerPhase(kind string) (Phase, bool) {
	switch kind {
	case KindBuoyancy:
		return PhaseBuoyancy, true
	case KindCarry:
		return PhaseCarry, true
	case KindSteering:
		return PhaseSteering, true
	}
	return noPhase, false
}

// stepSample is the timing of one step. Fixed arrays keep StartTick and
// EndTick allocation free.
type stepSample struct {
	total       time.Duration
	phase       [numPhases]time.Duration
	controllers [numPhases]int
}

// PerfCollector times simulation steps phase by phase over a rolling window
// and relates phase time to the number of controllers ticked in it.
type PerfCollector struct {
	ring   []stepSample
	next   int
	filled int

	cur        stepSample
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase

	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize steps.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		ring:  make([]stepSample, windowSize),
		phase: noPhase,
	}
}

// StartTick begins timing a step.
func (p *PerfCollector) StartTick() {
	p.cur = stepSample{}
	p.tickStart = time.Now()
	p.phase = noPhase
}

// StartPhase closes the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phase = phase
	p.phaseStart = now
}

// CountControllers records n controller ticks in phase for the current step.
func (p *PerfCollector) CountControllers(phase Phase, n int) {
	if phase < 0 || phase >= numPhases {
		return
	}
	p.cur.controllers[phase] += n
}

// EndTick closes the running phase and stores the step in the window.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.tickStart)
	p.push(p.cur)
}

func (p *PerfCollector) push(s stepSample) {
	p.ring[p.next] = s
	p.next = (p.next + 1) % len(p.ring)
	p.filled = min(p.filled+1, len(p.ring))
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase >= 0 && p.phase < numPhases {
		p.cur.phase[p.phase] += now.Sub(p.phaseStart)
	}
	p.phase = noPhase
}

// RecordFrame marks a rendered frame; the viewer calls it once per frame.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PhaseStats is the window average of one phase.
type PhaseStats struct {
	Phase         Phase
	Avg           time.Duration
	Share         float64       // Fraction of the average step
	Controllers   float64       // Controller ticks per step
	PerController time.Duration // Phase time per controller tick; 0 when none ran
}

// PerfStats summarizes the window.
type PerfStats struct {
	Steps          int
	AvgTick        time.Duration
	P50Tick        time.Duration
	P95Tick        time.Duration
	MaxTick        time.Duration
	TicksPerSecond float64

	Phases []PhaseStats // Indexed by Phase

	FrameDuration time.Duration
	FPS           float64
}

// Phase returns the stats of one phase, or zero stats for an unknown phase.
func (s PerfStats) Phase(p Phase) PhaseStats {
	if p < 0 || int(p) >= len(s.Phases) {
		return PhaseStats{Phase: p}
	}
	return s.Phases[p]
}

// Stats computes the window summary.
func (p *PerfCollector) Stats() PerfStats {
	st := PerfStats{
		Steps:         p.filled,
		Phases:        make([]PhaseStats, numPhases),
		FrameDuration: p.frame,
	}
	if p.frame > 0 {
		st.FPS = float64(time.Second) / float64(p.frame)
	}
	for _, ph := range Phases {
		st.Phases[ph].Phase = ph
	}
	if p.filled == 0 {
		return st
	}

	var (
		total     time.Duration
		phaseSum  [numPhases]time.Duration
		ctrlCount [numPhases]int
	)
	durations := make([]float64, p.filled)
	for i, sample := range p.ring[:p.filled] {
		durations[i] = float64(sample.total)
		total += sample.total
		for ph := range phaseSum {
			phaseSum[ph] += sample.phase[ph]
			ctrlCount[ph] += sample.controllers[ph]
		}
	}
	sort.Float64s(durations)

	n := time.Duration(p.filled)
	st.AvgTick = total / n
	st.P50Tick = time.Duration(stat.Quantile(0.5, stat.Empirical, durations, nil))
	st.P95Tick = time.Duration(stat.Quantile(0.95, stat.Empirical, durations, nil))
	st.MaxTick = time.Duration(durations[len(durations)-1])
	if st.AvgTick > 0 {
		st.TicksPerSecond = float64(time.Second) / float64(st.AvgTick)
	}

	for ph := range st.Phases {
		ps := &st.Phases[ph]
		ps.Avg = phaseSum[ph] / n
		if st.AvgTick > 0 {
			ps.Share = float64(ps.Avg) / float64(st.AvgTick)
		}
		ps.Controllers = float64(ctrlCount[ph]) / float64(p.filled)
		if ctrlCount[ph] > 0 {
			ps.PerController = phaseSum[ph] / time.Duration(ctrlCount[ph])
		}
	}
	return st
}

// LogStats logs the window summary. Phases under 0.1% of the step are
// left out.
func (s PerfStats) LogStats() {
	attrs := []any{
		"steps", s.Steps,
		"avg_tick_us", s.AvgTick.Microseconds(),
		"p95_tick_us", s.P95Tick.Microseconds(),
		"max_tick_us", s.MaxTick.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for _, ps := range s.Phases {
		if ps.Share < 0.001 {
			continue
		}
		attrs = append(attrs, ps.Phase.String()+"_pct", float64(int(ps.Share*1000))/10)
		if ps.PerController > 0 {
			attrs = append(attrs, ps.Phase.String()+"_per_ctrl_ns", ps.PerController.Nanoseconds())
		}
	}
	slog.Info("perf", attrs...)
}

// PerfRow is one line of perf.csv. Each window writes a "step" row with whole
// step timing followed by one row per phase.
type PerfRow struct {
	WindowEnd       int32   `csv:"window_end"`
	Phase           string  `csv:"phase"`
	AvgUS           float64 `csv:"avg_us"`
	Share           float64 `csv:"share"`
	Controllers     float64 `csv:"controllers"`
	PerControllerUS float64 `csv:"per_controller_us"`
	P95US           float64 `csv:"p95_us"`
	TicksPerSec     float64 `csv:"ticks_per_sec"`
	FPS             float64 `csv:"fps"`
}

// Rows flattens the stats for perf.csv.
func (s PerfStats) Rows(windowEnd int32) []PerfRow {
	rows := make([]PerfRow, 0, len(s.Phases)+1)
	rows = append(rows, PerfRow{
		WindowEnd:   windowEnd,
		Phase:       "step",
		AvgUS:       micros(s.AvgTick),
		Share:       1,
		P95US:       micros(s.P95Tick),
		TicksPerSec: s.TicksPerSecond,
		FPS:         s.FPS,
	})
	for _, ps := range s.Phases {
		rows = append(rows, PerfRow{
			WindowEnd:       windowEnd,
			Phase:           ps.Phase.String(),
			AvgUS:           micros(ps.Avg),
			Share:           ps.Share,
			Controllers:     ps.Controllers,
			PerControllerUS: micros(ps.PerController),
		})
	}
	return rows
}

func micros(d time.Duration) float64 {
	return float64(d) / float64(time.Microsecond)
}
