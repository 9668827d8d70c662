// Package sim runs the PID sandbox: a fleet of buoyant ships, scripted hands
// carrying crates and a helm holding a course, all on a fixed step.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/steady/components"
	"github.com/pthm-cable/steady/config"
	"github.com/pthm-cable/steady/systems"
	"github.com/pthm-cable/steady/telemetry"
)

//go:generate mockgen -source=sim.go -destination=mock_sink_test.go -package=sim TickSink

// TickSink receives telemetry as the simulation produces it.
// Calls happen on the simulation goroutine; implementations must not retain
// the slices past the call.
type TickSink interface {
	PublishTicks(tick int32, records []telemetry.TickRecord)
	PublishWindows(stats []telemetry.WindowStats)
}

// Options configures a simulation run.
type Options struct {
	Seed     int64
	LogStats bool // Log window and perf stats via slog

	Output *telemetry.OutputManager // nil disables CSV output
	Trace  *telemetry.TraceWriter   // nil disables the trace DB
	Sinks  []TickSink
}

// Sim owns the world and steps every system in order.
type Sim struct {
	cfg   *config.Config
	world *ecs.World
	rng   *rand.Rand
	seed  int64
	tick  int32

	waves    *systems.WaveField
	buoyancy *systems.BuoyancySystem
	carry    *systems.CarrySystem
	steering *systems.SteeringSystem
	physics  *systems.PhysicsSystem

	ships   ecs.Filter3[components.Tag, components.Body, components.Buoyant]
	helms   ecs.Filter3[components.Tag, components.Body, components.Helm]
	crates  ecs.Filter3[components.Tag, components.Body, components.Carryable]
	carrier ecs.Filter1[components.Carrier]
	handMap *ecs.Map[components.Carrier]

	scripts []*HandScript
	names   map[string]string // controller name -> kind

	// Telemetry
	collector   *telemetry.Collector
	perf        *telemetry.PerfCollector
	fingerprint *telemetry.Fingerprint
	output      *telemetry.OutputManager
	trace       *telemetry.TraceWriter
	sinks       []TickSink
	logStats    bool
	records     []telemetry.TickRecord
	lastWindows []telemetry.WindowStats
	bookmarks   *telemetry.BookmarkDetector
	marks       []telemetry.Bookmark

	retuneMu sync.Mutex
	retunes  []Retune

	snapshot atomic.Pointer[Snapshot]
}

// New builds the world from cfg and spawns the scenario.
func New(cfg *config.Config, opts Options) *Sim {
	world := ecs.NewWorld()

	s := &Sim{
		cfg:         cfg,
		world:       world,
		rng:         rand.New(rand.NewSource(opts.Seed)),
		seed:        opts.Seed,
		waves:       systems.NewWaveField(opts.Seed, cfg.Waves),
		ships:       *ecs.NewFilter3[components.Tag, components.Body, components.Buoyant](world),
		helms:       *ecs.NewFilter3[components.Tag, components.Body, components.Helm](world),
		crates:      *ecs.NewFilter3[components.Tag, components.Body, components.Carryable](world),
		carrier:     *ecs.NewFilter1[components.Carrier](world),
		handMap:     ecs.NewMap[components.Carrier](world),
		names:       make(map[string]string),
		collector:   telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Physics.DT),
		perf:        telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		fingerprint: telemetry.NewFingerprint(),
		bookmarks:   telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistory, cfg.Telemetry.SettleRMS),
		output:      opts.Output,
		trace:       opts.Trace,
		sinks:       opts.Sinks,
		logStats:    opts.LogStats,
	}
	s.buoyancy = systems.NewBuoyancySystem(world, s.waves, cfg.Buoyancy.ParallelThreshold)
	s.carry = systems.NewCarrySystem(world, cfg.Carry)
	s.steering = systems.NewSteeringSystem(world, cfg.Steering)
	s.physics = systems.NewPhysicsSystem(world, cfg.Physics.Gravity, cfg.Physics.Floor)

	s.spawnScenario()
	s.publishSnapshot()

	return s
}

// Tick returns the number of completed steps.
func (s *Sim) Tick() int32 {
	return s.tick
}

// Time returns the simulation time in seconds.
func (s *Sim) Time() float64 {
	return float64(s.tick) * s.cfg.Physics.DT
}

// Seed returns the RNG seed the world was built with.
func (s *Sim) Seed() int64 {
	return s.seed
}

// World exposes the ECS world for rendering. Callers must not mutate it
// while Step runs.
func (s *Sim) World() *ecs.World {
	return s.world
}

// Fingerprint returns the running hash of every controller force.
func (s *Sim) Fingerprint() *telemetry.Fingerprint {
	return s.fingerprint
}

// Perf returns the step timing collector.
func (s *Sim) Perf() *telemetry.PerfCollector {
	return s.perf
}

// Step advances the simulation one fixed step.
func (s *Sim) Step(ctx context.Context) error {
	dt := s.cfg.Physics.DT
	t := s.Time()

	s.perf.StartTick()

	s.perf.StartPhase(telemetry.PhaseRetune)
	s.applyRetunes()

	s.perf.StartPhase(telemetry.PhaseInput)
	s.driveInputs(t)

	s.perf.StartPhase(telemetry.PhaseBuoyancy)
	if err := s.buoyancy.Update(ctx, t, dt); err != nil {
		return fmt.Errorf("buoyancy step %d: %w", s.tick, err)
	}

	s.perf.StartPhase(telemetry.PhaseCarry)
	for _, ev := range s.carry.Update(dt) {
		slog.Debug("carry", "hand", ev.Hand, "grabbed", ev.Grabbed, "tick", s.tick)
	}

	s.perf.StartPhase(telemetry.PhaseSteering)
	s.steering.Update(dt)

	s.perf.StartPhase(telemetry.PhasePhysics)
	s.physics.Update(dt)

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	if err := s.recordTelemetry(t); err != nil {
		return err
	}

	s.perf.EndTick()
	s.tick++

	s.flushTelemetry()
	s.publishSnapshot()
	if s.cfg.Derived.LogIntervalTicks > 0 && s.tick%s.cfg.Derived.LogIntervalTicks == 0 {
		s.logWorldState()
	}
	return nil
}

// Run steps until ctx is cancelled or maxTicks steps have run (0 = no limit).
func (s *Sim) Run(ctx context.Context, maxTicks int32) error {
	for maxTicks <= 0 || s.tick < maxTicks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Step(ctx); err != nil {
			return err
		}
	}
	slog.Info("max ticks reached", "tick", s.tick)
	return nil
}
