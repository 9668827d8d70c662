package systems

import (
	"context"
	"runtime"

	"github.com/mlange-42/ark/ecs"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/steady/components"
	"github.com/pthm-cable/steady/pid"
)

// buoyancyJob is one ship gathered for the tick.
type buoyancyJob struct {
	body *components.Body
	buoy *components.Buoyant
}

// BuoyancySystem holds every ship at its wave-driven setpoint with its own
// 3D controller and rocks it with the wave torque.
type BuoyancySystem struct {
	filter ecs.Filter2[components.Body, components.Buoyant]
	waves  *WaveField

	parallelThreshold int
	numWorkers        int
	jobs              []buoyancyJob
}

// NewBuoyancySystem creates a buoyancy system. Fleets of at least
// parallelThreshold ships are ticked on worker goroutines; zero disables
// parallel ticking.
func NewBuoyancySystem(w *ecs.World, waves *WaveField, parallelThreshold int) *BuoyancySystem {
	return &BuoyancySystem{
		filter:            *ecs.NewFilter2[components.Body, components.Buoyant](w),
		waves:             waves,
		parallelThreshold: parallelThreshold,
		numWorkers:        runtime.GOMAXPROCS(0),
		jobs:              make([]buoyancyJob, 0, 64),
	}
}

// Update ticks every ship's controller for simulation time t and applies the
// dt-scaled force and rocking torque.
func (s *BuoyancySystem) Update(ctx context.Context, t, dt float64) error {
	s.jobs = s.jobs[:0]
	query := s.filter.Query()
	for query.Next() {
		body, buoy := query.Get()
		s.jobs = append(s.jobs, buoyancyJob{body: body, buoy: buoy})
	}

	rocking := r3.Scale(dt, s.waves.Rocking(t))

	if s.parallelThreshold <= 0 || len(s.jobs) < s.parallelThreshold {
		for i := range s.jobs {
			s.tickShip(&s.jobs[i], rocking, t, dt)
		}
		return nil
	}

	// Each ship owns its controller and body, so chunks never share state
	g, ctx := errgroup.WithContext(ctx)
	chunk := (len(s.jobs) + s.numWorkers - 1) / s.numWorkers
	for start := 0; start < len(s.jobs); start += chunk {
		end := min(start+chunk, len(s.jobs))
		jobs := s.jobs[start:end]
		g.Go(func() error {
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					return err
				}
				s.tickShip(&jobs[i], rocking, t, dt)
			}
			return nil
		})
	}
	return g.Wait()
}

// Retune changes every ship's controller settings in place.
func (s *BuoyancySystem) Retune(settings pid.Settings) {
	query := s.filter.Query()
	for query.Next() {
		_, buoy := query.Get()
		buoy.Controller.Retune(settings)
	}
}

func (s *BuoyancySystem) tickShip(j *buoyancyJob, rocking r3.Vec, t, dt float64) {
	j.body.AddRelativeTorque(rocking)

	setpoint := r3.Add(j.buoy.Anchor, r3.Vec{Y: s.waves.Height(t, j.buoy.Phase)})
	out := j.buoy.Controller.Tick(setpoint, j.body.Position)
	j.body.AddForce(r3.Scale(dt, out.Force))

	j.buoy.Setpoint = setpoint
	j.buoy.Last = out
}
