package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/steady/components"
	"github.com/pthm-cable/steady/config"
	"github.com/pthm-cable/steady/pid"
)

// SteeringSystem turns each helm's wheel toward its target heading with a
// scalar controller and yaws the ship in proportion to the wheel.
type SteeringSystem struct {
	filter ecs.Filter2[components.Body, components.Helm]
	cfg    config.SteeringConfig
}

// NewSteeringSystem creates a steering system.
func NewSteeringSystem(w *ecs.World, cfg config.SteeringConfig) *SteeringSystem {
	return &SteeringSystem{
		filter: *ecs.NewFilter2[components.Body, components.Helm](w),
		cfg:    cfg,
	}
}

// NewHelmController builds the controller a helm uses. The derivative wraps
// so a heading crossing ±180 doesn't spike the wheel.
func NewHelmController(settings pid.ScalarSettings) *pid.Controller {
	return pid.New(settings, pid.WithDerivative(pid.WrappedAngleDerivative{}))
}

// Update steers every helm for one step.
func (s *SteeringSystem) Update(dt float64) {
	query := s.filter.Query()
	for query.Next() {
		body, helm := query.Get()

		target := helm.TargetHeading
		heading := body.Orientation.Y
		// Measure along the short way round so the error stays within ±180
		pv := target + pid.WrapDegrees(heading-target)

		out := helm.Controller.Tick(target, pv)
		helm.Angle = pid.ClampScalar(out.Force*s.cfg.WheelGain, -s.cfg.MaxRotation, s.cfg.MaxRotation)
		helm.Last = out

		if s.cfg.MaxRotation > 0 {
			yawRate := helm.Angle / s.cfg.MaxRotation * s.cfg.TurnRate
			body.Orientation.Y = pid.WrapDegrees(heading + yawRate*dt)
		}
	}
}

// Retune changes every helm's controller settings in place.
func (s *SteeringSystem) Retune(settings pid.ScalarSettings) {
	s.cfg.PID = settings
	query := s.filter.Query()
	for query.Next() {
		_, helm := query.Get()
		helm.Controller.Retune(settings)
	}
}
