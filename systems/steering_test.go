package systems

import (
	"math"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/steady/components"
	"github.com/pthm-cable/steady/config"
	"github.com/pthm-cable/steady/pid"
)

func newHelmWorld(heading, target float64) (*ecs.World, *SteeringSystem, ecs.Entity) {
	w := ecs.NewWorld()
	cfg := config.SteeringConfig{
		PID:         pid.ScalarSettings{ProportionalGain: 1, DerivativeGain: 2, PMax: 180, IMax: 45, DMax: 45},
		MaxRotation: 180,
		WheelGain:   1,
		TurnRate:    30,
	}
	body := components.Body{Mass: 1, Orientation: r3.Vec{Y: heading}}
	helm := components.Helm{TargetHeading: target, Controller: NewHelmController(cfg.PID)}
	e := ecs.NewMap2[components.Body, components.Helm](w).NewEntity(&body, &helm)
	return w, NewSteeringSystem(w, cfg), e
}

func TestSteering_ConvergesOnTarget(t *testing.T) {
	w, s, e := newHelmWorld(0, 90)

	for i := 0; i < 1500; i++ {
		s.Update(0.02)
	}

	heading := ecs.NewMap[components.Body](w).Get(e).Orientation.Y
	if math.Abs(heading-90) > 5 {
		t.Errorf("expected heading near 90 after 30s, got %f", heading)
	}
}

func TestSteering_TurnsShortWayAcrossSeam(t *testing.T) {
	w, s, e := newHelmWorld(170, -170)

	s.Update(0.02)
	s.Update(0.02)

	helm := ecs.NewMap[components.Helm](w).Get(e)
	if helm.Angle <= 0 {
		t.Errorf("expected positive wheel to turn through 180, got %f", helm.Angle)
	}
	if math.Abs(helm.Last.Error+20) > 1e-6 {
		t.Errorf("expected wrapped error -20, got %f", helm.Last.Error)
	}
}

func TestSteering_WheelClamped(t *testing.T) {
	w, s, e := newHelmWorld(0, 90)
	s.Retune(pid.ScalarSettings{ProportionalGain: 100, PMax: 1e6, IMax: 1, DMax: 1})

	s.Update(0.02)
	s.Update(0.02)

	helm := ecs.NewMap[components.Helm](w).Get(e)
	if helm.Angle != 180 {
		t.Errorf("expected wheel at max rotation, got %f", helm.Angle)
	}
}
