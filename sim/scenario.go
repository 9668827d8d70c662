package sim

import (
	"fmt"
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/steady/components"
	"github.com/pthm-cable/steady/config"
	"github.com/pthm-cable/steady/pid"
	"github.com/pthm-cable/steady/systems"
	"github.com/pthm-cable/steady/telemetry"
)

// HelmName is the controller name of the flagship's helm.
const HelmName = "helm"

// HandScript drives a hand without VR input: the trigger goes down at GrabAt,
// the hand sweeps its facing while held and lets go at ReleaseAt.
type HandScript struct {
	Hand      ecs.Entity
	GrabAt    float64
	ReleaseAt float64 // 0 = hold forever
	SweepRate float64 // Degrees per second about the vertical axis

	baseForward r3.Vec
}

// Trigger returns the trigger value at time t.
func (h *HandScript) Trigger(t float64) float64 {
	if t < h.GrabAt {
		return 0
	}
	if h.ReleaseAt > 0 && t >= h.ReleaseAt {
		return 0
	}
	return 1
}

// Forward returns the facing direction at time t.
func (h *HandScript) Forward(t float64) r3.Vec {
	if h.SweepRate == 0 || t < h.GrabAt {
		return h.baseForward
	}
	held := t - h.GrabAt
	if h.ReleaseAt > 0 {
		held = math.Min(held, h.ReleaseAt-h.GrabAt)
	}
	// Sweep back and forth within ±45 degrees
	angle := 45 * math.Sin(held*h.SweepRate/45)
	rot := r3.NewRotation(angle*math.Pi/180, r3.Vec{Y: 1})
	return rot.Rotate(h.baseForward)
}

// Heading returns the course heading in effect at time t: the last leg that
// has started. Before the first leg, the first leg's heading applies.
func Heading(course []config.CourseLeg, t float64) float64 {
	if len(course) == 0 {
		return 0
	}
	heading := course[0].Heading
	for _, leg := range course {
		if leg.At <= t {
			heading = leg.Heading
		}
	}
	return heading
}

func vec3(v []float64) r3.Vec {
	var out r3.Vec
	if len(v) > 0 {
		out.X = v[0]
	}
	if len(v) > 1 {
		out.Y = v[1]
	}
	if len(v) > 2 {
		out.Z = v[2]
	}
	return out
}

func normalize(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n == 0 {
		return r3.Vec{Z: 1}
	}
	return r3.Scale(1/n, v)
}

// spawnScenario creates the fleet, the helm, the hands and the crates.
func (s *Sim) spawnScenario() {
	cfg := s.cfg
	phys := cfg.Physics

	shipMapper := ecs.NewMap3[components.Tag, components.Body, components.Buoyant](s.world)
	flagshipMapper := ecs.NewMap4[components.Tag, components.Body, components.Buoyant, components.Helm](s.world)

	cols := int(math.Ceil(math.Sqrt(float64(cfg.Buoyancy.Ships))))
	for i := 0; i < cfg.Buoyancy.Ships; i++ {
		anchor := r3.Vec{
			X: float64(i%cols) * cfg.Buoyancy.Spacing,
			Z: float64(i/cols) * cfg.Buoyancy.Spacing,
		}
		tag := components.Tag{Name: fmt.Sprintf("ship-%d", i)}
		body := components.Body{
			Position:    r3.Add(anchor, r3.Vec{Y: s.rng.Float64()*2 - 1}),
			Mass:        phys.Mass,
			Drag:        phys.LinearDrag,
			AngularDrag: phys.AngularDrag,
			UseGravity:  true,
		}
		buoy := components.Buoyant{
			Anchor:     anchor,
			Phase:      s.rng.Float64() * 100,
			Controller: pid.New3D(cfg.Buoyancy.PID),
		}
		s.names[tag.Name] = telemetry.KindBuoyancy

		if i == 0 {
			helm := components.Helm{
				TargetHeading: Heading(cfg.Steering.Course, 0),
				Controller:    systems.NewHelmController(cfg.Steering.PID),
			}
			flagshipMapper.NewEntity(&tag, &body, &buoy, &helm)
			s.names[HelmName] = telemetry.KindSteering
			continue
		}
		shipMapper.NewEntity(&tag, &body, &buoy)
	}

	handMapper := ecs.NewMap1[components.Carrier](s.world)
	for _, hc := range cfg.Carry.Hands {
		forward := normalize(vec3(hc.Forward))
		hand := components.Carrier{
			Name:       hc.Name,
			Attractor:  vec3(hc.Position),
			Forward:    forward,
			AllowInput: true,
		}
		e := handMapper.NewEntity(&hand)
		s.scripts = append(s.scripts, &HandScript{
			Hand:        e,
			GrabAt:      hc.GrabAt,
			ReleaseAt:   hc.ReleaseAt,
			SweepRate:   hc.SweepRate,
			baseForward: forward,
		})
		s.names[hc.Name] = telemetry.KindCarry
	}

	// Crates sit on the deck in a row across the first hand's reach
	var reach r3.Vec
	if len(cfg.Carry.Hands) > 0 {
		hc := cfg.Carry.Hands[0]
		reach = r3.Add(vec3(hc.Position), r3.Scale(cfg.Carry.InteractionRadius, normalize(vec3(hc.Forward))))
	}
	crateMapper := ecs.NewMap3[components.Tag, components.Body, components.Carryable](s.world)
	for i := 0; i < cfg.Carry.Crates; i++ {
		tag := components.Tag{Name: fmt.Sprintf("crate-%d", i)}
		offset := float64(i) - float64(cfg.Carry.Crates-1)/2
		body := components.Body{
			Position:    r3.Vec{X: reach.X + offset*1.5, Y: phys.Floor, Z: reach.Z},
			Mass:        phys.Mass,
			Drag:        phys.LinearDrag,
			AngularDrag: phys.AngularDrag,
			UseGravity:  true,
			Floored:     true,
		}
		carry := components.Carryable{Mode: components.CarryCentre}
		if i%2 == 1 {
			carry = components.Carryable{Mode: components.CarryGrabPoint, LocalPoint: r3.Vec{Y: 0.25}}
		}
		crateMapper.NewEntity(&tag, &body, &carry)
	}
}

// driveInputs applies the hand scripts and the helm course for time t.
func (s *Sim) driveInputs(t float64) {
	for _, script := range s.scripts {
		if !s.world.Alive(script.Hand) {
			continue
		}
		hand := s.handMap.Get(script.Hand)
		hand.Trigger = script.Trigger(t)
		hand.Forward = script.Forward(t)
	}

	heading := Heading(s.cfg.Steering.Course, t)
	query := s.helms.Query()
	for query.Next() {
		_, _, helm := query.Get()
		helm.TargetHeading = heading
	}
}
