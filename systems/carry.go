package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/steady/components"
	"github.com/pthm-cable/steady/config"
	"github.com/pthm-cable/steady/pid"
)

// CarryEvent reports a pickup or drop.
type CarryEvent struct {
	Hand    string
	Target  ecs.Entity
	Grabbed bool // false for a drop
}

// CarrySystem lets hands pick up carryable bodies and pull them to a point
// in front of the hand with a 3D controller.
type CarrySystem struct {
	world     *ecs.World
	hands     ecs.Filter1[components.Carrier]
	carryable ecs.Filter2[components.Body, components.Carryable]
	bodyMap   *ecs.Map[components.Body]
	carryMap  *ecs.Map[components.Carryable]

	cfg      config.CarryConfig
	settings pid.Settings

	events []CarryEvent
}

// NewCarrySystem creates a carry system.
func NewCarrySystem(w *ecs.World, cfg config.CarryConfig) *CarrySystem {
	return &CarrySystem{
		world:     w,
		hands:     *ecs.NewFilter1[components.Carrier](w),
		carryable: *ecs.NewFilter2[components.Body, components.Carryable](w),
		bodyMap:   ecs.NewMap[components.Body](w),
		carryMap:  ecs.NewMap[components.Carryable](w),
		cfg:       cfg,
		settings:  cfg.PID,
	}
}

// Retune changes the controller settings. Hands holding something retune in
// place; later pickups start from the new settings.
func (s *CarrySystem) Retune(settings pid.Settings) {
	s.settings = settings
	query := s.hands.Query()
	for query.Next() {
		hand := query.Get()
		if hand.Controller != nil {
			hand.Controller.Retune(settings)
		}
	}
}

// Settings returns the settings used for new pickups.
func (s *CarrySystem) Settings() pid.Settings {
	return s.settings
}

// Update runs every hand for one step and returns the pickups and drops that
// happened. The returned slice is reused on the next call.
func (s *CarrySystem) Update(dt float64) []CarryEvent {
	s.events = s.events[:0]
	query := s.hands.Query()
	for query.Next() {
		s.updateHand(query.Get(), dt)
	}
	return s.events
}

func (s *CarrySystem) updateHand(hand *components.Carrier, dt float64) {
	if hand.Holding && !s.world.Alive(hand.Target) {
		// Target destroyed while held; require a fresh press
		hand.Holding = false
		hand.Controller = nil
		hand.AllowInput = false
		s.events = append(s.events, CarryEvent{Hand: hand.Name, Target: hand.Target})
	}

	pressed := hand.Trigger > s.cfg.TriggerEpsilon
	if !hand.AllowInput || !pressed {
		if hand.Holding {
			s.drop(hand)
		}
		if !pressed {
			hand.AllowInput = true
		}
		return
	}

	if !hand.Holding {
		s.tryGrab(hand)
		if !hand.Holding {
			return
		}
	}

	body := s.bodyMap.Get(hand.Target)
	carry := s.carryMap.Get(hand.Target)

	setpoint := r3.Add(hand.Attractor, r3.Scale(hand.HoldDistance, hand.Forward))
	pv := carryPoint(body, carry)

	out := hand.Controller.Tick(setpoint, pv)
	body.AddForceAtPosition(r3.Scale(dt, out.Force), pv)

	hand.Setpoint = setpoint
	hand.ProcessValue = pv
	hand.Last = out
}

// tryGrab picks the closest carryable inside the interaction sphere in front
// of the hand that no other hand is holding.
func (s *CarrySystem) tryGrab(hand *components.Carrier) {
	held := s.heldByOthers(hand)
	reach := r3.Add(hand.Attractor, r3.Scale(s.cfg.InteractionRadius, hand.Forward))

	var (
		best     ecs.Entity
		bestDist = math.Inf(1)
		found    bool
	)
	query := s.carryable.Query()
	for query.Next() {
		if held[query.Entity()] {
			continue
		}
		body, carry := query.Get()
		if d := r3.Norm(r3.Sub(carryPoint(body, carry), reach)); d <= s.cfg.InteractionRadius && d < bestDist {
			best, bestDist, found = query.Entity(), d, true
		}
	}
	if !found {
		return
	}

	body := s.bodyMap.Get(best)
	carry := s.carryMap.Get(best)

	hand.Target = best
	hand.Holding = true
	hand.HoldDistance = r3.Norm(r3.Sub(carryPoint(body, carry), hand.Attractor))
	// Fresh controller so the last pickup's integral and derivative don't kick
	hand.Controller = pid.New3D(s.settings)
	hand.OriginalAngularDrag = body.AngularDrag
	body.AngularDrag = s.cfg.CarriedAngularDrag

	s.events = append(s.events, CarryEvent{Hand: hand.Name, Target: best, Grabbed: true})
}

func (s *CarrySystem) heldByOthers(hand *components.Carrier) map[ecs.Entity]bool {
	var held map[ecs.Entity]bool
	query := s.hands.Query()
	for query.Next() {
		other := query.Get()
		if other != hand && other.Holding {
			if held == nil {
				held = make(map[ecs.Entity]bool)
			}
			held[other.Target] = true
		}
	}
	return held
}

func (s *CarrySystem) drop(hand *components.Carrier) {
	if s.world.Alive(hand.Target) {
		s.bodyMap.Get(hand.Target).AngularDrag = hand.OriginalAngularDrag
	}
	hand.Holding = false
	hand.Controller = nil
	s.events = append(s.events, CarryEvent{Hand: hand.Name, Target: hand.Target})
}

// carryPoint is the point the controller pulls: the centre of mass or the
// grab point transformed into world space.
func carryPoint(body *components.Body, carry *components.Carryable) r3.Vec {
	if carry.Mode == components.CarryGrabPoint {
		return body.WorldPoint(carry.LocalPoint)
	}
	return body.Position
}
