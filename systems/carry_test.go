package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/steady/components"
	"github.com/pthm-cable/steady/config"
	"github.com/pthm-cable/steady/pid"
)

type carryFixture struct {
	world  *ecs.World
	sys    *CarrySystem
	hand   ecs.Entity
	crate  ecs.Entity
	hands  *ecs.Map[components.Carrier]
	bodies *ecs.Map[components.Body]
}

func newCarryFixture(t *testing.T, mode components.CarryMode) *carryFixture {
	t.Helper()
	w := ecs.NewWorld()
	cfg := config.CarryConfig{
		PID:                pid.Uniform(1, 0, 0, 100, 100, 100),
		InteractionRadius:  2,
		CarriedAngularDrag: 3,
		TriggerEpsilon:     0.0001,
	}

	hand := components.Carrier{Name: "left", Forward: r3.Vec{Z: 1}, AllowInput: true}
	handEnt := ecs.NewMap1[components.Carrier](w).NewEntity(&hand)

	body := components.Body{Position: r3.Vec{Z: 3}, Mass: 1, AngularDrag: 0.5}
	carry := components.Carryable{Mode: mode, LocalPoint: r3.Vec{Y: 0.5}}
	crateEnt := ecs.NewMap2[components.Body, components.Carryable](w).NewEntity(&body, &carry)

	return &carryFixture{
		world:  w,
		sys:    NewCarrySystem(w, cfg),
		hand:   handEnt,
		crate:  crateEnt,
		hands:  ecs.NewMap[components.Carrier](w),
		bodies: ecs.NewMap[components.Body](w),
	}
}

func (f *carryFixture) setTrigger(v float64) {
	f.hands.Get(f.hand).Trigger = v
}

func TestCarry_NoGrabWithoutTrigger(t *testing.T) {
	f := newCarryFixture(t, components.CarryCentre)

	events := f.sys.Update(0.02)

	if len(events) != 0 {
		t.Errorf("expected no events, got %v", events)
	}
	if f.hands.Get(f.hand).Holding {
		t.Error("hand should not hold without trigger")
	}
}

func TestCarry_GrabsAndPulls(t *testing.T) {
	f := newCarryFixture(t, components.CarryCentre)
	f.setTrigger(1)

	events := f.sys.Update(0.5)
	if len(events) != 1 || !events[0].Grabbed || events[0].Target != f.crate {
		t.Fatalf("expected one grab event for the crate, got %v", events)
	}

	hand := f.hands.Get(f.hand)
	if !hand.Holding || hand.HoldDistance != 3 {
		t.Fatalf("expected holding at distance 3, got holding=%v distance=%f", hand.Holding, hand.HoldDistance)
	}
	if f.bodies.Get(f.crate).AngularDrag != 3 {
		t.Errorf("carried angular drag not applied")
	}

	// Move the crate off the carry point; the priming tick gave no force
	body := f.bodies.Get(f.crate)
	if body.Force != (r3.Vec{}) {
		t.Errorf("priming tick applied force %v", body.Force)
	}
	body.Position = r3.Vec{X: 1, Z: 3}
	f.sys.Update(0.5)

	// error (1,0,0), P 1, force -1 scaled by dt
	if !vecNear(body.Force, r3.Vec{X: -0.5}, eps) {
		t.Errorf("expected force (-0.5,0,0), got %v", body.Force)
	}
}

func TestCarry_ReleaseRestoresDrag(t *testing.T) {
	f := newCarryFixture(t, components.CarryCentre)
	f.setTrigger(1)
	f.sys.Update(0.02)

	f.setTrigger(0)
	events := f.sys.Update(0.02)

	if len(events) != 1 || events[0].Grabbed {
		t.Fatalf("expected one drop event, got %v", events)
	}
	hand := f.hands.Get(f.hand)
	if hand.Holding || hand.Controller != nil {
		t.Error("hand still holding after release")
	}
	if f.bodies.Get(f.crate).AngularDrag != 0.5 {
		t.Errorf("angular drag not restored, got %f", f.bodies.Get(f.crate).AngularDrag)
	}
}

func TestCarry_NewControllerPerPickup(t *testing.T) {
	f := newCarryFixture(t, components.CarryCentre)
	f.setTrigger(1)
	f.sys.Update(0.02)
	first := f.hands.Get(f.hand).Controller

	f.setTrigger(0)
	f.sys.Update(0.02)
	f.setTrigger(1)
	f.sys.Update(0.02)

	second := f.hands.Get(f.hand).Controller
	if second == nil || second == first {
		t.Fatal("expected a fresh controller on the second pickup")
	}
	if second.Ticks() != 1 {
		t.Errorf("fresh controller should have one tick, got %d", second.Ticks())
	}
}

func TestCarry_DestroyedTargetNeedsFreshPress(t *testing.T) {
	f := newCarryFixture(t, components.CarryCentre)
	f.setTrigger(1)
	f.sys.Update(0.02)

	f.world.RemoveEntity(f.crate)
	body := components.Body{Position: r3.Vec{Z: 3}, Mass: 1}
	carry := components.Carryable{}
	ecs.NewMap2[components.Body, components.Carryable](f.world).NewEntity(&body, &carry)

	events := f.sys.Update(0.02)
	if len(events) != 1 || events[0].Grabbed {
		t.Fatalf("expected a drop for the destroyed target, got %v", events)
	}
	if f.hands.Get(f.hand).Holding {
		t.Fatal("hand still holding a destroyed target")
	}

	// Trigger still down: no grab until it is let go
	if events := f.sys.Update(0.02); len(events) != 0 {
		t.Errorf("grabbed without a fresh press: %v", events)
	}
	f.setTrigger(0)
	f.sys.Update(0.02)
	f.setTrigger(1)
	if events := f.sys.Update(0.02); len(events) != 1 || !events[0].Grabbed {
		t.Errorf("expected a grab after a fresh press, got %v", events)
	}
}

func TestCarry_GrabPointMode(t *testing.T) {
	f := newCarryFixture(t, components.CarryGrabPoint)
	f.setTrigger(1)
	f.sys.Update(0.02)

	hand := f.hands.Get(f.hand)
	if !hand.Holding {
		t.Fatal("expected grab")
	}
	want := r3.Vec{Y: 0.5, Z: 3}
	if !vecNear(hand.ProcessValue, want, eps) {
		t.Errorf("expected process value at grab point %v, got %v", want, hand.ProcessValue)
	}
}

func TestCarry_OutOfRangeIgnored(t *testing.T) {
	f := newCarryFixture(t, components.CarryCentre)
	f.bodies.Get(f.crate).Position = r3.Vec{Z: 10}
	f.setTrigger(1)

	if events := f.sys.Update(0.02); len(events) != 0 {
		t.Errorf("grabbed an out of range crate: %v", events)
	}
}

func TestCarry_SkipsCrateHeldByOtherHand(t *testing.T) {
	f := newCarryFixture(t, components.CarryCentre)
	f.setTrigger(1)
	f.sys.Update(0.02)
	if !f.hands.Get(f.hand).Holding {
		t.Fatal("first hand should hold the nearest crate")
	}

	// A second hand in the same spot; the nearest crate is taken, a free
	// one sits further out but still inside the interaction sphere
	right := components.Carrier{Name: "right", Forward: r3.Vec{Z: 1}, AllowInput: true, Trigger: 1}
	rightEnt := ecs.NewMap1[components.Carrier](f.world).NewEntity(&right)
	free := components.Body{Position: r3.Vec{X: 1.2, Z: 3}, Mass: 1}
	freeEnt := ecs.NewMap2[components.Body, components.Carryable](f.world).NewEntity(&free, &components.Carryable{})

	f.sys.Update(0.02)

	got := f.hands.Get(rightEnt)
	if !got.Holding || got.Target != freeEnt {
		t.Fatalf("expected second hand to grab the free crate, holding=%v target=%v", got.Holding, got.Target)
	}
	if f.hands.Get(f.hand).Target != f.crate {
		t.Error("first hand lost its crate")
	}
}
