// Package components defines ECS components for the sandbox.
package components

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/steady/pid"
)

// Tag names an entity for telemetry and the monitor API.
type Tag struct {
	Name string
}

// Buoyant marks a ship held at a wave-driven height over its anchor.
type Buoyant struct {
	Anchor     r3.Vec
	Phase      float64 // Offset into the wave noise so ships don't bob in lockstep
	Controller *pid.Controller3D

	// Last tick, for gizmos and telemetry
	Setpoint r3.Vec
	Last     pid.Output
}

// CarryMode selects which point of a carryable is pulled toward the hand.
type CarryMode uint8

const (
	CarryCentre    CarryMode = iota // Pull the body's centre of mass
	CarryGrabPoint                  // Pull a point fixed on the body
)

func (m CarryMode) String() string {
	switch m {
	case CarryCentre:
		return "centre"
	case CarryGrabPoint:
		return "grab_point"
	default:
		return "unknown"
	}
}

// Carryable marks a body that a hand can pick up.
type Carryable struct {
	Mode       CarryMode
	LocalPoint r3.Vec // Grab point in body space, used by CarryGrabPoint
}

// Carrier is a hand that carries bodies with a PID controller.
type Carrier struct {
	Name      string
	Attractor r3.Vec // Hand position
	Forward   r3.Vec // Unit facing direction
	Trigger   float64

	Holding      bool
	Target       ecs.Entity
	HoldDistance float64
	Controller   *pid.Controller3D

	OriginalAngularDrag float64
	AllowInput          bool // Cleared on release until the trigger is let go

	// Last tick, for gizmos and telemetry
	Setpoint     r3.Vec
	ProcessValue r3.Vec
	Last         pid.Output
}

// Helm steers its ship toward a target heading by turning a wheel.
type Helm struct {
	Angle         float64 // Wheel angle in degrees, within ±MaxRotation
	TargetHeading float64
	Controller    *pid.Controller

	Last pid.ScalarOutput
}
