// Package systems contains ECS systems for the sandbox.
package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/steady/components"
)

// PhysicsSystem integrates bodies with semi-implicit Euler.
// Forces and torques accumulated by other systems are consumed and cleared.
// Angular response uses mass as a scalar inertia.
type PhysicsSystem struct {
	filter  ecs.Filter1[components.Body]
	gravity float64
	floor   float64
}

// NewPhysicsSystem creates a new physics system. Bodies marked Floored rest
// on the horizontal plane at height floor.
func NewPhysicsSystem(w *ecs.World, gravity, floor float64) *PhysicsSystem {
	return &PhysicsSystem{
		filter:  *ecs.NewFilter1[components.Body](w),
		gravity: gravity,
		floor:   floor,
	}
}

// Update advances every body by dt seconds.
func (s *PhysicsSystem) Update(dt float64) {
	query := s.filter.Query()
	for query.Next() {
		b := query.Get()
		Integrate(b, s.gravity, dt)
		if b.Floored && b.Position.Y < s.floor {
			b.Position.Y = s.floor
			b.Velocity.Y = max(b.Velocity.Y, 0)
		}
	}
}

// Integrate advances a single body by dt seconds.
func Integrate(b *components.Body, gravity, dt float64) {
	mass := b.Mass
	if mass <= 0 {
		mass = 1
	}

	accel := r3.Scale(1/mass, b.Force)
	if b.UseGravity {
		accel.Y -= gravity
	}
	b.Velocity = r3.Add(b.Velocity, r3.Scale(dt, accel))
	b.Velocity = r3.Scale(math.Exp(-b.Drag*dt), b.Velocity)
	b.Position = r3.Add(b.Position, r3.Scale(dt, b.Velocity))

	angAccel := r3.Scale(1/mass, b.Torque)
	b.AngularVelocity = r3.Add(b.AngularVelocity, r3.Scale(dt, angAccel))
	b.AngularVelocity = r3.Scale(math.Exp(-b.AngularDrag*dt), b.AngularVelocity)
	b.Orientation = r3.Add(b.Orientation, r3.Scale(dt, b.AngularVelocity))

	b.Force = r3.Vec{}
	b.Torque = r3.Vec{}
}
