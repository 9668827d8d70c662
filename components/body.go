package components

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Body is a rigid body integrated by the physics system.
// Orientation and angular velocity are Euler angles in degrees.
type Body struct {
	Position r3.Vec
	Velocity r3.Vec
	Force    r3.Vec // Accumulated this step, cleared by physics

	Orientation     r3.Vec
	AngularVelocity r3.Vec
	Torque          r3.Vec // Accumulated this step, cleared by physics

	Mass        float64
	Drag        float64
	AngularDrag float64
	UseGravity  bool
	Floored     bool // Rests on the floor plane instead of falling through
}

// AddForce accumulates a force through the centre of mass.
func (b *Body) AddForce(f r3.Vec) {
	b.Force = r3.Add(b.Force, f)
}

// AddTorque accumulates a world-space torque.
func (b *Body) AddTorque(t r3.Vec) {
	b.Torque = r3.Add(b.Torque, t)
}

// AddRelativeTorque accumulates a torque given in body space.
func (b *Body) AddRelativeTorque(t r3.Vec) {
	b.AddTorque(b.Rotate(t))
}

// AddForceAtPosition accumulates a force applied at a world point, producing
// torque about the centre of mass.
func (b *Body) AddForceAtPosition(f, point r3.Vec) {
	b.AddForce(f)
	r := r3.Sub(point, b.Position)
	b.AddTorque(r3.Cross(r, f))
}

// Rotate turns a body-space direction into world space.
// Rotation order is Z, then X, then Y.
func (b *Body) Rotate(v r3.Vec) r3.Vec {
	toRad := math.Pi / 180
	rz := r3.NewRotation(b.Orientation.Z*toRad, r3.Vec{Z: 1})
	rx := r3.NewRotation(b.Orientation.X*toRad, r3.Vec{X: 1})
	ry := r3.NewRotation(b.Orientation.Y*toRad, r3.Vec{Y: 1})
	return ry.Rotate(rx.Rotate(rz.Rotate(v)))
}

// WorldPoint transforms a body-space point into world space.
func (b *Body) WorldPoint(local r3.Vec) r3.Vec {
	return r3.Add(b.Position, b.Rotate(local))
}
