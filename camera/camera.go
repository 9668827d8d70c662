// Package camera provides an orbit camera for the 3D viewer.
package camera

import "math"

// Camera orbits a target point. Angles are in degrees; Y is up.
type Camera struct {
	// Target is the point the camera looks at
	X, Y, Z float32

	// Yaw about the vertical axis, pitch above the horizon
	Yaw, Pitch float32

	// Distance from the target
	Distance float32

	// Distance and pitch constraints
	MinDistance, MaxDistance float32
	MinPitch, MaxPitch       float32

	home pose
}

// pose is the part of the camera Reset restores.
type pose struct {
	X, Y, Z, Yaw, Pitch, Distance float32
}

func (c *Camera) current() pose {
	return pose{X: c.X, Y: c.Y, Z: c.Z, Yaw: c.Yaw, Pitch: c.Pitch, Distance: c.Distance}
}

// New creates a camera looking at (x, y, z) from distance.
func New(x, y, z, distance float32) *Camera {
	c := &Camera{
		X:           x,
		Y:           y,
		Z:           z,
		Yaw:         45,
		Pitch:       30,
		Distance:    distance,
		MinDistance: 2,
		MaxDistance: distance * 4,
		MinPitch:    -10,
		MaxPitch:    89,
	}
	c.Distance = clamp(c.Distance, c.MinDistance, c.MaxDistance)
	c.home = c.current()
	return c
}

// Position returns the eye position in world coordinates.
func (c *Camera) Position() (x, y, z float32) {
	yaw := float64(c.Yaw) * math.Pi / 180
	pitch := float64(c.Pitch) * math.Pi / 180
	d := float64(c.Distance)

	horiz := d * math.Cos(pitch)
	x = c.X + float32(horiz*math.Sin(yaw))
	y = c.Y + float32(d*math.Sin(pitch))
	z = c.Z + float32(horiz*math.Cos(yaw))
	return x, y, z
}

// Orbit rotates the eye around the target. Yaw wraps, pitch is clamped.
func (c *Camera) Orbit(dYaw, dPitch float32) {
	c.Yaw = mod(c.Yaw+dYaw, 360)
	c.Pitch = clamp(c.Pitch+dPitch, c.MinPitch, c.MaxPitch)
}

// Pan moves the target in the horizontal plane, relative to the view
// direction: right moves across the screen, forward moves into it.
func (c *Camera) Pan(right, forward float32) {
	yaw := float64(c.Yaw) * math.Pi / 180
	sin, cos := float32(math.Sin(yaw)), float32(math.Cos(yaw))

	// The eye sits at +(sin, cos) from the target, so forward is -(sin, cos)
	c.X += right*cos - forward*sin
	c.Z += -right*sin - forward*cos
}

// Follow moves the target to (x, y, z) keeping the view angles.
func (c *Camera) Follow(x, y, z float32) {
	c.X, c.Y, c.Z = x, y, z
}

// SetDistance sets the orbit distance, clamped to min/max.
func (c *Camera) SetDistance(d float32) {
	c.Distance = clamp(d, c.MinDistance, c.MaxDistance)
}

// ZoomBy divides the distance by factor: factors above 1 move closer.
func (c *Camera) ZoomBy(factor float32) {
	if factor <= 0 {
		return
	}
	c.SetDistance(c.Distance / factor)
}

// Reset returns the camera to where New placed it.
func (c *Camera) Reset() {
	h := c.home
	c.X, c.Y, c.Z = h.X, h.Y, h.Z
	c.Yaw, c.Pitch, c.Distance = h.Yaw, h.Pitch, h.Distance
}

// mod computes the positive modulo (Go's % can return negative).
func mod(x, m float32) float32 {
	r := float32(math.Mod(float64(x), float64(m)))
	if r < 0 {
		r += m
	}
	return r
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
