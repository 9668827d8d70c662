// Package renderer draws the sandbox world in 3D with raylib.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/steady/camera"
	"github.com/pthm-cable/steady/components"
)

// Gizmo sizes and colours.
const (
	gizmoRadius = 0.25
	shipLength  = 8
	shipWidth   = 3
	shipHeight  = 1.5
	crateSize   = 0.5
)

var (
	setpointColor = rl.Color{R: 80, G: 220, B: 120, A: 255}
	processColor  = rl.Color{R: 240, G: 90, B: 80, A: 255}
	errorColor    = rl.Color{R: 250, G: 220, B: 90, A: 255}
	shipColor     = rl.Color{R: 90, G: 110, B: 140, A: 255}
	crateColor    = rl.Color{R: 170, G: 120, B: 70, A: 255}
	heldColor     = rl.Color{R: 230, G: 170, B: 90, A: 255}
	handColor     = rl.Color{R: 150, G: 200, B: 250, A: 255}
)

// Scene draws bodies and controller gizmos: a wire sphere at each
// setpoint, one at the process value and a line between them.
type Scene struct {
	ships  ecs.Filter3[components.Tag, components.Body, components.Buoyant]
	crates ecs.Filter3[components.Tag, components.Body, components.Carryable]
	hands  ecs.Filter1[components.Carrier]
	helms  ecs.Filter2[components.Body, components.Helm]

	ShowGizmos bool
}

// NewScene creates a scene over the world's entities.
func NewScene(w *ecs.World) *Scene {
	return &Scene{
		ships:      *ecs.NewFilter3[components.Tag, components.Body, components.Buoyant](w),
		crates:     *ecs.NewFilter3[components.Tag, components.Body, components.Carryable](w),
		hands:      *ecs.NewFilter1[components.Carrier](w),
		helms:      *ecs.NewFilter2[components.Body, components.Helm](w),
		ShowGizmos: true,
	}
}

// Camera3D converts the orbit camera to a raylib camera.
func Camera3D(c *camera.Camera) rl.Camera3D {
	x, y, z := c.Position()
	return rl.Camera3D{
		Position:   rl.NewVector3(x, y, z),
		Target:     rl.NewVector3(c.X, c.Y, c.Z),
		Up:         rl.NewVector3(0, 1, 0),
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}
}

// Draw renders the world. Must be called between BeginMode3D and EndMode3D.
func (s *Scene) Draw() {
	rl.DrawGrid(40, 5)

	held := s.drawHands()
	s.drawShips()
	s.drawCrates(held)
}

func (s *Scene) drawShips() {
	query := s.ships.Query()
	for query.Next() {
		_, body, buoy := query.Get()
		drawBody(body, rl.NewVector3(shipWidth, shipHeight, shipLength), shipColor)
		if s.ShowGizmos && buoy.Controller.Primed() {
			drawGizmo(buoy.Setpoint, body.Position)
		}
	}

	helms := s.helms.Query()
	for helms.Next() {
		body, helm := helms.Get()
		// Wheel position as a bar above the deck, rotated by the wheel angle
		top := r3.Add(body.Position, r3.Vec{Y: shipHeight + 1})
		rl.PushMatrix()
		rl.Translatef(float32(top.X), float32(top.Y), float32(top.Z))
		rl.Rotatef(float32(body.Orientation.Y), 0, 1, 0)
		rl.Rotatef(float32(helm.Angle), 0, 0, 1)
		rl.DrawCube(rl.NewVector3(0, 0, 0), 2, 0.15, 0.15, errorColor)
		rl.PopMatrix()
	}
}

func (s *Scene) drawCrates(held map[ecs.Entity]bool) {
	size := rl.NewVector3(crateSize, crateSize, crateSize)
	query := s.crates.Query()
	for query.Next() {
		_, body, _ := query.Get()
		color := crateColor
		if held[query.Entity()] {
			color = heldColor
		}
		drawBody(body, size, color)
	}
}

// drawHands draws each hand and its carry gizmo and returns the held targets.
func (s *Scene) drawHands() map[ecs.Entity]bool {
	held := make(map[ecs.Entity]bool)
	query := s.hands.Query()
	for query.Next() {
		hand := query.Get()
		rl.DrawSphere(vec(hand.Attractor), 0.1, handColor)
		reach := r3.Add(hand.Attractor, r3.Scale(2, hand.Forward))
		rl.DrawLine3D(vec(hand.Attractor), vec(reach), handColor)

		if hand.Holding {
			held[hand.Target] = true
			if s.ShowGizmos {
				drawGizmo(hand.Setpoint, hand.ProcessValue)
			}
		}
	}
	return held
}

func drawBody(b *components.Body, size rl.Vector3, color rl.Color) {
	rl.PushMatrix()
	rl.Translatef(float32(b.Position.X), float32(b.Position.Y), float32(b.Position.Z))
	// Same Z, X, Y order as Body.Rotate
	rl.Rotatef(float32(b.Orientation.Y), 0, 1, 0)
	rl.Rotatef(float32(b.Orientation.X), 1, 0, 0)
	rl.Rotatef(float32(b.Orientation.Z), 0, 0, 1)
	origin := rl.NewVector3(0, 0, 0)
	rl.DrawCubeV(origin, size, color)
	rl.DrawCubeWiresV(origin, size, rl.Black)
	rl.PopMatrix()
}

func drawGizmo(setpoint, processValue r3.Vec) {
	sp, pv := vec(setpoint), vec(processValue)
	rl.DrawSphereWires(sp, gizmoRadius, 6, 8, setpointColor)
	rl.DrawSphereWires(pv, gizmoRadius, 6, 8, processColor)
	rl.DrawLine3D(sp, pv, errorColor)
}

func vec(v r3.Vec) rl.Vector3 {
	return rl.NewVector3(float32(v.X), float32(v.Y), float32(v.Z))
}
