package telemetry

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/steady/pid"
)

// Controller kinds.
const (
	KindBuoyancy = "buoyancy"
	KindCarry    = "carry"
	KindSteering = "steering"
)

// TickRecord is one controller tick, flattened for CSV and the trace DB.
type TickRecord struct {
	Tick       int32   `csv:"tick" json:"tick"`
	Time       float64 `csv:"time" json:"time"`
	Controller string  `csv:"controller" json:"controller"`
	Kind       string  `csv:"kind" json:"kind"`

	ErrX float64 `csv:"err_x" json:"err_x"`
	ErrY float64 `csv:"err_y" json:"err_y"`
	ErrZ float64 `csv:"err_z" json:"err_z"`

	P float64 `csv:"p" json:"p"` // Term magnitudes
	I float64 `csv:"i" json:"i"`
	D float64 `csv:"d" json:"d"`

	ForceX float64 `csv:"force_x" json:"force_x"`
	ForceY float64 `csv:"force_y" json:"force_y"`
	ForceZ float64 `csv:"force_z" json:"force_z"`

	Saturated bool `csv:"saturated" json:"saturated"`
}

// NewTickRecord flattens a 3D controller output.
func NewTickRecord(tick int32, simTime float64, name, kind string, out pid.Output) TickRecord {
	return TickRecord{
		Tick:       tick,
		Time:       simTime,
		Controller: name,
		Kind:       kind,
		ErrX:       out.Error.X,
		ErrY:       out.Error.Y,
		ErrZ:       out.Error.Z,
		P:          r3.Norm(out.P),
		I:          r3.Norm(out.I),
		D:          r3.Norm(out.D),
		ForceX:     out.Force.X,
		ForceY:     out.Force.Y,
		ForceZ:     out.Force.Z,
		Saturated:  out.Saturated.Any(),
	}
}

// NewScalarTickRecord flattens a scalar controller output onto the X axis.
func NewScalarTickRecord(tick int32, simTime float64, name, kind string, out pid.ScalarOutput) TickRecord {
	return TickRecord{
		Tick:       tick,
		Time:       simTime,
		Controller: name,
		Kind:       kind,
		ErrX:       out.Error,
		P:          abs(out.P),
		I:          abs(out.I),
		D:          abs(out.D),
		ForceX:     out.Force,
		Saturated:  out.Saturated.Any(),
	}
}

// ErrorVec returns the error vector.
func (r TickRecord) ErrorVec() r3.Vec {
	return r3.Vec{X: r.ErrX, Y: r.ErrY, Z: r.ErrZ}
}

// ForceVec returns the force vector.
func (r TickRecord) ForceVec() r3.Vec {
	return r3.Vec{X: r.ForceX, Y: r.ForceY, Z: r.ForceZ}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
