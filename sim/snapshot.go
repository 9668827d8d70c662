package sim

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/steady/pid"
	"github.com/pthm-cable/steady/telemetry"
)

// ControllerState is a read-only view of one controller after a step.
// Scalar controllers report on the X axis.
type ControllerState struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Active bool   `json:"active"` // Ticked during the last step

	Setpoint     r3.Vec `json:"setpoint"`
	ProcessValue r3.Vec `json:"process_value"`
	Error        r3.Vec `json:"error"`
	P            r3.Vec `json:"p"`
	I            r3.Vec `json:"i"`
	D            r3.Vec `json:"d"`
	Force        r3.Vec `json:"force"`
	Saturated    bool   `json:"saturated"`

	Settings       *pid.Settings       `json:"settings,omitempty"`
	ScalarSettings *pid.ScalarSettings `json:"scalar_settings,omitempty"`
}

// Snapshot is an immutable view of the simulation published after every
// step for readers on other goroutines.
type Snapshot struct {
	Tick        int32                   `json:"tick"`
	Time        float64                 `json:"time"`
	Seed        int64                   `json:"seed"`
	Fingerprint string                  `json:"fingerprint"`
	Controllers []ControllerState       `json:"controllers"`
	Windows     []telemetry.WindowStats `json:"windows"` // Last completed stats window
	Bookmarks   []telemetry.Bookmark    `json:"bookmarks"` // Recent bookmarks, oldest first
}

// Controller looks up a controller by name.
func (s *Snapshot) Controller(name string) (ControllerState, bool) {
	for _, c := range s.Controllers {
		if c.Name == name {
			return c, true
		}
	}
	return ControllerState{}, false
}

// Snapshot returns the state published after the last step.
// Safe to call from any goroutine.
func (s *Sim) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

func fromOutput(cs *ControllerState, out pid.Output) {
	cs.Error = out.Error
	cs.P, cs.I, cs.D = out.P, out.I, out.D
	cs.Force = out.Force
	cs.Saturated = out.Saturated.Any()
}

func (s *Sim) publishSnapshot() {
	snap := &Snapshot{
		Tick:        s.tick,
		Time:        s.Time(),
		Seed:        s.seed,
		Fingerprint: s.fingerprint.String(),
		Windows:     s.lastWindows,
		Bookmarks:   s.marks,
	}

	ships := s.ships.Query()
	for ships.Next() {
		tag, body, buoy := ships.Get()
		settings := buoy.Controller.Settings()
		cs := ControllerState{
			Name:         tag.Name,
			Kind:         telemetry.KindBuoyancy,
			Active:       buoy.Controller.Primed(),
			Setpoint:     buoy.Setpoint,
			ProcessValue: body.Position,
			Settings:     &settings,
		}
		fromOutput(&cs, buoy.Last)
		snap.Controllers = append(snap.Controllers, cs)
	}

	carrySettings := s.carry.Settings()
	hands := s.carrier.Query()
	for hands.Next() {
		hand := hands.Get()
		cs := ControllerState{
			Name:     hand.Name,
			Kind:     telemetry.KindCarry,
			Active:   hand.Holding,
			Settings: &carrySettings,
		}
		if hand.Holding {
			cs.Setpoint = hand.Setpoint
			cs.ProcessValue = hand.ProcessValue
			fromOutput(&cs, hand.Last)
		}
		snap.Controllers = append(snap.Controllers, cs)
	}

	helms := s.helms.Query()
	for helms.Next() {
		_, body, helm := helms.Get()
		settings := helm.Controller.Settings()
		out := helm.Last
		snap.Controllers = append(snap.Controllers, ControllerState{
			Name:           HelmName,
			Kind:           telemetry.KindSteering,
			Active:         helm.Controller.Primed(),
			Setpoint:       r3.Vec{X: helm.TargetHeading},
			ProcessValue:   r3.Vec{X: body.Orientation.Y},
			Error:          r3.Vec{X: out.Error},
			P:              r3.Vec{X: out.P},
			I:              r3.Vec{X: out.I},
			D:              r3.Vec{X: out.D},
			Force:          r3.Vec{X: out.Force},
			Saturated:      out.Saturated.Any(),
			ScalarSettings: &settings,
		})
	}

	s.snapshot.Store(snap)
}
