package sim

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/steady/pid"
	"github.com/pthm-cable/steady/telemetry"
)

var (
	// ErrUnknownController is returned for a name that is neither a
	// controller nor a controller kind.
	ErrUnknownController = errors.New("unknown controller")
	// ErrSettingsMismatch is returned when 3D settings target a scalar
	// controller or the other way round.
	ErrSettingsMismatch = errors.New("settings do not match controller")
)

// Retune asks for new gains and limits on a controller or on every
// controller of a kind. Exactly one of Settings and Scalar is set: Scalar for
// steering, Settings for the rest. Accumulated state is kept.
type Retune struct {
	Controller string
	Settings   *pid.Settings
	Scalar     *pid.ScalarSettings
}

// Kind returns the controller kind of a controller or kind name.
func (s *Sim) Kind(name string) (string, bool) {
	switch name {
	case telemetry.KindBuoyancy, telemetry.KindCarry, telemetry.KindSteering:
		return name, true
	}
	kind, ok := s.names[name]
	return kind, ok
}

// QueueRetune validates r and queues it for the start of the next step.
// Safe to call from any goroutine.
func (s *Sim) QueueRetune(r Retune) error {
	kind, ok := s.Kind(r.Controller)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownController, r.Controller)
	}
	scalar := kind == telemetry.KindSteering
	if (scalar && (r.Scalar == nil || r.Settings != nil)) || (!scalar && (r.Settings == nil || r.Scalar != nil)) {
		return fmt.Errorf("%w: %s is a %s controller", ErrSettingsMismatch, r.Controller, kind)
	}

	s.retuneMu.Lock()
	s.retunes = append(s.retunes, r)
	s.retuneMu.Unlock()
	return nil
}

func (s *Sim) applyRetunes() {
	s.retuneMu.Lock()
	pending := s.retunes
	s.retunes = nil
	s.retuneMu.Unlock()

	for _, r := range pending {
		kind, _ := s.Kind(r.Controller)
		switch {
		case kind == telemetry.KindSteering:
			s.steering.Retune(*r.Scalar)
		case kind == telemetry.KindCarry:
			// Hands share settings; a new pickup builds its controller from them
			s.carry.Retune(*r.Settings)
		case r.Controller == telemetry.KindBuoyancy:
			s.buoyancy.Retune(*r.Settings)
		default:
			s.retuneShip(r.Controller, *r.Settings)
		}
		slog.Info("retuned", "controller", r.Controller, "kind", kind, "tick", s.tick)
	}
}

func (s *Sim) retuneShip(name string, settings pid.Settings) {
	query := s.ships.Query()
	for query.Next() {
		tag, _, buoy := query.Get()
		if tag.Name == name {
			buoy.Controller.Retune(settings)
		}
	}
}
