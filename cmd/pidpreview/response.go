package main

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/steady/components"
	"github.com/pthm-cable/steady/pid"
	"github.com/pthm-cable/steady/systems"
)

// PlantParams describes the 1-D body the controller drives.
type PlantParams struct {
	Mass     float64
	Drag     float64
	Gravity  float64 // 0 = weightless
	DT       float64
	Duration float64 // Seconds simulated
	StepAt   float64 // Setpoint jumps from 0 to Target here
	Target   float64
}

// Sample is one step of the response.
type Sample struct {
	Time     float64
	Setpoint float64
	Position float64
	Out      pid.ScalarOutput
}

// Metrics summarizes a step response.
type Metrics struct {
	Overshoot   float64 // Peak past the target, as a fraction of the step
	SettleTime  float64 // Seconds after the step until it stays within 2%; -1 if never
	SteadyError float64 // |target - position| at the end
	Saturated   float64 // Share of ticks with any term at its limit
}

// Simulate drives a body along Y with a scalar controller, applying the
// dt-scaled force the same way the buoyancy system does.
func Simulate(settings pid.ScalarSettings, plant PlantParams) []Sample {
	if plant.DT <= 0 {
		return nil
	}
	ctrl := pid.New(settings)
	body := components.Body{Mass: plant.Mass, Drag: plant.Drag, UseGravity: plant.Gravity != 0}

	steps := int(plant.Duration / plant.DT)
	samples := make([]Sample, 0, steps)
	for i := 0; i < steps; i++ {
		t := float64(i) * plant.DT
		setpoint := 0.0
		if t >= plant.StepAt {
			setpoint = plant.Target
		}

		out := ctrl.Tick(setpoint, body.Position.Y)
		body.AddForce(r3.Vec{Y: out.Force * plant.DT})
		systems.Integrate(&body, plant.Gravity, plant.DT)

		samples = append(samples, Sample{Time: t, Setpoint: setpoint, Position: body.Position.Y, Out: out})
	}
	return samples
}

// Measure computes step response metrics for samples from Simulate.
func Measure(samples []Sample, plant PlantParams) Metrics {
	m := Metrics{SettleTime: -1}
	if len(samples) == 0 || plant.Target == 0 {
		return m
	}

	band := 0.02 * math.Abs(plant.Target)
	sign := math.Copysign(1, plant.Target)
	var peak float64
	var saturated int
	settledSince := -1.0

	for _, s := range samples {
		if s.Out.Saturated.Any() {
			saturated++
		}
		if s.Time < plant.StepAt {
			continue
		}
		peak = max(peak, sign*s.Position)

		if math.Abs(plant.Target-s.Position) <= band {
			if settledSince < 0 {
				settledSince = s.Time
			}
		} else {
			settledSince = -1
		}
	}

	m.Overshoot = max(0, peak/math.Abs(plant.Target)-1)
	if settledSince >= 0 {
		m.SettleTime = settledSince - plant.StepAt
	}
	m.SteadyError = math.Abs(plant.Target - samples[len(samples)-1].Position)
	m.Saturated = float64(saturated) / float64(len(samples))
	return m
}
