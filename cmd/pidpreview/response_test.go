package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/steady/pid"
)

func pdSettings() pid.ScalarSettings {
	return pid.ScalarSettings{
		ProportionalGain: 500,
		DerivativeGain:   15000,
		PMax:             1e5,
		IMax:             1e5,
		DMax:             1e5,
	}
}

func plant() PlantParams {
	return PlantParams{Mass: 1, Drag: 0.5, DT: 0.02, Duration: 10, StepAt: 0.5, Target: 1}
}

func TestSimulateStepResponse(t *testing.T) {
	p := plant()
	samples := Simulate(pdSettings(), p)
	require.Len(t, samples, 500)

	assert.Equal(t, 0.0, samples[0].Setpoint)
	assert.Equal(t, 1.0, samples[len(samples)-1].Setpoint)
	// Nothing moves before the step
	assert.Equal(t, 0.0, samples[20].Position)

	m := Measure(samples, p)
	assert.Less(t, m.SteadyError, 0.02)
	assert.Less(t, m.Overshoot, 0.15)
	assert.Greater(t, m.SettleTime, 0.0)
	assert.Less(t, m.SettleTime, 5.0)
	assert.Equal(t, 0.0, m.Saturated)
}

func TestSimulateHoldsAgainstGravity(t *testing.T) {
	s := pdSettings()
	s.IntegralGain = 20
	p := plant()
	p.Gravity = 9.81
	p.Duration = 30

	samples := Simulate(s, p)
	m := Measure(samples, p)
	assert.Less(t, m.SteadyError, 0.02, "integral should cancel gravity")
}

func TestMeasureSaturation(t *testing.T) {
	s := pdSettings()
	s.PMax = 1
	p := plant()

	m := Measure(Simulate(s, p), p)
	assert.Greater(t, m.Saturated, 0.0)
}

func TestSimulateRejectsZeroStep(t *testing.T) {
	p := plant()
	p.DT = 0
	assert.Nil(t, Simulate(pdSettings(), p))

	m := Measure(nil, p)
	assert.Equal(t, -1.0, m.SettleTime)
}
