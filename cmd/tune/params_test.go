package main

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/steady/config"
	"github.com/pthm-cable/steady/telemetry"
)

func TestNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector()

	norm := pv.Normalize(raw)
	for i, v := range norm {
		assert.GreaterOrEqual(t, v, 0.0, pv.Specs[i].Name)
		assert.LessOrEqual(t, v, 1.0, pv.Specs[i].Name)
	}

	back := pv.Denormalize(norm)
	for i := range raw {
		assert.InDelta(t, raw[i], back[i], 1e-9, pv.Specs[i].Name)
	}
}

func TestClamp(t *testing.T) {
	pv := NewParamVector()
	v := make([]float64, pv.Dim())
	for i := range v {
		v[i] = -1e9
	}
	v[0] = 1e9

	got := pv.Clamp(v)
	assert.Equal(t, pv.Specs[0].Max, got[0])
	for i := 1; i < pv.Dim(); i++ {
		assert.Equal(t, pv.Specs[i].Min, got[i], pv.Specs[i].Name)
	}
}

func TestApplyExtract(t *testing.T) {
	config.MustInit("")
	cfg, err := config.Cfg().Clone()
	require.NoError(t, err)

	pv := NewParamVector()
	values := []float64{100, 1, 2000, 300, 3, 4000}
	pv.ApplyToConfig(cfg, values)

	assert.Equal(t, values, pv.ExtractFromConfig(cfg))
	assert.Equal(t, 100.0, cfg.Buoyancy.PID.ProportionalGain.Z)
	assert.Equal(t, 2000.0, cfg.Buoyancy.PID.DerivativeGain.Z)
	// Limits are untouched
	assert.Equal(t, config.Cfg().Buoyancy.PID.PMax, cfg.Buoyancy.PID.PMax)
}

func TestDefaultsMatchConfig(t *testing.T) {
	config.MustInit("")
	pv := NewParamVector()
	assert.Equal(t, pv.DefaultVector(), pv.ExtractFromConfig(config.Cfg()))
}

func TestErrorAccumulator(t *testing.T) {
	acc := &errorAccumulator{warmup: 10}
	assert.True(t, math.IsInf(acc.fitness(), 1))

	rec := telemetry.TickRecord{Kind: telemetry.KindBuoyancy, ErrY: 2}
	acc.PublishTicks(5, []telemetry.TickRecord{rec})
	assert.Equal(t, 0, acc.n, "warmup ticks are skipped")

	carry := telemetry.TickRecord{Kind: telemetry.KindCarry, ErrX: 100}
	acc.PublishTicks(10, []telemetry.TickRecord{rec, carry})
	rec.Saturated = true
	acc.PublishTicks(11, []telemetry.TickRecord{rec})

	assert.Equal(t, 2, acc.n)
	assert.InDelta(t, 2+saturationPenalty*0.5, acc.fitness(), 1e-12)
}

func TestEvaluate(t *testing.T) {
	config.MustInit("")
	cfg, err := config.Cfg().Clone()
	require.NoError(t, err)
	cfg.Buoyancy.Ships = 2
	cfg.Carry.Hands = nil

	pv := NewParamVector()
	fe := NewFitnessEvaluator(pv, 100, 0.5, []int64{1, 2}, cfg)

	a, err := fe.Evaluate(context.Background(), pv.DefaultVector())
	require.NoError(t, err)
	assert.False(t, math.IsInf(a, 0))
	assert.Greater(t, fe.LastRMS(), 0.0)

	// Same gains and seeds score the same
	b, err := fe.Evaluate(context.Background(), pv.DefaultVector())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
