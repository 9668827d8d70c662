package pid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampScalar(t *testing.T) {
	tests := []struct {
		name        string
		f, min, max float64
		want        float64
	}{
		{"inside", 0.5, -1, 1, 0.5},
		{"above", 5, -1, 1, 1},
		{"below", -5, -1, 1, -1},
		{"on bound", 1, -1, 1, 1},
		{"inverted bounds yield max", 0, 1, -1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampScalar(tt.f, tt.min, tt.max))
		})
	}
}

func TestSaturationAny(t *testing.T) {
	assert.False(t, Saturation{}.Any())
	assert.True(t, Saturation{false, false, true}.Any())
}

func TestWrapDegrees(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{179, 179},
		{180, -180},
		{-180, -180},
		{190, -170},
		{-190, 170},
		{358, -2},
		{-358, 2},
		{720, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, WrapDegrees(tt.in), tol, "WrapDegrees(%v)", tt.in)
	}
}

func TestGuardedIntegral(t *testing.T) {
	tests := []struct {
		name string
		in   IntegralInput
		want float64
	}{
		{"accumulates", IntegralInput{Gain: 2, Error: 1, Integral: 1, Min: -10, Max: 10}, 3},
		{"clamps high", IntegralInput{Gain: 2, Error: 10, Integral: 1, Min: -10, Max: 10}, 10},
		{"clamps low", IntegralInput{Gain: 2, Error: -10, Integral: 1, Min: -10, Max: 10}, -10},
		{"at ceiling keeps integrating", IntegralInput{Gain: 1, Error: -3, Integral: 10, Min: -10, Max: 10}, 7},
		{"above ceiling frozen", IntegralInput{Gain: 1, Error: -3, Integral: 12, Min: -10, Max: 10}, 12},
		{"below floor integrates", IntegralInput{Gain: 1, Error: 1, Integral: -12, Min: -10, Max: 10}, -10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, GuardedIntegral{}.Compute(tt.in), tol)
		})
	}
}
