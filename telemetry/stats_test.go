package telemetry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeErrorStats(t *testing.T) {
	values := []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}

	s := ComputeErrorStats(values)

	assert.InDelta(t, math.Sqrt(38.5), s.RMS, 1e-9)
	assert.InDelta(t, 5.5, s.MeanAbs, 1e-9)
	assert.Equal(t, 10.0, s.Max)
	assert.Equal(t, 5.0, s.P50)
	assert.Equal(t, 9.0, s.P90)
}

func TestComputeErrorStats_UsesMagnitude(t *testing.T) {
	s := ComputeErrorStats([]float64{-3, 4})

	assert.InDelta(t, math.Sqrt(12.5), s.RMS, 1e-9)
	assert.InDelta(t, 3.5, s.MeanAbs, 1e-9)
	assert.Equal(t, 4.0, s.Max)
}

func TestComputeErrorStats_Empty(t *testing.T) {
	assert.Equal(t, ErrorStats{}, ComputeErrorStats(nil))
}

func TestComputeErrorStats_DoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	ComputeErrorStats(values)
	assert.Equal(t, []float64{3, 1, 2}, values)
}
