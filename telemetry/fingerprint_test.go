package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_DeterministicAndSensitive(t *testing.T) {
	recs := []TickRecord{
		{Tick: 1, Controller: "ship-0", ForceY: -1.25},
		{Tick: 1, Controller: "ship-1", ForceX: 0.5},
		{Tick: 2, Controller: "ship-0", ForceY: -1.0},
	}

	a, b := NewFingerprint(), NewFingerprint()
	for _, r := range recs {
		a.Add(r)
		b.Add(r)
	}
	assert.Equal(t, a.Sum64(), b.Sum64())
	assert.Equal(t, uint64(3), a.Ticks())
	assert.Len(t, a.String(), 16)

	c := NewFingerprint()
	for _, r := range recs {
		r.ForceY += 1e-12
		c.Add(r)
	}
	assert.NotEqual(t, a.Sum64(), c.Sum64())
}
