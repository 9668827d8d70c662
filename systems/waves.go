package systems

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/steady/config"
)

// WaveField produces the sea surface height and rocking torque that drive
// the buoyancy setpoints. Safe for concurrent reads.
type WaveField struct {
	noise opensimplex.Noise
	cfg   config.WavesConfig
}

// NewWaveField creates a wave field seeded for reproducible runs.
func NewWaveField(seed int64, cfg config.WavesConfig) *WaveField {
	return &WaveField{
		noise: opensimplex.New(seed),
		cfg:   cfg,
	}
}

// Height returns the vertical offset of the surface at time t for a ship
// with the given noise phase, in [-Intensity, Intensity].
func (w *WaveField) Height(t, phase float64) float64 {
	return w.cfg.Intensity * w.noise.Eval2(t*w.cfg.Speed, phase)
}

// Rocking returns the body-space roll torque at time t before dt scaling.
// Each axis is a sine plus a slower sine at half amplitude.
func (w *WaveField) Rocking(t float64) r3.Vec {
	xs, xa := w.cfg.XRockingSpeed, w.cfg.XRockingAmplitude
	zs, za := w.cfg.ZRockingSpeed, w.cfg.ZRockingAmplitude
	return r3.Vec{
		X: xa*math.Sin(t*xs) + (xa/2)*math.Sin(t*xs/3+10),
		Z: za*math.Sin(t*zs) + (za/2)*math.Sin(t*zs/3+25),
	}
}
