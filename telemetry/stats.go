package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds one controller's aggregated error over a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-" json:"window_start"`
	WindowEndTick   int32   `csv:"window_end" json:"window_end"`
	SimTimeSec      float64 `csv:"sim_time" json:"sim_time"`

	Controller string `csv:"controller" json:"controller"`
	Kind       string `csv:"kind" json:"kind"`
	Ticks      int    `csv:"ticks" json:"ticks"`

	// Error magnitude distribution
	ErrRMS     float64 `csv:"err_rms" json:"err_rms"`
	ErrMeanAbs float64 `csv:"err_mean_abs" json:"err_mean_abs"`
	ErrMax     float64 `csv:"err_max" json:"err_max"`
	ErrP50     float64 `csv:"err_p50" json:"err_p50"`
	ErrP90     float64 `csv:"err_p90" json:"err_p90"`

	SaturatedFrac float64 `csv:"saturated_frac" json:"saturated_frac"` // Share of ticks with any term on a limit
	ForceMean     float64 `csv:"force_mean" json:"force_mean"`         // Mean force magnitude
}

// ErrorStats summarizes a set of non-negative error magnitudes.
type ErrorStats struct {
	RMS     float64
	MeanAbs float64
	Max     float64
	P50     float64
	P90     float64
}

// ComputeErrorStats calculates RMS, mean, max and percentiles of the values.
// Returns zero stats for an empty slice.
func ComputeErrorStats(values []float64) ErrorStats {
	n := len(values)
	if n == 0 {
		return ErrorStats{}
	}

	sorted := make([]float64, n)
	squares := make([]float64, n)
	for i, v := range values {
		sorted[i] = math.Abs(v)
		squares[i] = v * v
	}
	sort.Float64s(sorted)

	return ErrorStats{
		RMS:     math.Sqrt(stat.Mean(squares, nil)),
		MeanAbs: stat.Mean(sorted, nil),
		Max:     sorted[n-1],
		P50:     stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P90:     stat.Quantile(0.9, stat.Empirical, sorted, nil),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.String("controller", s.Controller),
		slog.Int("ticks", s.Ticks),
		slog.Float64("err_rms", s.ErrRMS),
		slog.Float64("err_max", s.ErrMax),
		slog.Float64("err_p90", s.ErrP90),
		slog.Float64("saturated_frac", s.SaturatedFrac),
		slog.Float64("force_mean", s.ForceMean),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"controller", s.Controller,
		"kind", s.Kind,
		"ticks", s.Ticks,
		"err_rms", s.ErrRMS,
		"err_mean_abs", s.ErrMeanAbs,
		"err_max", s.ErrMax,
		"err_p50", s.ErrP50,
		"err_p90", s.ErrP90,
		"saturated_frac", s.SaturatedFrac,
		"force_mean", s.ForceMean,
	)
}
