package main

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/steady/config"
	"github.com/pthm-cable/steady/sim"
	"github.com/pthm-cable/steady/telemetry"
)

// saturationPenalty weights the share of saturated ticks against RMS error.
const saturationPenalty = 0.5

// errorAccumulator is a sim.TickSink summing buoyancy error after warmup.
type errorAccumulator struct {
	warmup    int32
	sumSq     float64
	saturated int
	n         int
}

func (a *errorAccumulator) PublishTicks(tick int32, records []telemetry.TickRecord) {
	if tick < a.warmup {
		return
	}
	for _, rec := range records {
		if rec.Kind != telemetry.KindBuoyancy {
			continue
		}
		a.sumSq += rec.ErrX*rec.ErrX + rec.ErrY*rec.ErrY + rec.ErrZ*rec.ErrZ
		if rec.Saturated {
			a.saturated++
		}
		a.n++
	}
}

func (a *errorAccumulator) PublishWindows([]telemetry.WindowStats) {}

func (a *errorAccumulator) fitness() float64 {
	if a.n == 0 {
		return math.Inf(1)
	}
	rms := math.Sqrt(a.sumSq / float64(a.n))
	return rms + saturationPenalty*float64(a.saturated)/float64(a.n)
}

// FitnessEvaluator runs headless simulations and scores buoyancy tracking.
type FitnessEvaluator struct {
	params     *ParamVector
	ticks      int32
	warmup     int32
	seeds      []int64
	baseConfig *config.Config

	mu      sync.Mutex
	lastRMS float64
}

// NewFitnessEvaluator creates a new evaluator. The first warmupSec seconds of
// each run are not scored.
func NewFitnessEvaluator(params *ParamVector, ticks int32, warmupSec float64, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		ticks:      ticks,
		warmup:     int32(warmupSec / baseCfg.Physics.DT),
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// LastRMS returns the mean RMS error of the most recent evaluation.
func (fe *FitnessEvaluator) LastRMS() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastRMS
}

// Evaluate computes fitness for raw gains (lower = better): the mean over
// seeds of RMS ship error plus a saturation penalty.
func (fe *FitnessEvaluator) Evaluate(ctx context.Context, x []float64) (float64, error) {
	cfg, err := fe.baseConfig.Clone()
	if err != nil {
		return 0, fmt.Errorf("cloning config: %w", err)
	}
	fe.params.ApplyToConfig(cfg, x)
	// Every tick goes to the accumulator
	cfg.Derived.BroadcastTicks = 1

	accs := make([]*errorAccumulator, len(fe.seeds))
	g, ctx := errgroup.WithContext(ctx)
	for i, seed := range fe.seeds {
		acc := &errorAccumulator{warmup: fe.warmup}
		accs[i] = acc
		g.Go(func() error {
			s := sim.New(cfg, sim.Options{Seed: seed, Sinks: []sim.TickSink{acc}})
			return s.Run(ctx, fe.ticks)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var total, rms float64
	for _, acc := range accs {
		total += acc.fitness()
		rms += math.Sqrt(acc.sumSq / float64(max(acc.n, 1)))
	}
	n := float64(len(accs))
	avg := total / n

	fe.mu.Lock()
	fe.lastRMS = rms / n
	fe.mu.Unlock()

	return avg, nil
}
