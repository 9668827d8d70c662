// Package main tunes the buoyancy controller gains with CMA-ES: each
// candidate runs a headless fleet over several seeds and is scored by how
// closely the ships track their wave setpoints.
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/steady/config"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

type tuneFlags struct {
	configPath string
	ticks      int32
	warmup     float64
	seeds      int
	ships      int
	maxEvals   int
	population int
	outputDir  string
}

func main() {
	var f tuneFlags
	cmd := &cobra.Command{
		Use:          "tune",
		Short:        "Tune buoyancy PID gains with CMA-ES",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return tune(cmd.Context(), f)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	flags.Int32Var(&f.ticks, "ticks", 3000, "Simulation ticks per run")
	flags.Float64Var(&f.warmup, "warmup", 5, "Seconds at the start of each run that are not scored")
	flags.IntVar(&f.seeds, "seeds", 3, "Number of seeds per evaluation")
	flags.IntVar(&f.ships, "ships", 8, "Fleet size per run (0 = keep config)")
	flags.IntVar(&f.maxEvals, "max-evals", 200, "Maximum number of evaluations")
	flags.IntVar(&f.population, "population", 0, "CMA-ES population size (0 = auto)")
	flags.StringVar(&f.outputDir, "output", "", "Output directory for results")
	cmd.MarkFlagRequired("output")

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		slog.Error("tune failed", "error", err)
		os.Exit(1)
	}
}

func tune(ctx context.Context, f tuneFlags) error {
	if err := os.MkdirAll(f.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	baseCfg, err := config.Load(f.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if f.ships > 0 {
		baseCfg.Buoyancy.Ships = f.ships
	}
	// Carry and steering are not scored
	baseCfg.Carry.Hands = nil
	baseCfg.Carry.Crates = 0

	params := NewParamVector()

	evalSeeds := make([]int64, f.seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, f.ticks, f.warmup, evalSeeds, baseCfg)

	dim := params.Dim()
	initX := params.Normalize(params.ExtractFromConfig(baseCfg))

	popSize := f.population
	if popSize == 0 {
		// Auto-size: 4 + floor(3*ln(n))
		popSize = 4 + int(3*math.Log(float64(dim)))
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}
	settings := &optimize.Settings{
		FuncEvaluations: f.maxEvals,
		Concurrent:      0, // Seeds already run in parallel
	}

	logPath := filepath.Join(f.outputDir, "tune_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()

	logWriter := csv.NewWriter(logFile)
	defer logWriter.Flush()

	header := []string{"eval", "fitness", "rms"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	if err := logWriter.Write(header); err != nil {
		return fmt.Errorf("writing log header: %w", err)
	}

	evalCount := 0
	bestFitness := math.Inf(1)
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			if ctx.Err() != nil {
				return math.Inf(1)
			}
			raw := params.Clamp(params.Denormalize(x))
			fitness, err := evaluator.Evaluate(ctx, raw)
			if err != nil {
				if ctx.Err() == nil {
					slog.Error("evaluation failed", "eval", evalCount+1, "error", err)
				}
				return math.Inf(1)
			}
			evalCount++

			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = raw
			}

			// Log clamped values to CSV (these are the values actually used)
			row := []string{strconv.Itoa(evalCount), fmt.Sprintf("%.6f", fitness), fmt.Sprintf("%.6f", evaluator.LastRMS())}
			for _, v := range raw {
				row = append(row, fmt.Sprintf("%.6f", v))
			}
			logWriter.Write(row)
			logWriter.Flush()

			elapsed := time.Since(startTime)
			avgPerEval := elapsed / time.Duration(evalCount)
			remaining := time.Duration(f.maxEvals-evalCount) * avgPerEval
			fmt.Printf("Eval %d/%d: fitness=%.4f rms=%.4f (best=%.4f) | elapsed: %s, ETA: %s\n",
				evalCount, f.maxEvals, fitness, evaluator.LastRMS(), bestFitness,
				formatDuration(elapsed), formatDuration(remaining))

			return fitness
		},
	}

	fmt.Printf("Starting CMA-ES tuning with %d parameters, population=%d, max_evals=%d\n", dim, popSize, f.maxEvals)
	fmt.Printf("Seeds per evaluation: %d, ticks per run: %d, ships: %d\n", f.seeds, f.ticks, baseCfg.Buoyancy.Ships)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		slog.Warn("optimization ended", "error", err)
	}
	if bestParams == nil {
		if result == nil {
			return fmt.Errorf("no evaluation completed: %w", err)
		}
		bestParams = params.Clamp(params.Denormalize(result.X))
	}

	fmt.Printf("\nTuning complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best fitness: %.4f\n", bestFitness)
	fmt.Println("\nBest gains:")
	for i, spec := range params.Specs {
		fmt.Printf("  %-5s %-38s %.4f\n", spec.Name, spec.Path, bestParams[i])
	}

	// Save from a fresh load so the scenario trims above are not persisted
	bestCfg, err := config.Load(f.configPath)
	if err != nil {
		return fmt.Errorf("reloading config: %w", err)
	}
	params.ApplyToConfig(bestCfg, bestParams)

	configOutPath := filepath.Join(f.outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		return fmt.Errorf("writing best config: %w", err)
	}
	fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	return nil
}
