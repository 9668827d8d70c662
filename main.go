package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/pthm-cable/steady/config"
	"github.com/pthm-cable/steady/monitor"
	"github.com/pthm-cable/steady/sim"
	"github.com/pthm-cable/steady/telemetry"
)

// flags shared by run and view
type runFlags struct {
	configPath  string
	seed        int64
	maxTicks    int32
	outputDir   string
	trace       bool
	monitorAddr string
	logStats    bool
	openBrowser bool
	debug       bool
}

var flags runFlags

var rootCmd = &cobra.Command{
	Use:   "steady",
	Short: "PID controller sandbox: buoyant ships, carried crates and a helm.",
	Long: `steady runs a fleet of wave-tossed ships held in place by 3-axis PID ` +
		`controllers, hands carrying crates with a PID attractor and a helm ` +
		`steering a course, and records how well every controller tracks.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulation headless",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runHeadless(cmd.Context(), flags)
	},
}

func init() {
	for _, c := range []*cobra.Command{runCmd, viewCmd} {
		f := c.Flags()
		f.StringVar(&flags.configPath, "config", "", "Path to config.yaml (empty = use defaults)")
		f.Int64Var(&flags.seed, "seed", 0, "RNG seed (0 = time-based)")
		f.Int32Var(&flags.maxTicks, "max-ticks", 0, "Stop after N ticks (0 = unlimited)")
		f.StringVar(&flags.outputDir, "output-dir", "", "Output directory for CSV logs and config snapshot")
		f.BoolVar(&flags.trace, "trace", false, "Record every controller tick to a SQLite trace in the output directory")
		f.StringVar(&flags.monitorAddr, "monitor", "", "Serve the monitor API on this address (e.g. :8080)")
		f.BoolVar(&flags.logStats, "log-stats", false, "Output window and perf stats via slog")
		f.BoolVar(&flags.openBrowser, "open", false, "Open the monitor snapshot in a browser once it is listening")
	}
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")
	rootCmd.AddCommand(runCmd, viewCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("steady failed", "error", err)
		os.Exit(1)
	}
}

// session is a simulation plus its outputs.
type session struct {
	cfg    *config.Config
	sim    *sim.Sim
	output *telemetry.OutputManager
	trace  *telemetry.TraceWriter
	server *monitor.Server
}

// newSession resolves flags against the environment and config, then
// builds the simulation and its sinks. Flags win over STEADY_* variables.
func newSession(f runFlags) (*session, error) {
	level := slog.LevelInfo
	if f.debug {
		level = slog.LevelDebug
	}
	// Set up slog (JSON to stdout for structured logging)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	env, err := config.LoadEnv(".env")
	if err != nil {
		return nil, err
	}

	configPath := firstNonEmpty(f.configPath, env.ConfigPath)
	if err := config.Init(configPath); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg := config.Cfg()

	seed := f.seed
	if seed == 0 {
		seed = env.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &session{cfg: cfg}

	outputDir := firstNonEmpty(f.outputDir, env.OutputDir)
	if f.trace && outputDir == "" {
		return nil, errors.New("--trace needs an output directory")
	}
	if s.output, err = telemetry.NewOutputManager(outputDir, cfg.Telemetry.RecordTicks); err != nil {
		return nil, err
	}
	if err := s.output.WriteConfig(cfg); err != nil {
		s.close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}
	if f.trace {
		if s.trace, err = telemetry.NewTraceWriter(outputDir, cfg.Telemetry.TraceBatchSize); err != nil {
			s.close()
			return nil, err
		}
	}

	opts := sim.Options{
		Seed:     seed,
		LogStats: f.logStats,
		Output:   s.output,
		Trace:    s.trace,
	}

	var hub *monitor.Hub
	monitorAddr := firstNonEmpty(f.monitorAddr, env.MonitorAddr, cfg.Monitor.Addr)
	if monitorAddr != "" {
		hub = monitor.NewHub()
		opts.Sinks = append(opts.Sinks, hub)
	}

	s.sim = sim.New(cfg, opts)

	if hub != nil {
		s.server = monitor.NewServer(s.sim, hub)
		addr, err := s.server.Start(monitorAddr)
		if err != nil {
			s.close()
			return nil, err
		}
		if f.openBrowser {
			openMonitor(addr)
		}
	}

	slog.Info("session ready",
		"seed", seed,
		"config", configPath,
		"output_dir", outputDir,
		"trace", s.trace.Path(),
		"monitor", monitorAddr,
		"ships", cfg.Buoyancy.Ships,
		"hands", len(cfg.Carry.Hands),
	)
	return s, nil
}

// close flushes every sink and logs the run fingerprint.
func (s *session) close() {
	if s.sim != nil {
		fp := s.sim.Fingerprint()
		slog.Info("run finished",
			"tick", s.sim.Tick(),
			"seed", s.sim.Seed(),
			"fingerprint", fp.String(),
			"controller_ticks", fp.Ticks(),
		)
	}
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := s.server.Shutdown(ctx); err != nil {
			slog.Error("monitor shutdown", "error", err)
		}
		cancel()
	}
	if err := s.trace.Close(); err != nil {
		slog.Error("closing trace", "error", err)
	}
	if err := s.output.Close(); err != nil {
		slog.Error("closing output", "error", err)
	}
}

func runHeadless(ctx context.Context, f runFlags) error {
	s, err := newSession(f)
	if err != nil {
		return err
	}
	defer s.close()

	slog.Info("starting headless simulation", "max_ticks", f.maxTicks)
	err = s.sim.Run(ctx, f.maxTicks)
	if errors.Is(err, context.Canceled) {
		slog.Info("interrupted", "tick", s.sim.Tick())
		return nil
	}
	return err
}

// openMonitor points a browser at the snapshot endpoint. Failure is logged
// only; headless hosts often have no browser.
func openMonitor(addr net.Addr) {
	host := "localhost"
	port := ""
	if tcp, ok := addr.(*net.TCPAddr); ok {
		if !tcp.IP.IsUnspecified() {
			host = tcp.IP.String()
		}
		port = strconv.Itoa(tcp.Port)
	}
	url := "http://" + net.JoinHostPort(host, port) + "/api/snapshot"
	if err := browser.OpenURL(url); err != nil {
		slog.Warn("could not open browser", "url", url, "error", err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
