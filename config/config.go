// Package config provides configuration loading and access for the sandbox.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/steady/pid"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all sandbox configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Waves     WavesConfig     `yaml:"waves"`
	Buoyancy  BuoyancyConfig  `yaml:"buoyancy"`
	Carry     CarryConfig     `yaml:"carry"`
	Steering  SteeringConfig  `yaml:"steering"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Monitor   MonitorConfig   `yaml:"monitor"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds viewer window settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// PhysicsConfig holds integrator parameters.
type PhysicsConfig struct {
	DT          float64 `yaml:"dt"`           // Fixed step in seconds
	LinearDrag  float64 `yaml:"linear_drag"`  // Exponential velocity decay per second
	AngularDrag float64 `yaml:"angular_drag"` // Default angular decay per second
	Mass        float64 `yaml:"mass"`         // Default body mass
	Gravity     float64 `yaml:"gravity"`      // Downward acceleration on bodies that use gravity
	Floor       float64 `yaml:"floor"`        // Height of the deck crates rest on
}

// WavesConfig drives the buoyancy setpoint and rocking torque.
type WavesConfig struct {
	Intensity         float64 `yaml:"intensity"` // Vertical setpoint amplitude
	Speed             float64 `yaml:"speed"`     // Noise time scale
	XRockingSpeed     float64 `yaml:"x_rocking_speed"`
	XRockingAmplitude float64 `yaml:"x_rocking_amplitude"`
	ZRockingSpeed     float64 `yaml:"z_rocking_speed"`
	ZRockingAmplitude float64 `yaml:"z_rocking_amplitude"`
}

// BuoyancyConfig holds the ship fleet and its stabilizing controller.
type BuoyancyConfig struct {
	PID               pid.Settings `yaml:"pid"`
	Ships             int          `yaml:"ships"`
	Spacing           float64      `yaml:"spacing"`            // Distance between anchors on the grid
	ParallelThreshold int          `yaml:"parallel_threshold"` // Fleet size at which ships tick on workers
}

// CarryConfig holds hand/attractor carrying parameters.
type CarryConfig struct {
	PID                pid.Settings `yaml:"pid"`
	InteractionRadius  float64      `yaml:"interaction_radius"`
	CarriedAngularDrag float64      `yaml:"carried_angular_drag"`
	TriggerEpsilon     float64      `yaml:"trigger_epsilon"`
	Crates             int          `yaml:"crates"`
	Hands              []HandConfig `yaml:"hands"`
}

// HandConfig places a scripted hand in the world.
type HandConfig struct {
	Name      string    `yaml:"name"`
	Position  []float64 `yaml:"position"`   // Attractor position [x, y, z]
	Forward   []float64 `yaml:"forward"`    // Facing direction [x, y, z]
	GrabAt    float64   `yaml:"grab_at"`    // Seconds until the trigger is pressed
	ReleaseAt float64   `yaml:"release_at"` // Seconds until release (0 = never)
	SweepRate float64   `yaml:"sweep_rate"` // Yaw sweep while holding, deg/s
}

// SteeringConfig holds the helm wheel controller.
type SteeringConfig struct {
	PID         pid.ScalarSettings `yaml:"pid"`
	MaxRotation float64            `yaml:"max_rotation"` // Wheel travel either side of centre, degrees
	WheelGain   float64            `yaml:"wheel_gain"`   // Wheel degrees per unit controller force
	TurnRate    float64            `yaml:"turn_rate"`    // Ship yaw deg/s at full lock
	Course      []CourseLeg        `yaml:"course"`
}

// CourseLeg sets a heading target from a point in time onwards.
type CourseLeg struct {
	At      float64 `yaml:"at"`
	Heading float64 `yaml:"heading"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	LogInterval         float64 `yaml:"log_interval"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
	TraceBatchSize      int     `yaml:"trace_batch_size"`
	RecordTicks         bool    `yaml:"record_ticks"`     // Write every controller tick to ticks.csv
	BookmarkHistory     int     `yaml:"bookmark_history"` // Windows of history per controller for bookmarks
	SettleRMS           float64 `yaml:"settle_rms"`       // RMS error below which a controller counts as settled
}

// MonitorConfig holds the HTTP monitor settings.
type MonitorConfig struct {
	Addr              string  `yaml:"addr"`
	BroadcastInterval float64 `yaml:"broadcast_interval"` // Seconds of sim time between websocket pushes
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	StatsWindowTicks int32 // Telemetry.StatsWindow in ticks
	LogIntervalTicks int32 // Telemetry.LogInterval in ticks
	BroadcastTicks   int32 // Monitor.BroadcastInterval in ticks
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only fields present in the file are overwritten
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// Clone returns a deep copy via a YAML round trip.
func (c *Config) Clone() (*Config, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	out := &Config{}
	if err := yaml.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	out.computeDerived()
	return out, nil
}

func (c *Config) computeDerived() {
	c.Derived.StatsWindowTicks = c.secondsToTicks(c.Telemetry.StatsWindow)
	c.Derived.LogIntervalTicks = c.secondsToTicks(c.Telemetry.LogInterval)
	c.Derived.BroadcastTicks = c.secondsToTicks(c.Monitor.BroadcastInterval)
}

func (c *Config) secondsToTicks(sec float64) int32 {
	if c.Physics.DT <= 0 {
		return 1
	}
	ticks := int32(sec / c.Physics.DT)
	if ticks < 1 {
		ticks = 1
	}
	return ticks
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Env holds settings taken from the process environment.
type Env struct {
	ConfigPath  string
	OutputDir   string
	MonitorAddr string
	Seed        int64
}

// Environment variable names.
const (
	EnvConfig      = "STEADY_CONFIG"
	EnvOutputDir   = "STEADY_OUTPUT_DIR"
	EnvMonitorAddr = "STEADY_MONITOR_ADDR"
	EnvSeed        = "STEADY_SEED"
)

// LoadEnv reads the given .env files (a missing file is not an error) and
// then the STEADY_* variables. Variables already set in the environment win
// over .env entries.
func LoadEnv(files ...string) (Env, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Env{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	env := Env{
		ConfigPath:  os.Getenv(EnvConfig),
		OutputDir:   os.Getenv(EnvOutputDir),
		MonitorAddr: os.Getenv(EnvMonitorAddr),
	}
	if s := os.Getenv(EnvSeed); s != "" {
		seed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Env{}, fmt.Errorf("parsing %s: %w", EnvSeed, err)
		}
		env.Seed = seed
	}
	return env, nil
}
