package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 0.02, cfg.Physics.DT)
	assert.Greater(t, cfg.Buoyancy.Ships, 0)
	assert.Equal(t, 500.0, cfg.Buoyancy.PID.ProportionalGain.Y)
	assert.Nil(t, cfg.Buoyancy.PID.PMin, "minimums default to the negated maximum")
	require.NotEmpty(t, cfg.Carry.Hands)
	assert.Len(t, cfg.Carry.Hands[0].Position, 3)
	require.NotEmpty(t, cfg.Steering.Course)
	assert.Equal(t, 10, cfg.Telemetry.BookmarkHistory)
	assert.Equal(t, 0.05, cfg.Telemetry.SettleRMS)

	assert.Equal(t, int32(250), cfg.Derived.StatsWindowTicks)
	assert.Equal(t, int32(500), cfg.Derived.LogIntervalTicks)
	assert.Equal(t, int32(5), cfg.Derived.BroadcastTicks)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	data := []byte(`
physics:
  dt: 0.01
buoyancy:
  ships: 12
  pid:
    p_min: {x: -1, y: -2, z: -3}
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.01, cfg.Physics.DT)
	assert.Equal(t, 12, cfg.Buoyancy.Ships)
	require.NotNil(t, cfg.Buoyancy.PID.PMin)
	assert.Equal(t, -2.0, cfg.Buoyancy.PID.PMin.Y)
	// Untouched keys keep their defaults
	assert.Equal(t, 500.0, cfg.Buoyancy.PID.ProportionalGain.X)
	assert.Equal(t, 9.81, cfg.Physics.Gravity)
	assert.Equal(t, int32(500), cfg.Derived.StatsWindowTicks)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSecondsToTicksMinimumOne(t *testing.T) {
	cfg := &Config{Physics: PhysicsConfig{DT: 0.02}}
	assert.Equal(t, int32(1), cfg.secondsToTicks(0))
	assert.Equal(t, int32(50), cfg.secondsToTicks(1))

	cfg.Physics.DT = 0
	assert.Equal(t, int32(1), cfg.secondsToTicks(10))
}

func TestCloneIsDeep(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	clone, err := cfg.Clone()
	require.NoError(t, err)
	clone.Carry.Hands[0].Name = "changed"
	clone.Buoyancy.PID.ProportionalGain.X = -1

	assert.NotEqual(t, "changed", cfg.Carry.Hands[0].Name)
	assert.Equal(t, 500.0, cfg.Buoyancy.PID.ProportionalGain.X)
	assert.Equal(t, cfg.Derived, clone.Derived)
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv(EnvSeed, "")
	t.Setenv(EnvOutputDir, "")
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvMonitorAddr, "")

	dotenv := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("STEADY_OUTPUT_DIR=runs/a\n"), 0644))
	t.Setenv(EnvSeed, "17")
	os.Unsetenv(EnvOutputDir)

	env, err := LoadEnv(dotenv, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, int64(17), env.Seed)
	assert.Equal(t, "runs/a", env.OutputDir)
	assert.Equal(t, "", env.ConfigPath)
}

func TestLoadEnvBadSeed(t *testing.T) {
	t.Setenv(EnvSeed, "not-a-number")
	_, err := LoadEnv()
	assert.Error(t, err)
}
