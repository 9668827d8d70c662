package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/steady/config"
)

func TestOutputManager_NilWhenDisabled(t *testing.T) {
	om, err := NewOutputManager("", true)
	require.NoError(t, err)
	assert.Nil(t, om)

	// Every method is safe on nil
	assert.NoError(t, om.WriteTicks([]TickRecord{{}}))
	assert.NoError(t, om.WriteWindows([]WindowStats{{}}))
	assert.NoError(t, om.WritePerf(PerfStats{}, 0))
	assert.NoError(t, om.WriteConfig(nil))
	assert.Equal(t, "", om.Dir())
	assert.NoError(t, om.Close())
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestOutputManager_HeaderWrittenOnce(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir, true)
	require.NoError(t, err)

	require.NoError(t, om.WriteTicks([]TickRecord{{Tick: 1, Controller: "ship-0"}}))
	require.NoError(t, om.WriteTicks([]TickRecord{{Tick: 2, Controller: "ship-0"}, {Tick: 2, Controller: "ship-1"}}))
	require.NoError(t, om.WriteWindows([]WindowStats{{WindowEndTick: 50, Controller: "ship-0"}}))
	require.NoError(t, om.Close())

	ticks := readLines(t, filepath.Join(dir, "ticks.csv"))
	require.Len(t, ticks, 4)
	assert.True(t, strings.HasPrefix(ticks[0], "tick,time,controller,kind"))
	assert.True(t, strings.HasPrefix(ticks[3], "2,"))

	windows := readLines(t, filepath.Join(dir, "windows.csv"))
	require.Len(t, windows, 2)
	assert.NotContains(t, windows[0], "window_start")
}

func TestOutputManager_TicksOptional(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir, false)
	require.NoError(t, err)
	require.NoError(t, om.WriteTicks([]TickRecord{{Tick: 1}}))
	require.NoError(t, om.Close())

	_, err = os.Stat(filepath.Join(dir, "ticks.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestOutputManager_WriteConfig(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	dir := t.TempDir()
	om, err := NewOutputManager(dir, false)
	require.NoError(t, err)
	defer om.Close()

	require.NoError(t, om.WriteConfig(cfg))
	loaded, err := config.Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, cfg.Buoyancy.PID, loaded.Buoyancy.PID)
}
