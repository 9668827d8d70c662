package telemetry

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceWriter_BatchesAndCounts(t *testing.T) {
	tw, err := NewTraceWriter(t.TempDir(), 3)
	require.NoError(t, err)
	defer tw.Close()

	assert.True(t, strings.HasSuffix(tw.Path(), ".sqlite3"))
	_, err = os.Stat(tw.Path())
	require.NoError(t, err)

	require.NoError(t, tw.Write(TickRecord{Tick: 1, Controller: "a"}, TickRecord{Tick: 1, Controller: "b"}))
	n, err := tw.CountTicks("")
	require.NoError(t, err)
	assert.Equal(t, 0, n, "below batch size nothing is written")

	require.NoError(t, tw.Write(TickRecord{Tick: 2, Controller: "a", Saturated: true}))
	n, err = tw.CountTicks("")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = tw.CountTicks("a")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestTraceWriter_FlushOnClose(t *testing.T) {
	dir := t.TempDir()
	tw, err := NewTraceWriter(dir, 100)
	require.NoError(t, err)
	require.NoError(t, tw.Write(TickRecord{Tick: 1, Controller: "a"}))
	require.NoError(t, tw.Flush())

	n, err := tw.CountTicks("a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, tw.Close())
}

func TestTraceWriter_NilIsNoop(t *testing.T) {
	var tw *TraceWriter
	assert.NoError(t, tw.Write(TickRecord{}))
	assert.NoError(t, tw.Flush())
	assert.NoError(t, tw.Close())
	assert.Equal(t, "", tw.Path())
}
