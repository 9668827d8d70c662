package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/pprof/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResources(t *testing.T) {
	srv := httptest.NewServer(NewServer(newSim(t), nil).Handler())
	defer srv.Close()

	resp := do(t, srv, http.MethodGet, "/api/resources", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got resourceRsp
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Greater(t, got.MemorySize, uint64(0))
}

func TestProfileRejectsBadDuration(t *testing.T) {
	srv := httptest.NewServer(NewServer(newSim(t), nil).Handler())
	defer srv.Close()

	for _, q := range []string{"0", "-1", "31", "soon"} {
		resp := do(t, srv, http.MethodGet, "/api/profile?seconds="+q, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}

func TestSummarizeProfile(t *testing.T) {
	step := &profile.Function{ID: 1, Name: "sim.Step"}
	tick := &profile.Function{ID: 2, Name: "pid.Tick"}
	locStep := &profile.Location{ID: 1, Line: []profile.Line{{Function: step}}}
	locTick := &profile.Location{ID: 2, Line: []profile.Line{{Function: tick}}}

	prof := &profile.Profile{
		SampleType: []*profile.ValueType{{Type: "samples", Unit: "count"}, {Type: "cpu", Unit: "nanoseconds"}},
		Sample: []*profile.Sample{
			{Location: []*profile.Location{locTick, locStep}, Value: []int64{3, 30e6}},
			{Location: []*profile.Location{locStep}, Value: []int64{1, 10e6}},
			{Location: []*profile.Location{locTick}, Value: []int64{6, 60e6}},
			{Value: []int64{0, 0}},
		},
	}

	summary := summarizeProfile(prof, 1)
	assert.Equal(t, 4, summary.Samples)
	assert.InDelta(t, 100.0, summary.TotalMS, 1e-9)
	require.Len(t, summary.Functions, 1)
	assert.Equal(t, "pid.Tick", summary.Functions[0].Function)
	assert.InDelta(t, 90.0, summary.Functions[0].Flat, 1e-9)
	assert.InDelta(t, 0.9, summary.Functions[0].Share, 1e-9)
}
