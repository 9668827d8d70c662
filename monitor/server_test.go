package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/steady/config"
	"github.com/pthm-cable/steady/pid"
	"github.com/pthm-cable/steady/sim"
	"github.com/pthm-cable/steady/telemetry"
)

func newSim(t *testing.T) *sim.Sim {
	t.Helper()
	config.MustInit("")
	cfg, err := config.Cfg().Clone()
	require.NoError(t, err)
	cfg.Buoyancy.Ships = 2
	return sim.New(cfg, sim.Options{Seed: 1})
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestListControllers(t *testing.T) {
	s := newSim(t)
	srv := httptest.NewServer(NewServer(s, nil).Handler())
	defer srv.Close()

	resp := do(t, srv, http.MethodGet, "/api/controllers", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []sim.ControllerState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Len(t, got, len(s.Snapshot().Controllers))

	names := make([]string, 0, len(got))
	for _, c := range got {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, sim.HelmName)
	assert.Contains(t, names, "ship-1")
}

func TestControllerDetails(t *testing.T) {
	s := newSim(t)
	srv := httptest.NewServer(NewServer(s, nil).Handler())
	defer srv.Close()

	resp := do(t, srv, http.MethodGet, "/api/controllers/"+sim.HelmName, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cs sim.ControllerState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cs))
	assert.Equal(t, telemetry.KindSteering, cs.Kind)
	assert.NotNil(t, cs.ScalarSettings)

	resp = do(t, srv, http.MethodGet, "/api/controllers/ship-99", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRetuneEndpoint(t *testing.T) {
	s := newSim(t)
	srv := httptest.NewServer(NewServer(s, nil).Handler())
	defer srv.Close()

	settings := pid.Uniform(7, 0, 3, 100, 10, 100)
	resp := do(t, srv, http.MethodPut, "/api/controllers/ship-1/settings", settings)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.NoError(t, s.Step(context.Background()))
	cs, ok := s.Snapshot().Controller("ship-1")
	require.True(t, ok)
	assert.Equal(t, settings, *cs.Settings)

	scalar := settings.Axis(pid.AxisX)
	resp = do(t, srv, http.MethodPut, "/api/controllers/"+sim.HelmName+"/settings", scalar)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestRetuneEndpointErrors(t *testing.T) {
	s := newSim(t)
	srv := httptest.NewServer(NewServer(s, nil).Handler())
	defer srv.Close()

	settings := pid.Uniform(1, 1, 1, 1, 1, 1)

	resp := do(t, srv, http.MethodPut, "/api/controllers/nope/settings", settings)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Per-axis body sent to the scalar helm
	resp = do(t, srv, http.MethodPut, "/api/controllers/"+sim.HelmName+"/settings", settings)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodPut, "/api/controllers/ship-0/settings", map[string]string{"gain": "high"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/controllers/ship-0/settings", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	s := newSim(t)
	srv := httptest.NewServer(NewServer(s, nil).Handler())
	defer srv.Close()

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/snapshot"},
		{http.MethodDelete, "/api/controllers/ship-0"},
		{http.MethodPost, "/api/controllers/ship-0/settings"},
		{http.MethodPut, "/api/stats"},
	}
	for _, tt := range tests {
		resp := do(t, srv, tt.method, tt.path, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, "%s %s", tt.method, tt.path)
	}

	resp := do(t, srv, http.MethodGet, "/api/nothing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatsEmptyBeforeFirstWindow(t *testing.T) {
	s := newSim(t)
	srv := httptest.NewServer(NewServer(s, nil).Handler())
	defer srv.Close()

	resp := do(t, srv, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got []telemetry.WindowStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Empty(t, got)
}

func TestBookmarksEmpty(t *testing.T) {
	s := newSim(t)
	srv := httptest.NewServer(NewServer(s, nil).Handler())
	defer srv.Close()

	resp := do(t, srv, http.MethodGet, "/api/bookmarks", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got []telemetry.Bookmark
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Empty(t, got)
}

func TestTickStream(t *testing.T) {
	s := newSim(t)
	hub := NewHub()
	srv := httptest.NewServer(NewServer(s, hub).Handler())
	defer srv.Close()
	defer hub.Close()

	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/ticks"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	records := []telemetry.TickRecord{{Tick: 3, Controller: "ship-0", Kind: telemetry.KindBuoyancy, ErrY: 0.5}}
	hub.PublishTicks(3, records)
	records[0].ErrY = 99 // Caller may reuse the slice

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "ticks", msg.Type)
	assert.Equal(t, int32(3), msg.Tick)
	require.Len(t, msg.Records, 1)
	assert.Equal(t, 0.5, msg.Records[0].ErrY)

	hub.PublishWindows([]telemetry.WindowStats{{Controller: "ship-0", Ticks: 5}})
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "windows", msg.Type)
	require.Len(t, msg.Windows, 1)
	assert.Equal(t, 5, msg.Windows[0].Ticks)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHubWithoutClients(t *testing.T) {
	hub := NewHub()
	hub.PublishTicks(1, nil)
	hub.PublishWindows(nil)
	assert.Equal(t, 0, hub.Clients())
	assert.Equal(t, uint64(0), hub.Dropped())
}
