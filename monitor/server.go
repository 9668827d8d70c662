// Package monitor serves a live HTTP view of a running simulation: controller
// state, stats windows, a websocket tick stream and runtime retuning.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/pthm-cable/steady/pid"
	"github.com/pthm-cable/steady/sim"
	"github.com/pthm-cable/steady/telemetry"
)

// Source is the part of the simulation the monitor reads and retunes.
type Source interface {
	Snapshot() *sim.Snapshot
	QueueRetune(r sim.Retune) error
	Kind(name string) (string, bool)
}

// Server is the monitor HTTP server.
type Server struct {
	src    Source
	hub    *Hub
	router *mux.Router
	http   *http.Server
}

// NewServer wires the routes for src. hub may be nil to disable streaming.
func NewServer(src Source, hub *Hub) *Server {
	s := &Server{src: src, hub: hub, router: mux.NewRouter()}

	// Routes sit on the root router so a method mismatch answers 405
	r := s.router
	r.HandleFunc("/api/snapshot", s.snapshot).Methods(http.MethodGet)
	r.HandleFunc("/api/controllers", s.listControllers).Methods(http.MethodGet)
	r.HandleFunc("/api/controllers/{name}", s.controllerDetails).Methods(http.MethodGet)
	r.HandleFunc("/api/controllers/{name}/settings", s.retune).Methods(http.MethodPut)
	r.HandleFunc("/api/stats", s.stats).Methods(http.MethodGet)
	r.HandleFunc("/api/bookmarks", s.listBookmarks).Methods(http.MethodGet)
	r.HandleFunc("/api/resources", s.resources).Methods(http.MethodGet)
	r.HandleFunc("/api/profile", s.profileCPU).Methods(http.MethodGet)
	if hub != nil {
		s.router.HandleFunc("/ws/ticks", hub.ServeWS)
	}

	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr and serves in the background. It returns the bound
// address, which differs from addr when addr asks for port 0.
func (s *Server) Start(addr string) (net.Addr, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("monitor listen %s: %w", addr, err)
	}

	s.http = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("monitor server stopped", "error", err)
		}
	}()

	slog.Info("monitor listening", "addr", listener.Addr().String())
	return listener.Addr(), nil
}

// Shutdown stops the server and disconnects stream clients.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.hub != nil {
		s.hub.Close()
	}
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) snapshot(w http.ResponseWriter, _ *http.Request) {
	snap := s.src.Snapshot()
	if snap == nil {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) listControllers(w http.ResponseWriter, _ *http.Request) {
	snap := s.src.Snapshot()
	if snap == nil {
		writeJSON(w, http.StatusOK, []sim.ControllerState{})
		return
	}
	writeJSON(w, http.StatusOK, snap.Controllers)
}

func (s *Server) controllerDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	snap := s.src.Snapshot()
	if snap == nil {
		http.NotFound(w, r)
		return
	}
	cs, ok := snap.Controller(name)
	if !ok {
		http.Error(w, fmt.Sprintf("controller %q not found", name), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (s *Server) stats(w http.ResponseWriter, _ *http.Request) {
	snap := s.src.Snapshot()
	if snap == nil || snap.Windows == nil {
		writeJSON(w, http.StatusOK, []telemetry.WindowStats{})
		return
	}
	writeJSON(w, http.StatusOK, snap.Windows)
}

func (s *Server) listBookmarks(w http.ResponseWriter, _ *http.Request) {
	snap := s.src.Snapshot()
	if snap == nil || snap.Bookmarks == nil {
		writeJSON(w, http.StatusOK, []telemetry.Bookmark{})
		return
	}
	writeJSON(w, http.StatusOK, snap.Bookmarks)
}

// retune accepts a settings body shaped for the controller's kind: scalar
// settings for steering, per-axis settings for the rest. The name may be a
// controller or a kind.
func (s *Server) retune(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	kind, ok := s.src.Kind(name)
	if !ok {
		http.Error(w, fmt.Sprintf("controller %q not found", name), http.StatusNotFound)
		return
	}

	req := sim.Retune{Controller: name}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if kind == telemetry.KindSteering {
		var settings pid.ScalarSettings
		if err := dec.Decode(&settings); err != nil {
			http.Error(w, "decoding scalar settings: "+err.Error(), http.StatusBadRequest)
			return
		}
		req.Scalar = &settings
	} else {
		var settings pid.Settings
		if err := dec.Decode(&settings); err != nil {
			http.Error(w, "decoding settings: "+err.Error(), http.StatusBadRequest)
			return
		}
		req.Settings = &settings
	}

	if err := s.src.QueueRetune(req); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, sim.ErrUnknownController) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	slog.Info("retune queued", "controller", name, "kind", kind, "remote", r.RemoteAddr)
	writeJSON(w, http.StatusAccepted, map[string]string{"controller": name, "kind": kind})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding monitor response", "error", err)
	}
}
