package sim

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/steady/telemetry"
)

// maxBookmarks is how many recent bookmarks the snapshot carries.
const maxBookmarks = 32

// recordTelemetry gathers one TickRecord per controller that ran this step.
func (s *Sim) recordTelemetry(t float64) error {
	s.records = s.records[:0]

	ships := s.ships.Query()
	for ships.Next() {
		tag, _, buoy := ships.Get()
		s.records = append(s.records, telemetry.NewTickRecord(s.tick, t, tag.Name, telemetry.KindBuoyancy, buoy.Last))
	}

	hands := s.carrier.Query()
	for hands.Next() {
		hand := hands.Get()
		if hand.Holding {
			s.records = append(s.records, telemetry.NewTickRecord(s.tick, t, hand.Name, telemetry.KindCarry, hand.Last))
		}
	}

	helms := s.helms.Query()
	for helms.Next() {
		_, _, helm := helms.Get()
		s.records = append(s.records, telemetry.NewScalarTickRecord(s.tick, t, HelmName, telemetry.KindSteering, helm.Last))
	}

	for _, rec := range s.records {
		s.collector.Record(rec)
		s.fingerprint.Add(rec)
		if phase, ok := telemetry.ControllerPhase(rec.Kind); ok {
			s.perf.CountControllers(phase, 1)
		}
	}

	if err := s.output.WriteTicks(s.records); err != nil {
		return fmt.Errorf("writing ticks: %w", err)
	}
	if err := s.trace.Write(s.records...); err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}

	if bt := s.cfg.Derived.BroadcastTicks; bt <= 1 || s.tick%bt == 0 {
		for _, sink := range s.sinks {
			sink.PublishTicks(s.tick, s.records)
		}
	}

	return nil
}

// flushTelemetry closes the stats window when it is due.
func (s *Sim) flushTelemetry() {
	if !s.collector.ShouldFlush(s.tick) {
		return
	}

	stats := s.collector.Flush(s.tick)
	perfStats := s.perf.Stats()
	s.lastWindows = stats

	for _, b := range s.bookmarks.CheckAll(stats) {
		b.LogBookmark()
		s.marks = append(s.marks, b)
	}
	if n := len(s.marks); n > maxBookmarks {
		s.marks = append(s.marks[:0:0], s.marks[n-maxBookmarks:]...)
	}

	// Log stats if enabled (console output)
	if s.logStats {
		for _, st := range stats {
			st.LogStats()
		}
		perfStats.LogStats()
	}

	if err := s.output.WriteWindows(stats); err != nil {
		slog.Error("failed to write windows", "error", err)
	}
	if err := s.output.WritePerf(perfStats, s.tick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, sink := range s.sinks {
		sink.PublishWindows(stats)
	}
}

// logWorldState logs a one-line summary of the fleet and hands.
func (s *Sim) logWorldState() {
	var (
		ships   int
		maxErr  float64
		holding int
	)
	query := s.ships.Query()
	for query.Next() {
		_, _, buoy := query.Get()
		ships++
		maxErr = max(maxErr, r3.Norm(buoy.Last.Error))
	}
	hands := s.carrier.Query()
	for hands.Next() {
		if hands.Get().Holding {
			holding++
		}
	}

	slog.Info("world",
		"tick", s.tick,
		"time", s.Time(),
		"ships", ships,
		"max_ship_error", maxErr,
		"hands_holding", holding,
		"fingerprint", s.fingerprint.String(),
	)
}
