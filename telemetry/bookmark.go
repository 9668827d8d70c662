package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkErrorSpike BookmarkType = "error_spike"
	BookmarkSaturating BookmarkType = "saturating"
	BookmarkSettled    BookmarkType = "settled"
)

// Window counts and ratios for the detectors.
const (
	spikeFactor     = 3.0 // RMS over this many times the rolling mean
	spikeMinRMS     = 1e-3
	saturatingFrac  = 0.5
	settledWindows  = 5
	minSpikeHistory = 3
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `json:"type"`
	Controller  string       `json:"controller"`
	Tick        int32        `json:"tick"`
	Description string       `json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"controller", b.Controller,
		"tick", b.Tick,
		"description", b.Description,
	)
}

// controllerHistory is a rolling window history for one controller.
type controllerHistory struct {
	history     []WindowStats
	historyIdx  int
	historyFull bool

	saturating     bool // Last window was at or above saturatingFrac
	settledCount   int  // Consecutive windows under the settle threshold
	settledLatched bool // Settled bookmark already emitted for this run of windows
}

func (h *controllerHistory) add(stats WindowStats) {
	h.history[h.historyIdx] = stats
	h.historyIdx = (h.historyIdx + 1) % len(h.history)
	if h.historyIdx == 0 {
		h.historyFull = true
	}
}

func (h *controllerHistory) get() []WindowStats {
	if h.historyFull {
		return h.history
	}
	return h.history[:h.historyIdx]
}

// BookmarkDetector flags notable windows per controller: error spikes
// against the controller's own history, the onset of saturation and
// settling under a fixed RMS threshold.
type BookmarkDetector struct {
	historySize int
	settleRMS   float64
	controllers map[string]*controllerHistory
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int, settleRMS float64) *BookmarkDetector {
	if historySize < minSpikeHistory {
		historySize = minSpikeHistory
	}
	return &BookmarkDetector{
		historySize: historySize,
		settleRMS:   settleRMS,
		controllers: make(map[string]*controllerHistory),
	}
}

// Check analyzes one controller's latest window and returns any triggered
// bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	h, ok := bd.controllers[stats.Controller]
	if !ok {
		h = &controllerHistory{history: make([]WindowStats, bd.historySize)}
		bd.controllers[stats.Controller] = h
	}

	var bookmarks []Bookmark
	if b := bd.checkErrorSpike(h, stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkSaturating(h, stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkSettled(h, stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	h.add(stats)
	return bookmarks
}

// CheckAll runs Check over a flushed set of windows.
func (bd *BookmarkDetector) CheckAll(stats []WindowStats) []Bookmark {
	var bookmarks []Bookmark
	for _, st := range stats {
		bookmarks = append(bookmarks, bd.Check(st)...)
	}
	return bookmarks
}

func (bd *BookmarkDetector) checkErrorSpike(h *controllerHistory, stats WindowStats) *Bookmark {
	history := h.get()
	if len(history) < minSpikeHistory {
		return nil
	}

	var total float64
	for _, w := range history {
		total += w.ErrRMS
	}
	avg := total / float64(len(history))

	if stats.ErrRMS > spikeMinRMS && stats.ErrRMS > avg*spikeFactor {
		ratio := stats.ErrRMS / max(avg, spikeMinRMS)
		return &Bookmark{
			Type:        BookmarkErrorSpike,
			Controller:  stats.Controller,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("RMS error %.4f is %.1fx average (%.4f)", stats.ErrRMS, ratio, avg),
		}
	}
	return nil
}

// checkSaturating triggers when a controller starts spending most of a
// window on its limits.
func (bd *BookmarkDetector) checkSaturating(h *controllerHistory, stats WindowStats) *Bookmark {
	was := h.saturating
	h.saturating = stats.SaturatedFrac >= saturatingFrac
	if !h.saturating || was {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkSaturating,
		Controller:  stats.Controller,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%.0f%% of ticks on a limit", stats.SaturatedFrac*100),
	}
}

// checkSettled triggers once after settledWindows consecutive windows under
// the threshold, and again only after the controller leaves the band.
func (bd *BookmarkDetector) checkSettled(h *controllerHistory, stats WindowStats) *Bookmark {
	if bd.settleRMS <= 0 || stats.ErrRMS >= bd.settleRMS {
		h.settledCount = 0
		h.settledLatched = false
		return nil
	}

	h.settledCount++
	if h.settledCount < settledWindows || h.settledLatched {
		return nil
	}
	h.settledLatched = true
	return &Bookmark{
		Type:        BookmarkSettled,
		Controller:  stats.Controller,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("RMS error under %.4f for %d windows", bd.settleRMS, h.settledCount),
	}
}
