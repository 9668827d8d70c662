// Package ui draws the 2D overlays of the viewer.
package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/steady/sim"
	"github.com/pthm-cable/steady/telemetry"
)

var panelColor = rl.Color{R: 20, G: 25, B: 30, A: 220}

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title       string
	Tick        int32
	Time        float64
	Speed       int
	FPS         int32
	Paused      bool
	Gizmos      bool
	Fingerprint string
}

// HUD renders the main heads-up display.
type HUD struct{}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Tick: %d | Time: %.1fs | Speed: %dx | FPS: %d", data.Tick, data.Time, data.Speed, data.FPS),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(fmt.Sprintf("Fingerprint: %s", data.Fingerprint), 10, 55, 14, rl.Gray)

	statusText := "Running"
	if data.Paused {
		statusText = "PAUSED"
	}
	if !data.Gizmos {
		statusText += " | gizmos off"
	}
	rl.DrawText(statusText, 10, 75, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// ControllerPanel lists each controller's error and output.
type ControllerPanel struct {
	x, y, width int32
}

// NewControllerPanel creates a panel at (x, y).
func NewControllerPanel(x, y, width int32) *ControllerPanel {
	return &ControllerPanel{x: x, y: y, width: width}
}

// SetPosition updates the panel position.
func (p *ControllerPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders one row per controller. Idle controllers are dimmed and
// saturated ones highlighted.
func (p *ControllerPanel) Draw(controllers []sim.ControllerState) {
	const lineHeight = 14
	height := int32(26 + lineHeight*len(controllers))
	rl.DrawRectangle(p.x, p.y, p.width, height, panelColor)

	y := p.y + 6
	rl.DrawText("Controllers", p.x+8, y, 16, rl.White)
	y += 20

	for _, c := range controllers {
		color := rl.LightGray
		switch {
		case !c.Active:
			color = rl.DarkGray
		case c.Saturated:
			color = rl.Orange
		}

		text := fmt.Sprintf("%-10s %-9s |e| %7.3f  |F| %8.2f", c.Name, c.Kind, r3.Norm(c.Error), r3.Norm(c.Force))
		if c.Kind == telemetry.KindSteering {
			text = fmt.Sprintf("%-10s %-9s  e  %7.2f  out %8.2f", c.Name, c.Kind, c.Error.X, c.Force.X)
		}
		rl.DrawText(text, p.x+8, y, 12, color)
		y += lineHeight
	}
}

// PerfPanel renders the step phase timings.
type PerfPanel struct {
	x, y int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x := p.x
	y := p.y

	rl.DrawText("Step Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Avg: %s  p95: %s (%.0f ticks/s)",
		stats.AvgTick.Round(time.Microsecond), stats.P95Tick.Round(time.Microsecond), stats.TicksPerSecond), x, y, 14, rl.Yellow)
	y += 16

	for _, ps := range stats.Phases {
		pct := ps.Share * 100
		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}

		line := fmt.Sprintf("%-10s %8s %5.1f%%", ps.Phase, ps.Avg.Round(time.Microsecond), pct)
		if ps.PerController > 0 {
			line += fmt.Sprintf("  %s/ctrl", ps.PerController.Round(10*time.Nanosecond))
		}
		rl.DrawText(line, x, y, 12, color)
		y += 14
	}
}
