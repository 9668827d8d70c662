// PID step response preview tool - interactive gains with sliders.
//
// Usage: go run ./cmd/pidpreview
package main

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/steady/pid"
)

const (
	windowWidth  = 1100
	windowHeight = 720
	plotWidth    = 620
	plotHeight   = 440
	panelWidth   = windowWidth - plotWidth - 40
)

var (
	setpointColor = rl.Color{R: 60, G: 170, B: 90, A: 255}
	positionColor = rl.Color{R: 210, G: 70, B: 60, A: 255}
	forceColor    = rl.Color{R: 90, G: 120, B: 200, A: 160}
)

// slider is one labelled raygui slider bound to a float64.
type slider struct {
	label    string
	min, max float32
	format   string
	value    *float64
}

func defaults() (pid.ScalarSettings, PlantParams) {
	return pid.ScalarSettings{
			ProportionalGain: 500,
			IntegralGain:     2,
			DerivativeGain:   15000,
			PMax:             5000,
			IMax:             1000,
			DMax:             20000,
		}, PlantParams{
			Mass:     1,
			Drag:     0.5,
			Gravity:  0,
			DT:       0.02,
			Duration: 15,
			StepAt:   1,
			Target:   1,
		}
}

func main() {
	rl.InitWindow(windowWidth, windowHeight, "PID Step Response Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	settings, plant := defaults()

	sliders := []slider{
		{"P gain", 0, 2000, "%.0f", &settings.ProportionalGain},
		{"I gain", 0, 50, "%.2f", &settings.IntegralGain},
		{"D gain", 0, 60000, "%.0f", &settings.DerivativeGain},
		{"P max", 1, 20000, "%.0f", &settings.PMax},
		{"I max", 0, 5000, "%.0f", &settings.IMax},
		{"D max", 1, 80000, "%.0f", &settings.DMax},
		{"Mass", 0.1, 10, "%.2f", &plant.Mass},
		{"Drag", 0, 5, "%.2f", &plant.Drag},
		{"Gravity", 0, 20, "%.2f", &plant.Gravity},
		{"Target", -5, 5, "%.2f", &plant.Target},
	}

	samples := Simulate(settings, plant)
	metrics := Measure(samples, plant)
	needsRegen := false

	for !rl.WindowShouldClose() {
		if needsRegen {
			samples = Simulate(settings, plant)
			metrics = Measure(samples, plant)
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		plot := rl.Rectangle{X: 10, Y: 10, Width: plotWidth, Height: plotHeight}
		drawPlot(plot, samples, plant)

		statsY := int32(plot.Y + plot.Height + 15)
		settle := "never"
		if metrics.SettleTime >= 0 {
			settle = fmt.Sprintf("%.2fs", metrics.SettleTime)
		}
		rl.DrawText(fmt.Sprintf("Overshoot: %.1f%%  Settle (2%%): %s", metrics.Overshoot*100, settle), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Steady error: %.4f  Saturated: %.1f%%", metrics.SteadyError, metrics.Saturated*100), 15, statsY+20, 16, rl.DarkGray)
		rl.DrawText("Setpoint", 15, statsY+50, 14, setpointColor)
		rl.DrawText("Position", 90, statsY+50, 14, positionColor)
		rl.DrawText("Force", 165, statsY+50, 14, forceColor)

		// Control panel
		panelX := float32(plotWidth + 30)
		panelY := float32(10)

		rl.DrawText("Controller and Plant", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		for _, s := range sliders {
			rl.DrawText(s.label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			newValue := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
				"", "",
				float32(*s.value), s.min, s.max,
			)
			rl.DrawText(fmt.Sprintf(s.format, *s.value), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
			if newValue != float32(*s.value) {
				*s.value = float64(newValue)
				needsRegen = true
			}
			panelY += 30
		}

		panelY += 5
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			settings, plant = defaults()
			needsRegen = true
		}
		panelY += 45

		yamlText := settingsYAML(settings)
		rl.DrawText("Config snippet:", int32(panelX), int32(panelY), 14, rl.DarkGray)
		panelY += 18
		rl.DrawText(yamlText, int32(panelX), int32(panelY), 14, rl.Gray)

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(yamlText)
		}

		rl.EndDrawing()
	}
}

// settingsYAML formats scalar settings as a steering.pid block.
func settingsYAML(s pid.ScalarSettings) string {
	return fmt.Sprintf(`pid:
  proportional_gain: %.2f
  integral_gain: %.2f
  derivative_gain: %.2f
  p_max: %.2f
  i_max: %.2f
  d_max: %.2f`,
		s.ProportionalGain, s.IntegralGain, s.DerivativeGain, s.PMax, s.IMax, s.DMax)
}

// drawPlot draws setpoint, position and scaled force against time.
func drawPlot(r rl.Rectangle, samples []Sample, plant PlantParams) {
	rl.DrawRectangleRec(r, rl.Color{R: 245, G: 245, B: 245, A: 255})
	rl.DrawRectangleLinesEx(r, 1, rl.DarkGray)
	if len(samples) < 2 {
		return
	}

	// Vertical range covers both 0 and the target with margin, plus any excursion
	lo, hi := min(0, plant.Target), max(0, plant.Target)
	var forceMax float64
	for _, s := range samples {
		lo = min(lo, s.Position)
		hi = max(hi, s.Position)
		forceMax = max(forceMax, abs(s.Out.Force))
	}
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = 1
	}
	lo -= pad
	hi += pad

	toScreen := func(t, v float64) rl.Vector2 {
		x := r.X + float32(t/plant.Duration)*r.Width
		y := r.Y + r.Height - float32((v-lo)/(hi-lo))*r.Height
		return rl.Vector2{X: x, Y: y}
	}

	// Zero line
	rl.DrawLineV(toScreen(0, 0), toScreen(plant.Duration, 0), rl.LightGray)

	mid := (hi + lo) / 2
	span := (hi - lo) / 2
	for i := 1; i < len(samples); i++ {
		a, b := samples[i-1], samples[i]
		if forceMax > 0 {
			fa := mid + a.Out.Force/forceMax*span
			fb := mid + b.Out.Force/forceMax*span
			rl.DrawLineV(toScreen(a.Time, fa), toScreen(b.Time, fb), forceColor)
		}
		rl.DrawLineV(toScreen(a.Time, a.Setpoint), toScreen(b.Time, b.Setpoint), setpointColor)
		rl.DrawLineEx(toScreen(a.Time, a.Position), toScreen(b.Time, b.Position), 2, positionColor)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
