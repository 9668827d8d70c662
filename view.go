package main

import (
	"context"
	"errors"
	"log/slog"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/spf13/cobra"

	"github.com/pthm-cable/steady/camera"
	"github.com/pthm-cable/steady/renderer"
	"github.com/pthm-cable/steady/sim"
	"github.com/pthm-cable/steady/ui"
)

const viewControls = "Space: pause | +/-: speed | RMB drag: orbit | Wheel: zoom | WASD: pan | F: follow helm | G: gizmos | R: reset"

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Run the simulation in a 3D window",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runViewer(cmd.Context(), flags)
	},
}

func runViewer(ctx context.Context, f runFlags) error {
	s, err := newSession(f)
	if err != nil {
		return err
	}
	defer s.close()
	cfg := s.cfg

	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Steady")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	// Look at the middle of the fleet grid
	cols := math.Ceil(math.Sqrt(float64(max(cfg.Buoyancy.Ships, 1))))
	centre := float32((cols - 1) * cfg.Buoyancy.Spacing / 2)
	cam := camera.New(centre, 0, centre, float32(cols*cfg.Buoyancy.Spacing+20))

	scene := renderer.NewScene(s.sim.World())
	hud := ui.NewHUD()
	controllers := ui.NewControllerPanel(10, 100, 420)
	perf := ui.NewPerfPanel(int32(cfg.Screen.Width)-240, 10)

	speed := 1
	paused := false
	follow := false

	for !rl.WindowShouldClose() {
		if ctx.Err() != nil {
			break
		}

		switch {
		case rl.IsKeyPressed(rl.KeySpace):
			paused = !paused
		case rl.IsKeyPressed(rl.KeyEqual), rl.IsKeyPressed(rl.KeyKpAdd):
			speed = min(speed*2, 64)
		case rl.IsKeyPressed(rl.KeyMinus), rl.IsKeyPressed(rl.KeyKpSubtract):
			speed = max(speed/2, 1)
		case rl.IsKeyPressed(rl.KeyG):
			scene.ShowGizmos = !scene.ShowGizmos
		case rl.IsKeyPressed(rl.KeyF):
			follow = !follow
		case rl.IsKeyPressed(rl.KeyR):
			follow = false
			cam.Reset()
		}
		handleCameraInput(cam)

		if !paused {
			for i := 0; i < speed; i++ {
				if f.maxTicks > 0 && s.sim.Tick() >= f.maxTicks {
					break
				}
				if err := s.sim.Step(ctx); err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
			}
		}
		s.sim.Perf().RecordFrame()

		snap := s.sim.Snapshot()
		if follow {
			if helm, ok := snap.Controller(sim.HelmName); ok {
				// The helm reports heading; follow the flagship it steers
				if ship, ok := snap.Controller("ship-0"); ok {
					cam.Follow(float32(ship.ProcessValue.X), 0, float32(ship.ProcessValue.Z))
				}
				cam.Yaw = float32(helm.ProcessValue.X) + 180
			}
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.Color{R: 18, G: 32, B: 48, A: 255})

		rl.BeginMode3D(renderer.Camera3D(cam))
		scene.Draw()
		rl.EndMode3D()

		hud.Draw(ui.HUDData{
			Title:       "Steady",
			Tick:        snap.Tick,
			Time:        snap.Time,
			Speed:       speed,
			FPS:         rl.GetFPS(),
			Paused:      paused,
			Gizmos:      scene.ShowGizmos,
			Fingerprint: snap.Fingerprint,
		})
		controllers.Draw(snap.Controllers)
		perf.SetPosition(int32(rl.GetScreenWidth())-240, 10)
		perf.Draw(s.sim.Perf().Stats())
		hud.DrawControls(int32(rl.GetScreenHeight()), viewControls)

		rl.EndDrawing()
	}

	slog.Info("viewer closed", "tick", s.sim.Tick())
	return nil
}

func handleCameraInput(cam *camera.Camera) {
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		delta := rl.GetMouseDelta()
		cam.Orbit(-delta.X*0.3, delta.Y*0.3)
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		cam.ZoomBy(1 + wheel*0.1)
	}

	step := cam.Distance * 0.01
	var right, forward float32
	if rl.IsKeyDown(rl.KeyW) {
		forward += step
	}
	if rl.IsKeyDown(rl.KeyS) {
		forward -= step
	}
	if rl.IsKeyDown(rl.KeyD) {
		right += step
	}
	if rl.IsKeyDown(rl.KeyA) {
		right -= step
	}
	if right != 0 || forward != 0 {
		cam.Pan(right, forward)
	}
}
