package main

import (
	"flag"
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"math"
	"os"
	"time"

	_ "image/jpeg"
	_ "image/png"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/aura/camera"
	"github.com/pthm-cable/aura/config"
	"github.com/pthm-cable/aura/engine"
	"github.com/pthm-cable/aura/renderer"
	"github.com/pthm-cable/aura/telemetry"
	"github.com/pthm-cable/aura/ui"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	imagePath := flag.String("image", "", "Portrait image to particlize (empty = synthetic disc)")
	particles := flag.Int("particles", 0, "Particle count override (0 = use config)")
	headless := flag.Bool("headless", false, "Run the scripted state tour without graphics")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited, headless only)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	pix, w, h, err := loadPixels(*imagePath)
	if err != nil {
		slog.Error("failed to load image", "path", *imagePath, "error", err)
		os.Exit(1)
	}

	e := engine.New(engine.Options{
		Cfg:           cfg,
		Seed:          rngSeed,
		ParticleCount: *particles,
	})
	if err := e.InitializeFromImage(pix, w, h); err != nil {
		slog.Error("failed to initialize engine", "error", err)
		os.Exit(1)
	}
	defer e.Dispose()

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Warn("failed to write config snapshot", "error", err)
	}

	windowSec := cfg.Telemetry.StatsWindow
	if *statsWindow > 0 {
		windowSec = *statsWindow
	}
	windowTicks := int64(windowSec / cfg.Physics.DT)
	if windowTicks < 1 {
		windowTicks = 1
	}
	collector := telemetry.NewCollector(e.ParticleCount())

	slog.Info("engine ready",
		"seed", rngSeed,
		"particles", e.ParticleCount(),
		"image_w", w,
		"image_h", h,
		"headless", *headless,
	)

	if *headless {
		runHeadless(e, collector, output, windowTicks, *logStats, *maxTicks)
		return
	}
	runWindowed(e, cfg, collector, output, windowTicks, *logStats)
}

// runHeadless drives the engine through a scripted state tour: the engine
// only reports completion, the chaining decision lives here.
func runHeadless(e *engine.Engine, collector *telemetry.Collector,
	output *telemetry.OutputManager, windowTicks int64, logStats bool, maxTicks int) {

	tour := newStateTour(e)
	var tick int64

	for {
		tour.step(e)
		e.Tick()
		tick++

		if tick%windowTicks == 0 {
			ws := collector.Compute(e, tick)
			if err := output.WriteWindow(ws); err != nil {
				slog.Warn("telemetry write failed", "error", err)
			}
			if logStats {
				slog.Info("window",
					"tick", ws.Tick,
					"state", ws.State,
					"mean_dist", ws.MeanDist,
					"p90_dist", ws.P90Dist,
					"warn_count", ws.WarnCount,
				)
			}
		}

		if maxTicks > 0 && tick >= int64(maxTicks) {
			slog.Info("max ticks reached", "tick", tick)
			return
		}
	}
}

// runWindowed opens the raylib preview window with the raygui panel.
func runWindowed(e *engine.Engine, cfg *config.Config, collector *telemetry.Collector,
	output *telemetry.OutputManager, windowTicks int64, logStats bool) {

	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Aura Avatar Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	points := renderer.NewPointRenderer()
	panel := ui.NewPanel(10, 10, 180)
	cam := camera.New(float32(cfg.Screen.Width), float32(cfg.Screen.Height))

	paused := false
	var tick int64

	for !rl.WindowShouldClose() {
		if rl.IsWindowResized() {
			cam.Resize(float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight()))
		}
		handleKeys(e, &paused)
		handleCamera(cam)

		if !paused {
			e.Tick()
			tick++

			if tick%windowTicks == 0 {
				ws := collector.Compute(e, tick)
				if err := output.WriteWindow(ws); err != nil {
					slog.Warn("telemetry write failed", "error", err)
				}
				if logStats {
					slog.Info("window", "tick", ws.Tick, "state", ws.State, "mean_dist", ws.MeanDist)
				}
			}
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.Color{R: 8, G: 8, B: 12, A: 255})
		points.Draw(e.Snapshot(), cam)
		panel.Draw(e)
		rl.DrawFPS(int32(rl.GetScreenWidth())-90, 10)
		rl.EndDrawing()
	}
}

// handleKeys processes keyboard shortcuts.
func handleKeys(e *engine.Engine, paused *bool) {
	if rl.IsKeyPressed(rl.KeySpace) {
		*paused = !*paused
	}
	if rl.IsKeyPressed(rl.KeyOne) {
		e.TriggerIdle()
	}
	if rl.IsKeyPressed(rl.KeyTwo) {
		e.TriggerDissolve()
	}
	if rl.IsKeyPressed(rl.KeyThree) {
		e.TriggerVortex()
	}
	if rl.IsKeyPressed(rl.KeyFour) {
		e.TriggerWaveform()
	}
	if rl.IsKeyPressed(rl.KeyFive) {
		e.TriggerReform()
	}
}

// handleCamera processes pan (right-drag) and zoom (wheel) input.
func handleCamera(cam *camera.Camera) {
	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		delta := rl.GetMouseDelta()
		cam.Pan(delta.X, delta.Y)
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		factor := float32(1.0) + wheel*0.1
		pos := rl.GetMousePosition()
		cam.ZoomAt(pos.X, pos.Y, factor)
	}
	if rl.IsKeyPressed(rl.KeyR) {
		cam.Reset()
	}
}

// stateTour chains states using the engine's completion predicates. Timed
// phases use the simulation clock, so the tour is deterministic.
type stateTour struct {
	phase      int
	phaseStart float64
}

func newStateTour(e *engine.Engine) *stateTour {
	return &stateTour{phaseStart: e.Clock()}
}

func (t *stateTour) step(e *engine.Engine) {
	elapsed := e.Clock() - t.phaseStart

	advance := false
	switch t.phase {
	case 0: // idle
		advance = elapsed >= 1.0
		if advance {
			e.TriggerDissolve()
		}
	case 1: // dissolve
		advance = e.IsDissolveComplete()
		if advance {
			e.TriggerVortex()
		}
	case 2: // vortex
		advance = elapsed >= 2.0
		if advance {
			e.TriggerWaveform()
		}
	case 3: // waveform, amplitude swept by a slow sine
		e.SetAmplitude(0.5 + 0.5*math.Sin(e.Clock()*3))
		advance = elapsed >= 2.0
		if advance {
			e.SetAmplitude(0)
			e.TriggerReform()
		}
	case 4: // reform
		advance = e.IsReformComplete()
		if advance {
			e.TriggerIdle()
		}
	}

	if advance {
		t.phase = (t.phase + 1) % 5
		t.phaseStart = e.Clock()
	}
}

// loadPixels decodes an image file into a flat RGBA buffer, or builds the
// synthetic fallback disc when no path is given.
func loadPixels(path string) ([]byte, int, int, error) {
	if path == "" {
		pix, w, h := syntheticDisc(256)
		return pix, w, h, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decoding image: %w", err)
	}

	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba.Pix, b.Dx(), b.Dy(), nil
}

// syntheticDisc builds a soft disc with a hue sweep so the preview works
// without an image file.
func syntheticDisc(size int) ([]byte, int, int) {
	pix := make([]byte, size*size*4)
	half := float64(size) / 2
	radius := half * 0.85

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) + 0.5 - half
			dy := float64(y) + 0.5 - half
			d := math.Sqrt(dx*dx + dy*dy)
			if d > radius {
				continue
			}

			// Radial alpha falloff, angular hue sweep
			falloff := 1 - d/radius
			ang := math.Atan2(dy, dx)
			i := (y*size + x) * 4
			pix[i] = uint8(128 + 127*math.Sin(ang))
			pix[i+1] = uint8(128 + 127*math.Sin(ang+2*math.Pi/3))
			pix[i+2] = uint8(128 + 127*math.Sin(ang+4*math.Pi/3))
			pix[i+3] = uint8(80 + 175*falloff)
		}
	}
	return pix, size, size
}
