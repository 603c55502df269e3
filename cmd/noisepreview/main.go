// Noise field preview tool - interactive visualization with sliders.
//
// Usage: go run ./cmd/noisepreview
package main

import (
	"fmt"
	"image/color"
	"math/rand"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/aura/noise"
)

const (
	windowWidth  = 900
	windowHeight = 620
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30
)

// NoiseParams holds the field parameters driven by the sliders.
type NoiseParams struct {
	Frequency float32
	TimeSpeed float32
	ShowCurl  bool
	Seed      int64
}

func main() {
	rl.InitWindow(windowWidth, windowHeight, "Noise Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	params := NoiseParams{
		Frequency: 4.0,
		TimeSpeed: 0.3,
		Seed:      12345,
	}
	field := noise.New(params.Seed)

	gridSize := 256
	grid := make([]float32, gridSize*gridSize)
	img := rl.GenImageColor(gridSize, gridSize, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	var t float32
	animating := true

	for !rl.WindowShouldClose() {
		if animating {
			t += rl.GetFrameTime() * params.TimeSpeed
		}

		generateGrid(field, grid, gridSize, params, t)
		updateTexture(texture, grid, gridSize)

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: float32(gridSize), Height: float32(gridSize)},
			rl.Rectangle{X: 10, Y: 10, Width: previewSize, Height: previewSize},
			rl.Vector2{X: 0, Y: 0},
			0,
			rl.White,
		)
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		if params.ShowCurl {
			drawCurlOverlay(field, params, t)
		}

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Noise Field Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		rl.DrawText("Frequency", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		params.Frequency = gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0.5", "16.0",
			params.Frequency, 0.5, 16.0,
		)
		rl.DrawText(fmt.Sprintf("%.1f", params.Frequency), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		panelY += 35

		rl.DrawText("Time speed", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		params.TimeSpeed = gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0", "2.0",
			params.TimeSpeed, 0, 2.0,
		)
		rl.DrawText(fmt.Sprintf("%.2f", params.TimeSpeed), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		panelY += 35

		params.ShowCurl = gui.CheckBox(
			rl.Rectangle{X: panelX, Y: panelY, Width: 20, Height: 20},
			"Curl overlay", params.ShowCurl,
		)
		panelY += 35

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 100, Height: 26}, "Reseed") {
			params.Seed = rand.Int63()
			field = noise.New(params.Seed)
		}
		panelY += 35

		label := "Pause"
		if !animating {
			label = "Animate"
		}
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 100, Height: 26}, label) {
			animating = !animating
		}
		panelY += 40

		rl.DrawText(fmt.Sprintf("Seed: %d", params.Seed), int32(panelX), int32(panelY), 14, rl.Gray)
		rl.DrawText(fmt.Sprintf("Time: %.1f", t), int32(panelX), int32(panelY)+20, 14, rl.Gray)

		rl.EndDrawing()
	}
}

// generateGrid fills the grid with normalized noise values in [0, 1].
func generateGrid(field *noise.Field, grid []float32, size int, params NoiseParams, t float32) {
	freq := float64(params.Frequency)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			nx := float64(x) / float64(size) * freq
			ny := float64(y) / float64(size) * freq
			v := field.Noise3D(nx, ny, float64(t))
			grid[y*size+x] = float32(v*0.5 + 0.5)
		}
	}
}

// drawCurlOverlay draws the curl vectors on a coarse grid over the preview.
func drawCurlOverlay(field *noise.Field, params NoiseParams, t float32) {
	const step = 32
	freq := float64(params.Frequency)
	for y := step / 2; y < previewSize; y += step {
		for x := step / 2; x < previewSize; x += step {
			nx := float64(x) / previewSize * freq
			ny := float64(y) / previewSize * freq
			cx, cy := field.Curl2D(nx, ny, float64(t))

			sx := float32(x) + 10
			sy := float32(y) + 10
			rl.DrawLineV(
				rl.Vector2{X: sx, Y: sy},
				rl.Vector2{X: sx + float32(cx)*6, Y: sy + float32(cy)*6},
				rl.Red,
			)
		}
	}
}

// updateTexture updates the GPU texture from the grid values.
func updateTexture(texture rl.Texture2D, grid []float32, size int) {
	pixels := make([]color.RGBA, size*size)
	for i, v := range grid {
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		// Grey ramp with a blue tint in the low range
		g := uint8(v * 255)
		pixels[i] = color.RGBA{R: g, G: g, B: uint8(60 + float32(g)*0.76), A: 255}
	}
	rl.UpdateTexture(texture, pixels)
}
