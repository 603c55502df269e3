// Package renderer draws engine frame snapshots with raylib. It owns no
// particle state; the engine core runs headless without it.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/aura/camera"
	"github.com/pthm-cable/aura/engine"
)

// PointRenderer renders a particle snapshot as screen-space circles.
type PointRenderer struct{}

// NewPointRenderer creates a new point renderer.
func NewPointRenderer() *PointRenderer {
	return &PointRenderer{}
}

// Draw renders all particles from the snapshot through the camera.
func (r *PointRenderer) Draw(snap engine.Snapshot, cam *camera.Camera) {
	for i := range snap.Positions {
		opacity := snap.Opacities[i]
		if opacity <= 0.004 {
			continue // invisible at 8-bit alpha
		}

		p := snap.Positions[i]
		sx, sy := cam.WorldToScreen(p.X, p.Y)
		if sx < -20 || sy < -20 || sx > cam.ViewportW+20 || sy > cam.ViewportH+20 {
			continue
		}

		c := snap.Colors[i]
		color := rl.Color{
			R: uint8(c.R * 255),
			G: uint8(c.G * 255),
			B: uint8(c.B * 255),
			A: uint8(opacity * 255),
		}

		size := snap.Sizes[i] * cam.Zoom
		if size < 0.5 {
			size = 0.5
		}

		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, size, color)
	}
}
