// Package ui provides the raygui control panel for the preview window.
package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/aura/engine"
)

const (
	panelPadding = 10
	buttonHeight = 26
	buttonGap    = 6
)

// Panel draws the state trigger buttons and the amplitude slider.
type Panel struct {
	x, y  int32
	width int32

	states []engine.State
}

// NewPanel creates a control panel anchored at (x, y).
func NewPanel(x, y, width int32) *Panel {
	return &Panel{
		x:     x,
		y:     y,
		width: width,
		states: []engine.State{
			engine.StateIdle,
			engine.StateDissolve,
			engine.StateVortex,
			engine.StateWaveform,
			engine.StateReform,
		},
	}
}

// Draw renders the panel and applies any interaction directly to the
// engine: a clicked button triggers its state, the slider sets amplitude.
func (p *Panel) Draw(e *engine.Engine) {
	height := int32(len(p.states))*(buttonHeight+buttonGap) + buttonHeight + panelPadding*4 + 40
	rl.DrawRectangle(p.x, p.y, p.width, height, rl.Color{R: 20, G: 20, B: 28, A: 220})

	y := p.y + panelPadding
	gui.Label(rl.Rectangle{
		X:      float32(p.x + panelPadding),
		Y:      float32(y),
		Width:  float32(p.width - panelPadding*2),
		Height: buttonHeight,
	}, fmt.Sprintf("%d particles | %s", e.ParticleCount(), e.State()))
	y += buttonHeight + buttonGap

	for _, s := range p.states {
		label := s.String()
		if s == e.State() {
			label = "> " + label
		}
		clicked := gui.Button(rl.Rectangle{
			X:      float32(p.x + panelPadding),
			Y:      float32(y),
			Width:  float32(p.width - panelPadding*2),
			Height: buttonHeight,
		}, label)
		if clicked {
			e.SetState(s)
		}
		y += buttonHeight + buttonGap
	}

	y += panelPadding
	amp := gui.Slider(rl.Rectangle{
		X:      float32(p.x + panelPadding + 34),
		Y:      float32(y),
		Width:  float32(p.width - panelPadding*2 - 68),
		Height: buttonHeight - 6,
	}, "amp", fmt.Sprintf("%.2f", e.Amplitude()), float32(e.Amplitude()), 0, 1)
	e.SetAmplitude(float64(amp))
}
