//go:build !headless

// frontend_visual.go - Reactive spectral visualizer frontend (ebiten)

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/ResonanceEngine
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	visualWidth  = 640
	visualHeight = 360

	// Band bars ease toward the live snapshot so the geometry reacts
	// smoothly at render-frame cadence.
	visualSmoothing = 0.25
)

// VisualFrontend draws the spectral snapshot stream as reactive bars at
// display cadence (~60 Hz). Purely informational: it reads snapshots and
// session summaries, never synthesis state.
type VisualFrontend struct {
	engine *SessionEngine
	levels [4]float64
}

func NewVisualFrontend() (Frontend, error) {
	return &VisualFrontend{}, nil
}

func (f *VisualFrontend) Run(engine *SessionEngine) error {
	f.engine = engine
	ebiten.SetWindowSize(visualWidth, visualHeight)
	ebiten.SetWindowTitle("Resonance Engine")
	if err := ebiten.RunGame(f); err != nil && err != ebiten.Termination {
		return err
	}
	return nil
}

func (f *VisualFrontend) Update() error {
	select {
	case <-f.engine.Done():
		return ebiten.Termination
	default:
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyQ):
		return ebiten.Termination
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		if f.engine.State() == STATE_PAUSED {
			f.engine.Resume()
		} else {
			f.engine.Pause()
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		f.engine.Stop()
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		f.engine.EmergencyStop()
	}

	spec := f.engine.Spectrum()
	targets := [4]float64{spec.Bass, spec.Mid, spec.Treble, spec.Overall}
	for i := range f.levels {
		f.levels[i] += (targets[i] - f.levels[i]) * visualSmoothing
	}
	return nil
}

var visualColors = [4]color.RGBA{
	{R: 0x46, G: 0x8c, B: 0xff, A: 0xff}, // bass
	{R: 0x3c, G: 0xd6, B: 0x8c, A: 0xff}, // mid
	{R: 0xf0, G: 0xc8, B: 0x3c, A: 0xff}, // treble
	{R: 0xe6, G: 0x50, B: 0x50, A: 0xff}, // overall
}

var visualLabels = [4]string{"BASS", "MID", "TREBLE", "LEVEL"}

func (f *VisualFrontend) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 0x10, G: 0x10, B: 0x18, A: 0xff})

	barW := float32(visualWidth / 6)
	gap := float32(visualWidth/6) / 2
	baseY := float32(visualHeight - 60)

	for i, level := range f.levels {
		h := float32(level) * (visualHeight - 120)
		x := gap + float32(i)*(barW+gap)
		vector.DrawFilledRect(screen, x, baseY-h, barW, h, visualColors[i], false)
		ebitenutil.DebugPrintAt(screen, visualLabels[i], int(x), int(baseY)+8)
	}

	s := f.engine.Summary()
	ebitenutil.DebugPrintAt(screen,
		fmt.Sprintf("%s | phase %d | %.1fs | space=pause s=stop esc=EMERGENCY q=quit",
			s.State, s.PhaseIndex, s.TotalElapsedSec),
		8, 8)
}

func (f *VisualFrontend) Layout(outsideWidth, outsideHeight int) (int, int) {
	return visualWidth, visualHeight
}
