// frontend_tui.go - Terminal dashboard frontend (termbox)

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/ResonanceEngine
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"time"

	"github.com/nsf/termbox-go"
)

const (
	tuiRedrawInterval = 50 * time.Millisecond
	tuiBarWidth       = 40
)

// TUIFrontend renders a live session dashboard: lifecycle state, phase
// progress and the spectral bands the visualization stream exposes. Keys:
// space pauses/resumes, s stops gracefully, e emergency-stops, q quits the
// dashboard (the session keeps running headless).
type TUIFrontend struct {
	lastEvent SessionEvent
}

func (f *TUIFrontend) Run(engine *SessionEngine) error {
	if err := termbox.Init(); err != nil {
		return fmt.Errorf("tui init: %w", err)
	}
	defer termbox.Close()
	termbox.SetInputMode(termbox.InputEsc)

	eventQueue := make(chan termbox.Event)
	go func() {
		for {
			eventQueue <- termbox.PollEvent()
		}
	}()

	ticker := time.NewTicker(tuiRedrawInterval)
	defer ticker.Stop()

	for {
		select {
		case <-engine.Done():
			// Leave the final state on screen briefly before returning.
			f.draw(engine)
			time.Sleep(400 * time.Millisecond)
			return nil
		case ev := <-engine.Events():
			if ev.Warning == nil {
				f.lastEvent = ev
			}
		case tev := <-eventQueue:
			if tev.Type != termbox.EventKey {
				continue
			}
			switch {
			case tev.Ch == 'q':
				return nil
			case tev.Ch == 's':
				engine.Stop()
			case tev.Ch == 'e', tev.Key == termbox.KeyEsc:
				engine.EmergencyStop()
			case tev.Key == termbox.KeySpace:
				if engine.State() == STATE_PAUSED {
					engine.Resume()
				} else {
					engine.Pause()
				}
			}
		case <-ticker.C:
			f.draw(engine)
		}
	}
}

func (f *TUIFrontend) draw(engine *SessionEngine) {
	termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)

	s := engine.Summary()
	spec := engine.Spectrum()

	printString(1, 1, termbox.ColorCyan, "Resonance Engine")
	printString(1, 2, termbox.ColorDefault, fmt.Sprintf("protocol: %s", s.Protocol))
	printString(1, 3, stateColor(s.State), fmt.Sprintf("state: %s", s.State))
	printString(1, 4, termbox.ColorDefault,
		fmt.Sprintf("phase %d (%s)  %6.1fs in phase  %7.1fs total",
			s.PhaseIndex, f.lastEvent.PhaseName, s.ElapsedSec, s.TotalElapsedSec))

	drawBar(1, 6, "bass   ", spec.Bass)
	drawBar(1, 7, "mid    ", spec.Mid)
	drawBar(1, 8, "treble ", spec.Treble)
	drawBar(1, 9, "level  ", spec.Overall)

	printString(1, 11, termbox.ColorYellow, "[space] pause/resume  [s] stop  [e] EMERGENCY STOP  [q] quit view")

	termbox.Flush()
}

func stateColor(s SessionState) termbox.Attribute {
	switch s {
	case STATE_ACTIVE:
		return termbox.ColorGreen
	case STATE_PAUSED:
		return termbox.ColorYellow
	case STATE_EMERGENCY_STOPPED:
		return termbox.ColorRed
	default:
		return termbox.ColorDefault
	}
}

func drawBar(x, y int, label string, value float64) {
	printString(x, y, termbox.ColorDefault, label)
	filled := int(value * tuiBarWidth)
	for i := 0; i < tuiBarWidth; i++ {
		ch := '░'
		col := termbox.ColorBlue
		if i < filled {
			ch = '█'
			col = termbox.ColorGreen
		}
		termbox.SetCell(x+len(label)+i, y, ch, col, termbox.ColorDefault)
	}
	printString(x+len(label)+tuiBarWidth+1, y, termbox.ColorDefault, fmt.Sprintf("%4.2f", value))
}

func printString(x, y int, fg termbox.Attribute, msg string) {
	for i, c := range msg {
		termbox.SetCell(x+i, y, c, fg, termbox.ColorDefault)
	}
}
