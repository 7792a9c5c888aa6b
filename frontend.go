// frontend.go - Session frontend interface and factory

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/ResonanceEngine
License: GPLv3 or later
*/

package main

import "fmt"

const (
	FRONTEND_NONE = iota
	FRONTEND_PLAIN
	FRONTEND_TUI
	FRONTEND_VISUAL
)

// Frontend observes a running session and forwards user control to it. Run
// blocks until the session reaches a terminal state or the user quits; the
// engine itself never requires a frontend to be present.
type Frontend interface {
	Run(engine *SessionEngine) error
}

func NewFrontend(kind int) (Frontend, error) {
	switch kind {
	case FRONTEND_NONE:
		return &NullFrontend{}, nil
	case FRONTEND_PLAIN:
		return &PlainFrontend{}, nil
	case FRONTEND_TUI:
		return &TUIFrontend{}, nil
	case FRONTEND_VISUAL:
		return NewVisualFrontend()
	default:
		return nil, fmt.Errorf("unknown frontend %d", kind)
	}
}

// NullFrontend just waits for the session to end. Used when another process
// supervises the engine.
type NullFrontend struct{}

func (f *NullFrontend) Run(engine *SessionEngine) error {
	<-engine.Done()
	return nil
}
