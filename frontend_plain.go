// frontend_plain.go - Line-oriented logging frontend

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/ResonanceEngine
License: GPLv3 or later
*/

package main

import "log"

// PlainFrontend prints lifecycle transitions and warnings as log lines.
// Progress events are summarized once per phase boundary plus a periodic
// position report, so a long session does not flood the terminal.
type PlainFrontend struct{}

func (f *PlainFrontend) Run(engine *SessionEngine) error {
	var lastReported float64
	for {
		select {
		case <-engine.Done():
			// Drain whatever is left so the final transition gets printed.
			for {
				select {
				case ev := <-engine.Events():
					if ev.Transition {
						logEvent(ev)
					}
				default:
					return nil
				}
			}
		case ev := <-engine.Events():
			switch {
			case ev.Warning != nil:
				w := ev.Warning
				log.Printf("warning: %s clamped, requested %.3g applied %.3g",
					w.Field, w.Requested, w.Applied)
			case ev.Transition:
				logEvent(ev)
				lastReported = ev.TotalElapsedSec
			case ev.TotalElapsedSec-lastReported >= 10:
				log.Printf("  ... %s %.1fs into phase %d (%s), %.1fs total",
					ev.State, ev.ElapsedSec, ev.PhaseIndex, ev.PhaseName, ev.TotalElapsedSec)
				lastReported = ev.TotalElapsedSec
			}
		}
	}
}

func logEvent(ev SessionEvent) {
	log.Printf("session %s: phase %d (%s), %.1fs in phase, %.1fs total",
		ev.State, ev.PhaseIndex, ev.PhaseName, ev.ElapsedSec, ev.TotalElapsedSec)
}
