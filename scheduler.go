// scheduler.go - Phase scheduler: protocol timeline to synthesis parameters

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/ResonanceEngine
License: GPLv3 or later
*/

package main

import "fmt"

// TickResult reports what one scheduler tick produced.
type TickResult struct {
	Params       SynthParams
	PhaseIndex   int
	PhaseChanged bool // a phase boundary was crossed on this tick
	Done         bool // protocol exhausted on this tick
}

// PhaseScheduler advances through a protocol's ordered phase list. It is
// deliberately timer-free: any driver (the session ticker, a test loop, a
// virtual clock) calls Tick with wall-clock deltas. The session engine owns
// the cursor; nothing else mutates it.
type PhaseScheduler struct {
	protocol *Protocol

	index        int
	phaseElapsed float64
	totalElapsed float64
	done         bool

	// per-phase intensity accumulation for the completion summary
	intensitySum   []float64
	intensityTicks []int64
}

func NewPhaseScheduler(p *Protocol) *PhaseScheduler {
	return &PhaseScheduler{
		protocol:       p,
		intensitySum:   make([]float64, len(p.Phases)),
		intensityTicks: make([]int64, len(p.Phases)),
	}
}

// Tick advances the timeline by dt seconds and returns the interpolated
// parameters for the instant just reached. A phase boundary reached exactly
// at a tick resolves by advancing: the phase is inclusive of its end instant
// moving into the next phase, never repeated. Exhausting the list reports
// Done on the same tick, not the next.
func (s *PhaseScheduler) Tick(dt float64) (TickResult, error) {
	if dt < 0 {
		return TickResult{}, fmt.Errorf("%w: negative tick delta %g", ErrSchedulerDesync, dt)
	}
	if s.done {
		return TickResult{PhaseIndex: s.index, Done: true}, nil
	}
	if s.index < 0 || s.index >= len(s.protocol.Phases) {
		return TickResult{}, fmt.Errorf("%w: phase index %d of %d", ErrSchedulerDesync, s.index, len(s.protocol.Phases))
	}
	if s.phaseElapsed < 0 {
		return TickResult{}, fmt.Errorf("%w: negative elapsed %g", ErrSchedulerDesync, s.phaseElapsed)
	}

	s.phaseElapsed += dt
	s.totalElapsed += dt

	changed := false
	for s.phaseElapsed >= s.protocol.Phases[s.index].DurationSec {
		s.phaseElapsed -= s.protocol.Phases[s.index].DurationSec
		s.index++
		changed = true
		if s.index >= len(s.protocol.Phases) {
			s.done = true
			s.index = len(s.protocol.Phases) - 1
			last := &s.protocol.Phases[s.index]
			s.phaseElapsed = last.DurationSec
			return TickResult{
				Params:       phaseParams(last, last.DurationSec),
				PhaseIndex:   s.index,
				PhaseChanged: true,
				Done:         true,
			}, nil
		}
	}

	ph := &s.protocol.Phases[s.index]
	params := phaseParams(ph, s.phaseElapsed)

	s.intensitySum[s.index] += params.Intensity
	s.intensityTicks[s.index]++

	return TickResult{
		Params:       params,
		PhaseIndex:   s.index,
		PhaseChanged: changed,
	}, nil
}

// PhaseIndex returns the active phase cursor.
func (s *PhaseScheduler) PhaseIndex() int { return s.index }

// PhaseElapsed returns elapsed seconds within the active phase.
func (s *PhaseScheduler) PhaseElapsed() float64 { return s.phaseElapsed }

// TotalElapsed returns elapsed seconds across the whole session.
func (s *PhaseScheduler) TotalElapsed() float64 { return s.totalElapsed }

// Done reports whether the protocol has been exhausted.
func (s *PhaseScheduler) Done() bool { return s.done }

// PhaseProgress returns the fraction of the active phase elapsed, in [0,1].
func (s *PhaseScheduler) PhaseProgress() float64 {
	d := s.protocol.Phases[s.index].DurationSec
	if d <= 0 {
		return 1
	}
	p := s.phaseElapsed / d
	if p > 1 {
		p = 1
	}
	return p
}

// AverageIntensities returns the running per-phase average of scheduled
// intensity, for the completion summary.
func (s *PhaseScheduler) AverageIntensities() []float64 {
	avgs := make([]float64, len(s.intensitySum))
	for i := range avgs {
		if s.intensityTicks[i] > 0 {
			avgs[i] = s.intensitySum[i] / float64(s.intensityTicks[i])
		}
	}
	return avgs
}
