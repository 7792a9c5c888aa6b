// session.go - Session state machine supervising scheduler and synthesizer

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/ResonanceEngine
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"log"
	"sync"
	"time"
)

type SessionState int

const (
	STATE_IDLE SessionState = iota
	STATE_INITIALIZING
	STATE_ACTIVE
	STATE_PAUSED
	STATE_COMPLETED
	STATE_EMERGENCY_STOPPED
)

func (s SessionState) String() string {
	switch s {
	case STATE_IDLE:
		return "idle"
	case STATE_INITIALIZING:
		return "initializing"
	case STATE_ACTIVE:
		return "active"
	case STATE_PAUSED:
		return "paused"
	case STATE_COMPLETED:
		return "completed"
	case STATE_EMERGENCY_STOPPED:
		return "emergency-stopped"
	default:
		return "unknown"
	}
}

const (
	DEFAULT_TICK_INTERVAL   = 20 * time.Millisecond
	PROGRESS_EVENT_INTERVAL = 0.1 // seconds between steady progress events

	// Pause fades to near-silence rather than a full stop so resume is fast.
	PAUSE_FADE_SEC   = 0.3
	PAUSE_FLOOR_GAIN = 0.02

	DEFAULT_FADE_IN_SEC  = 2.0
	DEFAULT_FADE_OUT_SEC = 1.0

	EVENT_BUFFER = 128
)

// SessionEvent is the observable lifecycle record emitted on every transition
// and at a steady cadence while active. Consumers are optional: publication
// never blocks and the engine functions headless.
type SessionEvent struct {
	State           SessionState
	PhaseIndex      int
	PhaseName       string
	ElapsedSec      float64 // within the active phase
	TotalElapsedSec float64
	Transition      bool // false for the steady progress cadence
	Warning         *SynthWarning
}

// SessionSummary is handed to a persistence collaborator on completion or
// stop.
type SessionSummary struct {
	Protocol        string
	State           SessionState
	PhaseIndex      int
	ElapsedSec      float64 // within the phase the session ended in
	TotalElapsedSec float64
	AvgIntensity    []float64 // per-phase running averages
}

// UserGesture is the token proving Start was invoked in response to an
// explicit user interaction. Host adapters obtain one from GrantGesture when
// the platform's gesture requirement is satisfied; the zero value fails.
type UserGesture struct {
	granted bool
}

func GrantGesture() UserGesture {
	return UserGesture{granted: true}
}

// SessionOptions configures a session engine instance.
type SessionOptions struct {
	Backend      int
	SampleRate   int
	Strict       bool
	TickInterval time.Duration // 0 = DEFAULT_TICK_INTERVAL
	FadeInSec    float64       // 0 = DEFAULT_FADE_IN_SEC
	FadeOutSec   float64       // 0 = DEFAULT_FADE_OUT_SEC
	AmbientSeed  int64

	// ManualTick disables the internal ticker; the caller drives Tick
	// directly (tests, virtual clocks).
	ManualTick bool
}

// SessionEngine orchestrates the scheduler and synthesizer lifecycle:
// idle -> initializing -> active <-> paused -> completed, with emergency stop
// reachable from any non-idle state. It is an explicit instance, never a
// process-wide singleton; independent engines coexist. The engine is the only
// writer of lifecycle and phase-cursor state; everything else reads through
// accessors.
type SessionEngine struct {
	opts SessionOptions

	mutex    sync.Mutex
	state    SessionState
	protocol *Protocol
	synth    *BeatSynth
	sched    *PhaseScheduler

	sinceProgress float64
	summary       *SessionSummary

	events   chan SessionEvent
	stopTick chan struct{}
	stopped  bool
	done     chan struct{}
	doneOnce sync.Once
}

func NewSessionEngine(opts SessionOptions) *SessionEngine {
	if opts.TickInterval == 0 {
		opts.TickInterval = DEFAULT_TICK_INTERVAL
	}
	if opts.FadeInSec == 0 {
		opts.FadeInSec = DEFAULT_FADE_IN_SEC
	}
	if opts.FadeOutSec == 0 {
		opts.FadeOutSec = DEFAULT_FADE_OUT_SEC
	}
	return &SessionEngine{
		opts:     opts,
		state:    STATE_IDLE,
		events:   make(chan SessionEvent, EVENT_BUFFER),
		stopTick: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Events returns the lifecycle event stream. Subscribing is optional.
func (e *SessionEngine) Events() <-chan SessionEvent {
	return e.events
}

// Done is closed when the session reaches a terminal state.
func (e *SessionEngine) Done() <-chan struct{} {
	return e.done
}

func (e *SessionEngine) State() SessionState {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.state
}

// Spectrum returns the live spectral snapshot, or a zero snapshot before
// start and after teardown.
func (e *SessionEngine) Spectrum() SpectralSnapshot {
	e.mutex.Lock()
	synth := e.synth
	e.mutex.Unlock()
	if synth == nil {
		return SpectralSnapshot{}
	}
	return synth.SampleSpectrum()
}

// Start acquires the audio backend and begins the protocol at phase 0. It
// must be invoked in response to a user gesture; without one it fails with
// ErrGestureRequired, the state stays Idle and no audio resources are
// allocated. Backend acquisition failure surfaces as ErrAudioUnavailable with
// the same guarantees.
func (e *SessionEngine) Start(protocol *Protocol, gesture UserGesture) error {
	if !gesture.granted {
		return ErrGestureRequired
	}
	if protocol == nil {
		return fmt.Errorf("%w: nil protocol", ErrInvalidProtocol)
	}
	if err := protocol.Validate(); err != nil {
		return err
	}

	e.mutex.Lock()
	if e.state != STATE_IDLE {
		e.mutex.Unlock()
		return fmt.Errorf("start from %s: session already running", e.state)
	}
	e.state = STATE_INITIALIZING
	e.protocol = protocol
	e.mutex.Unlock()

	e.publishTransition()

	synth, err := NewBeatSynth(SynthOptions{
		Backend:     e.opts.Backend,
		SampleRate:  e.opts.SampleRate,
		Strict:      e.opts.Strict,
		AmbientSeed: e.opts.AmbientSeed,
		OnWarning:   e.publishWarning,
	})
	if err != nil {
		e.mutex.Lock()
		if e.state == STATE_INITIALIZING {
			e.state = STATE_IDLE
			e.protocol = nil
		}
		e.mutex.Unlock()
		return err
	}

	// An emergency stop may land while the mutex was released for backend
	// acquisition; a terminal state is never overwritten.
	e.mutex.Lock()
	if e.state != STATE_INITIALIZING {
		state := e.state
		e.mutex.Unlock()
		synth.Destroy()
		return fmt.Errorf("start aborted: session %s", state)
	}
	e.synth = synth
	e.sched = NewPhaseScheduler(protocol)
	e.mutex.Unlock()

	// Synthesizer readiness confirmed: configure phase 0 and go active.
	first := phaseParams(&protocol.Phases[0], 0)
	if err := synth.ApplyParams(first); err != nil {
		synth.Destroy()
		e.mutex.Lock()
		if e.state == STATE_INITIALIZING {
			e.state = STATE_IDLE
			e.synth = nil
			e.sched = nil
			e.protocol = nil
		}
		e.mutex.Unlock()
		return err
	}

	synth.Start()
	synth.FadeIn(e.opts.FadeInSec)

	e.mutex.Lock()
	if e.state != STATE_INITIALIZING {
		state := e.state
		e.mutex.Unlock()
		synth.Destroy()
		return fmt.Errorf("start aborted: session %s", state)
	}
	e.state = STATE_ACTIVE
	e.mutex.Unlock()
	e.publishTransition()

	if !e.opts.ManualTick {
		go e.run()
	}
	return nil
}

// run drives Tick from a real-time ticker until a terminal state.
func (e *SessionEngine) run() {
	ticker := time.NewTicker(e.opts.TickInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-e.stopTick:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if !e.Tick(dt) {
				return
			}
		}
	}
}

// Tick advances the session by dt seconds. While paused it is a no-op that
// keeps the driver alive; in a terminal state it returns false. Public so
// tests and virtual clocks can drive the engine deterministically.
func (e *SessionEngine) Tick(dt float64) bool {
	e.mutex.Lock()
	switch e.state {
	case STATE_COMPLETED, STATE_EMERGENCY_STOPPED, STATE_IDLE:
		e.mutex.Unlock()
		return false
	case STATE_PAUSED, STATE_INITIALIZING:
		e.mutex.Unlock()
		return true
	}

	result, err := e.sched.Tick(dt)
	if err != nil {
		// Scheduler invariant violation: never continue inconsistent.
		e.emergencyLocked()
		e.mutex.Unlock()
		e.publishTransition()
		log.Printf("session: %v; emergency stop forced", err)
		return false
	}

	synth := e.synth
	emitPhase := result.PhaseChanged && !result.Done

	e.sinceProgress += dt
	emitProgress := e.sinceProgress >= PROGRESS_EVENT_INTERVAL
	if emitProgress {
		e.sinceProgress = 0
	}

	if result.Done {
		e.synth.FadeOut(e.opts.FadeOutSec)
		e.completeLocked()
		e.mutex.Unlock()
		e.publishTransition()
		return false
	}
	e.mutex.Unlock()

	if err := synth.ApplyParams(result.Params); err != nil {
		// Strict-mode hard failure: silence is still guaranteed.
		e.EmergencyStop()
		log.Printf("session: %v; emergency stop forced", err)
		return false
	}

	if emitPhase {
		e.publishTransition()
	}
	if emitProgress {
		e.publish(false)
	}
	return true
}

// Pause freezes elapsed-time accumulation and fades the synthesizer to
// near-silence (not a full stop, so resume is fast).
func (e *SessionEngine) Pause() error {
	e.mutex.Lock()
	if e.state != STATE_ACTIVE {
		e.mutex.Unlock()
		return fmt.Errorf("pause from %s", e.state)
	}
	e.state = STATE_PAUSED
	synth := e.synth
	e.mutex.Unlock()

	synth.fadeTo(PAUSE_FLOOR_GAIN, PAUSE_FADE_SEC)
	e.publishTransition()
	return nil
}

// Resume restores gain and continues elapsed-time accumulation from exactly
// where it stopped; no phase-time drift across a pause.
func (e *SessionEngine) Resume() error {
	e.mutex.Lock()
	if e.state != STATE_PAUSED {
		e.mutex.Unlock()
		return fmt.Errorf("resume from %s", e.state)
	}
	e.state = STATE_ACTIVE
	synth := e.synth
	e.mutex.Unlock()

	synth.FadeIn(PAUSE_FADE_SEC)
	e.publishTransition()
	return nil
}

// Stop ends the session gracefully with a fade-out. Not preemptive; for
// immediate silence use EmergencyStop. Idempotent: a second call is a no-op.
func (e *SessionEngine) Stop() {
	e.mutex.Lock()
	if e.state != STATE_ACTIVE && e.state != STATE_PAUSED {
		e.mutex.Unlock()
		return
	}
	synth := e.synth
	synth.FadeOut(e.opts.FadeOutSec)
	e.completeLocked()
	e.mutex.Unlock()

	e.publishTransition()
}

// EmergencyStop silences output unconditionally and immediately, bypassing
// any in-progress fade or transition. Reachable from initializing, active and
// paused; the one transition allowed to interrupt another.
func (e *SessionEngine) EmergencyStop() {
	e.mutex.Lock()
	switch e.state {
	case STATE_INITIALIZING, STATE_ACTIVE, STATE_PAUSED:
	default:
		e.mutex.Unlock()
		return
	}
	e.emergencyLocked()
	e.mutex.Unlock()

	e.publishTransition()
}

// emergencyLocked mutes first, then tears down; the mute is atomic and takes
// effect on the next rendered buffer regardless of scheduler state.
func (e *SessionEngine) emergencyLocked() {
	if e.synth != nil {
		e.synth.EmergencyMute()
	}
	e.state = STATE_EMERGENCY_STOPPED
	e.captureSummaryLocked()
	e.teardownLocked(0)
}

// completeLocked records the summary and schedules teardown after the
// fade-out has run its course.
func (e *SessionEngine) completeLocked() {
	e.state = STATE_COMPLETED
	e.captureSummaryLocked()
	e.teardownLocked(time.Duration((e.opts.FadeOutSec+0.1)*float64(time.Second)))
}

func (e *SessionEngine) teardownLocked(after time.Duration) {
	if !e.stopped {
		e.stopped = true
		close(e.stopTick)
	}
	synth := e.synth
	if synth != nil {
		if after <= 0 {
			synth.Destroy()
		} else {
			time.AfterFunc(after, synth.Destroy)
		}
	}
	e.doneOnce.Do(func() { close(e.done) })
}

func (e *SessionEngine) captureSummaryLocked() {
	if e.sched == nil || e.protocol == nil {
		return
	}
	e.summary = &SessionSummary{
		Protocol:        e.protocol.Name,
		State:           e.state,
		PhaseIndex:      e.sched.PhaseIndex(),
		ElapsedSec:      e.sched.PhaseElapsed(),
		TotalElapsedSec: e.sched.TotalElapsed(),
		AvgIntensity:    e.sched.AverageIntensities(),
	}
}

// Summary returns the completion summary, or a live snapshot if the session
// has not reached a terminal state yet.
func (e *SessionEngine) Summary() SessionSummary {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.summary != nil {
		return *e.summary
	}
	s := SessionSummary{State: e.state}
	if e.sched != nil {
		s.PhaseIndex = e.sched.PhaseIndex()
		s.ElapsedSec = e.sched.PhaseElapsed()
		s.TotalElapsedSec = e.sched.TotalElapsed()
		s.AvgIntensity = e.sched.AverageIntensities()
	}
	if e.protocol != nil {
		s.Protocol = e.protocol.Name
	}
	return s
}

// publishTransition emits a transition event with the current state.
func (e *SessionEngine) publishTransition() {
	e.publish(true)
}

func (e *SessionEngine) publish(transition bool) {
	e.mutex.Lock()
	ev := e.eventLocked()
	e.mutex.Unlock()
	ev.Transition = transition
	e.send(ev)
}

// publishWarning forwards a synthesizer safety clamp to subscribers. Called
// from the synth warning hook, never while the session mutex is held.
func (e *SessionEngine) publishWarning(w SynthWarning) {
	e.mutex.Lock()
	ev := e.eventLocked()
	e.mutex.Unlock()
	ev.Warning = &w
	e.send(ev)
}

func (e *SessionEngine) eventLocked() SessionEvent {
	ev := SessionEvent{State: e.state}
	if e.sched != nil {
		ev.PhaseIndex = e.sched.PhaseIndex()
		ev.ElapsedSec = e.sched.PhaseElapsed()
		ev.TotalElapsedSec = e.sched.TotalElapsed()
		if e.protocol != nil && ev.PhaseIndex < len(e.protocol.Phases) {
			ev.PhaseName = e.protocol.Phases[ev.PhaseIndex].Name
		}
	}
	return ev
}

// send never blocks: with no subscriber (or a slow one) events are dropped
// once the buffer fills. The machine functions headless.
func (e *SessionEngine) send(ev SessionEvent) {
	select {
	case e.events <- ev:
	default:
	}
}
