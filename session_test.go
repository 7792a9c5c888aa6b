package main

import (
	"errors"
	"math"
	"testing"
	"time"
)

func testSessionOptions() SessionOptions {
	return SessionOptions{
		Backend:     AUDIO_BACKEND_NULL,
		ManualTick:  true,
		FadeInSec:   0.01,
		FadeOutSec:  0.01,
		AmbientSeed: 1,
	}
}

func threePhaseProtocol() *Protocol {
	return &Protocol{
		Name: "three",
		Phases: []Phase{
			{Name: "one", DurationSec: 10, StartBeatHz: 10, EndBeatHz: 10, StartIntensity: 0.5, EndIntensity: 0.5},
			{Name: "two", DurationSec: 10, StartBeatHz: 8, EndBeatHz: 8, StartIntensity: 0.5, EndIntensity: 0.5},
			{Name: "three", DurationSec: 10, StartBeatHz: 4, EndBeatHz: 4, StartIntensity: 0.3, EndIntensity: 0.3},
		},
	}
}

// drainEvents collects everything currently buffered on the event stream.
func drainEvents(e *SessionEngine) []SessionEvent {
	var events []SessionEvent
	for {
		select {
		case ev := <-e.Events():
			events = append(events, ev)
		default:
			return events
		}
	}
}

func transitionsTo(events []SessionEvent, state SessionState) int {
	n := 0
	for _, ev := range events {
		if ev.Transition && ev.State == state {
			n++
		}
	}
	return n
}

func TestSession_StartRequiresGesture(t *testing.T) {
	engine := NewSessionEngine(testSessionOptions())
	err := engine.Start(threePhaseProtocol(), UserGesture{})
	if !errors.Is(err, ErrGestureRequired) {
		t.Fatalf("Start without gesture: err = %v, want ErrGestureRequired", err)
	}
	if engine.State() != STATE_IDLE {
		t.Errorf("state = %v, want idle", engine.State())
	}
	if engine.synth != nil {
		t.Error("audio resources allocated despite the gesture failure")
	}
}

func TestSession_StartAudioUnavailable(t *testing.T) {
	opts := testSessionOptions()
	opts.Backend = 99
	engine := NewSessionEngine(opts)

	err := engine.Start(threePhaseProtocol(), GrantGesture())
	if !errors.Is(err, ErrAudioUnavailable) {
		t.Fatalf("err = %v, want ErrAudioUnavailable", err)
	}
	if engine.State() != STATE_IDLE {
		t.Errorf("state = %v, want idle after backend failure", engine.State())
	}
	if engine.synth != nil {
		t.Error("synthesizer retained after backend failure")
	}
}

func TestSession_StartRejectsInvalidProtocol(t *testing.T) {
	engine := NewSessionEngine(testSessionOptions())
	if err := engine.Start(&Protocol{}, GrantGesture()); !errors.Is(err, ErrInvalidProtocol) {
		t.Errorf("err = %v, want ErrInvalidProtocol", err)
	}
	if err := engine.Start(nil, GrantGesture()); !errors.Is(err, ErrInvalidProtocol) {
		t.Errorf("nil protocol err = %v, want ErrInvalidProtocol", err)
	}
}

func TestSession_LifecycleToCompletion(t *testing.T) {
	engine := NewSessionEngine(testSessionOptions())
	p := &Protocol{
		Name: "short",
		Phases: []Phase{
			{Name: "a", DurationSec: 1, StartBeatHz: 10, StartIntensity: 0.5, EndBeatHz: 10, EndIntensity: 0.5},
			{Name: "b", DurationSec: 1, StartBeatHz: 6, StartIntensity: 0.5, EndBeatHz: 6, EndIntensity: 0.5},
		},
	}
	if err := engine.Start(p, GrantGesture()); err != nil {
		t.Fatal(err)
	}
	if engine.State() != STATE_ACTIVE {
		t.Fatalf("state after Start = %v, want active", engine.State())
	}

	ticks := 0
	for engine.Tick(0.25) {
		if ticks++; ticks > 100 {
			t.Fatal("session never completed")
		}
	}

	if engine.State() != STATE_COMPLETED {
		t.Fatalf("state = %v, want completed", engine.State())
	}
	select {
	case <-engine.Done():
	default:
		t.Error("Done not closed after completion")
	}

	summary := engine.Summary()
	if summary.Protocol != "short" || summary.State != STATE_COMPLETED {
		t.Errorf("summary = %+v", summary)
	}
	if math.Abs(summary.TotalElapsedSec-2.0) > 0.25+1e-9 {
		t.Errorf("total elapsed = %v, want within one tick of 2.0", summary.TotalElapsedSec)
	}

	events := drainEvents(engine)
	if n := transitionsTo(events, STATE_INITIALIZING); n != 1 {
		t.Errorf("saw %d initializing transitions, want 1", n)
	}
	if n := transitionsTo(events, STATE_COMPLETED); n != 1 {
		t.Errorf("saw %d completed transitions, want 1", n)
	}
	// One for going active, one for the phase boundary.
	if n := transitionsTo(events, STATE_ACTIVE); n != 2 {
		t.Errorf("saw %d active transitions, want 2 (start + phase change)", n)
	}
}

func TestSession_PhaseChangeEventEmitted(t *testing.T) {
	engine := NewSessionEngine(testSessionOptions())
	p := &Protocol{
		Name: "two-phase",
		Phases: []Phase{
			{Name: "a", DurationSec: 1, StartBeatHz: 10, EndBeatHz: 10, StartIntensity: 0.5, EndIntensity: 0.5},
			{Name: "b", DurationSec: 5, StartBeatHz: 6, EndBeatHz: 6, StartIntensity: 0.5, EndIntensity: 0.5},
		},
	}
	if err := engine.Start(p, GrantGesture()); err != nil {
		t.Fatal(err)
	}
	drainEvents(engine)

	engine.Tick(1.0) // crosses into phase b
	events := drainEvents(engine)

	var found bool
	for _, ev := range events {
		if ev.Transition && ev.PhaseIndex == 1 && ev.PhaseName == "b" {
			found = true
		}
	}
	if !found {
		t.Errorf("no phase-change event for phase b in %+v", events)
	}
}

func TestSession_PauseFreezesElapsed(t *testing.T) {
	engine := NewSessionEngine(testSessionOptions())
	if err := engine.Start(threePhaseProtocol(), GrantGesture()); err != nil {
		t.Fatal(err)
	}

	engine.Tick(0.5)
	if err := engine.Pause(); err != nil {
		t.Fatal(err)
	}
	if engine.State() != STATE_PAUSED {
		t.Fatalf("state = %v, want paused", engine.State())
	}
	before := engine.Summary().TotalElapsedSec

	// Paused ticks keep the driver alive but accumulate nothing.
	for i := 0; i < 5; i++ {
		if !engine.Tick(1.0) {
			t.Fatal("paused tick reported terminal")
		}
	}
	if got := engine.Summary().TotalElapsedSec; got != before {
		t.Errorf("elapsed advanced from %v to %v while paused", before, got)
	}

	if err := engine.Resume(); err != nil {
		t.Fatal(err)
	}
	if engine.State() != STATE_ACTIVE {
		t.Fatalf("state = %v, want active after resume", engine.State())
	}
	if got := engine.Summary().TotalElapsedSec; got != before {
		t.Errorf("elapsed = %v immediately after resume, want unchanged %v", got, before)
	}

	engine.Tick(0.5)
	if got := engine.Summary().TotalElapsedSec; math.Abs(got-1.0) > 1e-9 {
		t.Errorf("elapsed after resume tick = %v, want 1.0", got)
	}
	engine.Stop()
}

func TestSession_PauseResumeStateErrors(t *testing.T) {
	engine := NewSessionEngine(testSessionOptions())
	if err := engine.Pause(); err == nil {
		t.Error("Pause on idle engine succeeded")
	}
	if err := engine.Resume(); err == nil {
		t.Error("Resume on idle engine succeeded")
	}
}

func TestSession_EmergencyStopSummary(t *testing.T) {
	engine := NewSessionEngine(testSessionOptions())
	if err := engine.Start(threePhaseProtocol(), GrantGesture()); err != nil {
		t.Fatal(err)
	}

	// Advance into phase 1 by 4.2 seconds (14.2s total).
	for i := 0; i < 142; i++ {
		if !engine.Tick(0.1) {
			t.Fatal("session ended prematurely")
		}
	}

	engine.EmergencyStop()

	if engine.State() != STATE_EMERGENCY_STOPPED {
		t.Fatalf("state = %v, want emergency-stopped", engine.State())
	}
	if !engine.synth.muted.Load() {
		t.Error("synthesizer not muted after emergency stop")
	}
	if !engine.synth.destroyed {
		t.Error("audio resources not released after emergency stop")
	}

	summary := engine.Summary()
	if summary.PhaseIndex != 1 {
		t.Errorf("summary phase = %d, want 1", summary.PhaseIndex)
	}
	if math.Abs(summary.ElapsedSec-4.2) > 1e-6 {
		t.Errorf("summary phase elapsed = %v, want 4.2", summary.ElapsedSec)
	}
	if summary.State != STATE_EMERGENCY_STOPPED {
		t.Errorf("summary state = %v", summary.State)
	}

	// The summary is frozen at the stop instant.
	if engine.Tick(1.0) {
		t.Error("tick after emergency stop reported alive")
	}
	if got := engine.Summary().ElapsedSec; math.Abs(got-4.2) > 1e-6 {
		t.Errorf("summary drifted to %v after stop", got)
	}
}

// An emergency stop accepted while Start still holds the initializing state
// must win: Start never promotes a terminal state back to active, and any
// synthesizer it built is torn down silent.
func TestSession_EmergencyStopDuringInitialization(t *testing.T) {
	for i := 0; i < 25; i++ {
		engine := NewSessionEngine(testSessionOptions())

		stopped := make(chan struct{})
		go func() {
			// The first published event carries the initializing state;
			// stopping on it races the rest of Start.
			<-engine.Events()
			engine.EmergencyStop()
			close(stopped)
		}()

		err := engine.Start(threePhaseProtocol(), GrantGesture())
		<-stopped

		if got := engine.State(); got != STATE_EMERGENCY_STOPPED {
			t.Fatalf("iteration %d: state = %v after emergency stop during start (err=%v), want emergency-stopped", i, got, err)
		}
		select {
		case <-engine.Done():
		default:
			t.Fatalf("iteration %d: Done not closed", i)
		}

		engine.mutex.Lock()
		synth := engine.synth
		engine.mutex.Unlock()
		if synth != nil && !synth.destroyed {
			t.Fatalf("iteration %d: synthesizer still holds audio resources", i)
		}
	}
}

func TestSession_EmergencyStopOnlyFromRunningStates(t *testing.T) {
	engine := NewSessionEngine(testSessionOptions())
	engine.EmergencyStop() // idle: no-op
	if engine.State() != STATE_IDLE {
		t.Errorf("state = %v, want idle", engine.State())
	}

	if err := engine.Start(threePhaseProtocol(), GrantGesture()); err != nil {
		t.Fatal(err)
	}
	engine.Stop()
	drainEvents(engine)
	engine.EmergencyStop() // completed: no-op
	if engine.State() != STATE_COMPLETED {
		t.Errorf("state = %v, want completed preserved", engine.State())
	}
	if n := transitionsTo(drainEvents(engine), STATE_EMERGENCY_STOPPED); n != 0 {
		t.Errorf("emergency transition emitted from a terminal state")
	}
}

func TestSession_StopIdempotent(t *testing.T) {
	engine := NewSessionEngine(testSessionOptions())
	if err := engine.Start(threePhaseProtocol(), GrantGesture()); err != nil {
		t.Fatal(err)
	}
	engine.Tick(0.5)
	engine.Stop()
	engine.Stop()

	if n := transitionsTo(drainEvents(engine), STATE_COMPLETED); n != 1 {
		t.Errorf("saw %d completed transitions, want exactly 1", n)
	}
}

// The engine functions headless: nothing reads the event stream here and the
// full lifecycle still runs to completion without blocking.
func TestSession_HeadlessNoSubscriber(t *testing.T) {
	engine := NewSessionEngine(testSessionOptions())
	p := &Protocol{
		Name:   "headless",
		Phases: []Phase{{Name: "only", DurationSec: 60, StartBeatHz: 10, EndBeatHz: 10, StartIntensity: 0.5, EndIntensity: 0.5}},
	}
	if err := engine.Start(p, GrantGesture()); err != nil {
		t.Fatal(err)
	}
	// Far more ticks than the event buffer holds.
	for i := 0; i < 600; i++ {
		if !engine.Tick(0.1) {
			break
		}
	}
	if engine.State() != STATE_COMPLETED {
		t.Errorf("state = %v, want completed", engine.State())
	}
}

func TestSession_SchedulerDesyncForcesEmergencyStop(t *testing.T) {
	engine := NewSessionEngine(testSessionOptions())
	if err := engine.Start(threePhaseProtocol(), GrantGesture()); err != nil {
		t.Fatal(err)
	}
	if engine.Tick(-1.0) {
		t.Error("desync tick reported alive")
	}
	if engine.State() != STATE_EMERGENCY_STOPPED {
		t.Errorf("state = %v, want emergency-stopped after desync", engine.State())
	}
}

func TestSession_TickerDrivenCompletion(t *testing.T) {
	opts := testSessionOptions()
	opts.ManualTick = false
	opts.TickInterval = 5 * time.Millisecond
	engine := NewSessionEngine(opts)

	p := &Protocol{
		Name:   "realtime",
		Phases: []Phase{{Name: "only", DurationSec: 0.2, StartBeatHz: 10, EndBeatHz: 10, StartIntensity: 0.5, EndIntensity: 0.5}},
	}
	if err := engine.Start(p, GrantGesture()); err != nil {
		t.Fatal(err)
	}

	select {
	case <-engine.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("ticker-driven session never completed")
	}
	if engine.State() != STATE_COMPLETED {
		t.Errorf("state = %v, want completed", engine.State())
	}
}

func TestSession_SpectrumSafeBeforeStart(t *testing.T) {
	engine := NewSessionEngine(testSessionOptions())
	if snap := engine.Spectrum(); snap != (SpectralSnapshot{}) {
		t.Errorf("pre-start spectrum = %+v, want zero", snap)
	}
}
