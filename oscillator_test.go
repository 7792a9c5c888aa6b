package main

import (
	"math"
	"testing"
)

// Retuning mid-stream must never produce a discontinuity: the sample-to-sample
// delta stays bounded by the steepest slope the target frequency allows plus
// the gain ramp contribution.
func TestOscillatorPair_RetuneIsClickFree(t *testing.T) {
	osc := NewOscillatorPair(SAMPLE_RATE)
	osc.Start()
	osc.SetFrequency(CHANNEL_LEFT, 440)
	osc.SetGain(CHANNEL_LEFT, 1.0)

	// Let the initial ramps settle.
	for i := 0; i < SAMPLE_RATE/10; i++ {
		osc.nextSample(CHANNEL_LEFT)
	}

	prev := osc.nextSample(CHANNEL_LEFT)
	osc.SetFrequency(CHANNEL_LEFT, 880)

	maxDelta := 2 * math.Pi * 880 / SAMPLE_RATE * 1.05
	for i := 0; i < SAMPLE_RATE/5; i++ {
		s := osc.nextSample(CHANNEL_LEFT)
		if d := math.Abs(s - prev); d > maxDelta {
			t.Fatalf("sample %d: delta %v exceeds %v after retune", i, d, maxDelta)
		}
		prev = s
	}

	if got := osc.ch[CHANNEL_LEFT].freq; math.Abs(got-880) > 1e-9 {
		t.Errorf("frequency after ramp = %v, want 880", got)
	}
}

func TestOscillatorPair_RampCompletesWithinWindow(t *testing.T) {
	osc := NewOscillatorPair(SAMPLE_RATE)
	osc.Start()
	osc.SetGain(CHANNEL_RIGHT, 0.7)

	rampSamples := SAMPLE_RATE * RAMP_MS / 1000
	for i := 0; i < rampSamples+2; i++ {
		osc.nextSample(CHANNEL_RIGHT)
	}
	if got := osc.ch[CHANNEL_RIGHT].gain; got != 0.7 {
		t.Errorf("gain after full ramp window = %v, want 0.7", got)
	}
}

// Retargeting an in-flight ramp continues from the current value rather than
// restarting from the old target.
func TestOscillatorPair_RetargetContinuesFromCurrent(t *testing.T) {
	osc := NewOscillatorPair(SAMPLE_RATE)
	osc.Start()
	osc.SetGain(CHANNEL_LEFT, 1.0)

	// Advance half the ramp window.
	half := SAMPLE_RATE * RAMP_MS / 1000 / 2
	for i := 0; i < half; i++ {
		osc.nextSample(CHANNEL_LEFT)
	}
	mid := osc.ch[CHANNEL_LEFT].gain
	if mid < 0.3 || mid > 0.7 {
		t.Fatalf("mid-ramp gain = %v, expected roughly half", mid)
	}

	osc.SetGain(CHANNEL_LEFT, 0)
	osc.nextSample(CHANNEL_LEFT)
	after := osc.ch[CHANNEL_LEFT].gain
	if after > mid || mid-after > 0.01 {
		t.Errorf("gain after retarget = %v from %v, want a small step downward", after, mid)
	}
}

func TestOscillatorPair_StopIdempotent(t *testing.T) {
	osc := NewOscillatorPair(SAMPLE_RATE)
	osc.Stop() // unstarted
	osc.Start()
	osc.Stop()
	osc.Stop()
	if osc.IsStarted() {
		t.Error("pair reports started after Stop")
	}
	if got := osc.nextSample(CHANNEL_LEFT); got != 0 {
		t.Errorf("stopped pair produced %v, want silence", got)
	}
}

func TestOscillatorPair_ChannelsIndependent(t *testing.T) {
	osc := NewOscillatorPair(SAMPLE_RATE)
	osc.Start()
	osc.SetFrequency(CHANNEL_LEFT, 195)
	osc.SetFrequency(CHANNEL_RIGHT, 205)
	osc.SetGain(CHANNEL_LEFT, 1)
	osc.SetGain(CHANNEL_RIGHT, 1)

	for i := 0; i < SAMPLE_RATE/10; i++ {
		osc.nextSample(CHANNEL_LEFT)
		osc.nextSample(CHANNEL_RIGHT)
	}
	l, r := osc.ch[CHANNEL_LEFT].freq, osc.ch[CHANNEL_RIGHT].freq
	if math.Abs((r-l)-10) > 1e-9 {
		t.Errorf("channel split = %v Hz, want 10", r-l)
	}
}
