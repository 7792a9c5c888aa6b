// oscillator.go - Stereo oscillator pair, the atomic synthesis primitive

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/ResonanceEngine
License: GPLv3 or later
*/

package main

import "math"

const (
	CHANNEL_LEFT  = 0
	CHANNEL_RIGHT = 1

	// Parameter changes ramp linearly over this window to avoid audible
	// clicks. Retargeting an in-flight ramp continues from the current value.
	RAMP_MS = 50
)

// toneChannel is one smoothed sine generator. Current values slew toward
// their targets by a fixed per-sample step computed when the target is set.
type toneChannel struct {
	phase float64

	freq       float64
	freqTarget float64
	freqStep   float64

	gain       float64
	gainTarget float64
	gainStep   float64
}

func (c *toneChannel) setFreq(hz float64, rampSamples float64) {
	c.freqTarget = hz
	if rampSamples <= 1 {
		c.freq = hz
		c.freqStep = 0
		return
	}
	c.freqStep = (hz - c.freq) / rampSamples
}

func (c *toneChannel) setGain(level float64, rampSamples float64) {
	c.gainTarget = level
	if rampSamples <= 1 {
		c.gain = level
		c.gainStep = 0
		return
	}
	c.gainStep = (level - c.gain) / rampSamples
}

// slew advances one value toward its target by step, snapping on overshoot.
func slew(current, target, step float64) float64 {
	if step == 0 || current == target {
		return target
	}
	next := current + step
	if (step > 0 && next >= target) || (step < 0 && next <= target) {
		return target
	}
	return next
}

// OscillatorPair holds the two independently tunable tone generators that
// produce the stereo carrier split. It performs no locking of its own; the
// owning synthesizer serializes access.
type OscillatorPair struct {
	sampleRate  float64
	rampSamples float64
	started     bool
	ch          [2]toneChannel
}

func NewOscillatorPair(sampleRate int) *OscillatorPair {
	return &OscillatorPair{
		sampleRate:  float64(sampleRate),
		rampSamples: float64(sampleRate) * RAMP_MS / 1000.0,
	}
}

// SetFrequency retunes one channel. The change is applied with the smoothing
// ramp, never as a discontinuous jump.
func (p *OscillatorPair) SetFrequency(channel int, hz float64) {
	p.ch[channel].setFreq(hz, p.rampSamples)
}

// SetGain sets one channel's gain with the smoothing ramp.
func (p *OscillatorPair) SetGain(channel int, level float64) {
	p.ch[channel].setGain(level, p.rampSamples)
}

func (p *OscillatorPair) Start() {
	p.started = true
}

// Stop is idempotent and safe to call on an unstarted pair.
func (p *OscillatorPair) Stop() {
	if !p.started {
		return
	}
	p.started = false
	for i := range p.ch {
		p.ch[i].phase = 0
	}
}

func (p *OscillatorPair) IsStarted() bool {
	return p.started
}

// nextSample advances one channel by one sample and returns its output.
// Phase accumulates in radians and wraps at 2π to preserve precision over
// long sessions.
func (p *OscillatorPair) nextSample(channel int) float64 {
	if !p.started {
		return 0
	}
	c := &p.ch[channel]

	c.freq = slew(c.freq, c.freqTarget, c.freqStep)
	c.gain = slew(c.gain, c.gainTarget, c.gainStep)

	sample := math.Sin(c.phase) * c.gain

	c.phase += c.freq * (2 * math.Pi / p.sampleRate)
	if c.phase >= 2*math.Pi {
		c.phase -= 2 * math.Pi
	}
	return sample
}
