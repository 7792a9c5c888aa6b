// beat_synth.go - Binaural beat synthesizer: carrier split, fades, safety clamps

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/ResonanceEngine
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// Beat frequencies outside this band have no entrainment value and the
	// lower bound keeps the channel split audible as a beat rather than a
	// detune.
	MIN_BEAT_HZ = 0.5
	MAX_BEAT_HZ = 40.0

	// Audible-safety band for the carrier.
	MIN_CARRIER_HZ = 20.0
	MAX_CARRIER_HZ = 20000.0

	// Hearing-safety ceiling: realized gain never exceeds this fraction of
	// full scale, regardless of requested intensity. Never relaxed by caller
	// input.
	MAX_SAFE_GAIN = 0.7

	DEFAULT_CARRIER_HZ = 200.0
)

// carrierPresets maps the opaque carrier tags carried by phases to base tone
// frequencies. Unknown tags fall back to DEFAULT_CARRIER_HZ.
var carrierPresets = map[string]float64{
	"default":   DEFAULT_CARRIER_HZ,
	"deep":      110.0,
	"warm":      160.0,
	"bright":    320.0,
	"temporal":  440.0,
	"solfeggio": 528.0,
}

// SynthOptions configures a BeatSynth instance.
type SynthOptions struct {
	Backend    int  // AUDIO_BACKEND_OTO or AUDIO_BACKEND_NULL
	SampleRate int  // 0 = SAMPLE_RATE
	Strict     bool // out-of-range requests become hard errors instead of clamps
	NoOutput   bool // offline rendering: skip backend acquisition entirely

	// OnWarning receives safety-clamp notifications. Called outside the
	// synth lock; may be nil.
	OnWarning func(SynthWarning)

	// Seed for the ambient noise generators; 0 derives one from the clock.
	AmbientSeed int64
}

// BeatSynth renders the dual-channel entrainment signal. It exclusively owns
// the oscillator pair, ambient layer and backend handle; no other component
// mutates them directly. Parameter writes take the mutex; the render path
// takes it too, but holds it only for arithmetic, never for I/O.
type BeatSynth struct {
	mutex      sync.Mutex
	sampleRate float64

	osc     *OscillatorPair
	ambient *AmbientLayer
	tap     *SpectrumTap
	output  AudioOutput

	carrierHz float64 // realized (clamped) carrier
	beatHz    float64 // realized (clamped) beat

	level       float64 // realized gain, intensity * MAX_SAFE_GAIN, slewed
	levelTarget float64
	levelStep   float64

	fadeGain   float64 // master fade envelope, 0..1
	fadeTarget float64
	fadeStep   float64

	pulseEnabled bool
	pulseDepth   float64
	pulsePhase   float64

	pan float64

	strict    bool
	onWarning func(SynthWarning)

	started   bool
	destroyed bool

	// muted bypasses every ramp: the render path checks it before anything
	// else, so silence lands on the very next rendered buffer.
	muted atomic.Bool

	monoBuf []float64
}

// NewBeatSynth acquires the audio backend (unless NoOutput) and returns a
// synthesizer in its initial silent state. The returned instance is
// independent of any other; there is no process-wide synthesizer.
func NewBeatSynth(opts SynthOptions) (*BeatSynth, error) {
	rate := opts.SampleRate
	if rate == 0 {
		rate = SAMPLE_RATE
	}
	seed := opts.AmbientSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &BeatSynth{
		sampleRate: float64(rate),
		osc:        NewOscillatorPair(rate),
		ambient:    NewAmbientLayer(seed),
		tap:        NewSpectrumTap(rate),
		carrierHz:  DEFAULT_CARRIER_HZ,
		beatHz:     MIN_BEAT_HZ,
		strict:     opts.Strict,
		onWarning:  opts.OnWarning,
		monoBuf:    make([]float64, 0, 4096),
	}

	if !opts.NoOutput {
		output, err := NewAudioOutput(opts.Backend, rate, s)
		if err != nil {
			return nil, err
		}
		s.output = output
	}

	s.applyPanLocked(0)
	return s, nil
}

// clampField clamps v into [lo, hi] and records a warning when it had to. In
// strict mode the clamp becomes a hard error instead.
func (s *BeatSynth) clampField(field string, v, lo, hi float64, warnings *[]SynthWarning) (float64, error) {
	if v >= lo && v <= hi {
		return v, nil
	}
	clamped := v
	if clamped < lo {
		clamped = lo
	}
	if clamped > hi {
		clamped = hi
	}
	if s.strict {
		return clamped, fmt.Errorf("%w: %s %g outside [%g, %g]", ErrInvalidFrequency, field, v, lo, hi)
	}
	*warnings = append(*warnings, SynthWarning{
		Err:       ErrInvalidFrequency,
		Field:     field,
		Requested: v,
		Applied:   clamped,
	})
	return clamped, nil
}

// Configure retunes the oscillator pair for the given carrier and beat. The
// channels split symmetrically: left = carrier - beat/2, right = carrier +
// beat/2, so the perceived beat equals |left - right|. Out-of-range values
// are clamped (the clamp itself is the documented safety behavior) and
// surfaced as warnings; strict mode turns them into hard errors.
func (s *BeatSynth) Configure(carrierHz, beatHz float64, carrierType string) error {
	var warnings []SynthWarning

	s.mutex.Lock()
	err := s.configureLocked(carrierHz, beatHz, carrierType, &warnings)
	s.mutex.Unlock()

	s.emitWarnings(warnings)
	return err
}

func (s *BeatSynth) configureLocked(carrierHz, beatHz float64, carrierType string, warnings *[]SynthWarning) error {
	if carrierHz == 0 {
		carrierHz = resolveCarrier(carrierType)
	}

	beat, err := s.clampField("beat", math.Abs(beatHz), MIN_BEAT_HZ, MAX_BEAT_HZ, warnings)
	if err != nil {
		return err
	}
	carrier, err := s.clampField("carrier", carrierHz, MIN_CARRIER_HZ, MAX_CARRIER_HZ, warnings)
	if err != nil {
		return err
	}

	s.carrierHz = carrier
	s.beatHz = beat
	s.osc.SetFrequency(CHANNEL_LEFT, carrier-beat/2)
	s.osc.SetFrequency(CHANNEL_RIGHT, carrier+beat/2)
	return nil
}

func resolveCarrier(tag string) float64 {
	if hz, ok := carrierPresets[tag]; ok {
		return hz
	}
	return DEFAULT_CARRIER_HZ
}

// SetIntensity sets the target output level. The realized gain is always at
// most MAX_SAFE_GAIN of full scale; requests above 1 clamp with a warning.
func (s *BeatSynth) SetIntensity(level float64) {
	var warnings []SynthWarning

	s.mutex.Lock()
	s.setIntensityLocked(level, &warnings)
	s.mutex.Unlock()

	s.emitWarnings(warnings)
}

func (s *BeatSynth) setIntensityLocked(level float64, warnings *[]SynthWarning) {
	if level < 0 || level > 1 {
		clamped := clamp01(level)
		*warnings = append(*warnings, SynthWarning{
			Err:       ErrInvalidIntensity,
			Field:     "intensity",
			Requested: level,
			Applied:   clamped,
		})
		level = clamped
	}
	s.levelTarget = level * MAX_SAFE_GAIN
	s.levelStep = (s.levelTarget - s.level) / (s.sampleRate * RAMP_MS / 1000.0)
}

// FadeIn ramps the master fade envelope to full over durationSec.
func (s *BeatSynth) FadeIn(durationSec float64) {
	s.fadeTo(1, durationSec)
}

// FadeOut ramps the master fade envelope to silence over durationSec. A fade
// always supersedes an in-flight one, continuing from the current gain
// (cancel-and-replace, not a queue).
func (s *BeatSynth) FadeOut(durationSec float64) {
	s.fadeTo(0, durationSec)
}

func (s *BeatSynth) fadeTo(target, durationSec float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.fadeTarget = target
	if durationSec <= 0 {
		s.fadeGain = target
		s.fadeStep = 0
		return
	}
	s.fadeStep = (target - s.fadeGain) / (s.sampleRate * durationSec)
}

// SetPulse toggles isochronic amplitude pulsing at the beat rate. Independent
// of pan and ambient; toggling it affects nothing else.
func (s *BeatSynth) SetPulse(enabled bool, depth float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.pulseEnabled = enabled
	s.pulseDepth = clamp01(depth)
}

// SetPan positions the signal in the stereo field, -1 (hard left) to 1 (hard
// right), using an equal-power law. The gain change rides the oscillator
// smoothing ramps.
func (s *BeatSynth) SetPan(x float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.applyPanLocked(x)
}

func (s *BeatSynth) applyPanLocked(x float64) {
	if x < -1 {
		x = -1
	}
	if x > 1 {
		x = 1
	}
	s.pan = x
	theta := (x + 1) * math.Pi / 4
	s.osc.SetGain(CHANNEL_LEFT, math.Cos(theta))
	s.osc.SetGain(CHANNEL_RIGHT, math.Sin(theta))
}

// SetAmbient selects the colored-noise bed mixed under the beat signal.
func (s *BeatSynth) SetAmbient(kind string, volume float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.ambient.Set(kind, volume)
}

// ApplyParams applies a full tick parameter set under one lock acquisition.
// This is the scheduler's fire-and-forget write path: a later update always
// supersedes an earlier one still ramping.
func (s *BeatSynth) ApplyParams(p SynthParams) error {
	var warnings []SynthWarning

	s.mutex.Lock()
	err := s.configureLocked(p.CarrierHz, p.BeatHz, p.CarrierTag, &warnings)
	if err == nil {
		s.setIntensityLocked(p.Intensity, &warnings)
		s.pulseEnabled = p.PulseEnabled
		s.pulseDepth = clamp01(p.PulseDepth)
		s.applyPanLocked(p.Pan)
		s.ambient.Set(p.Ambient.Kind, p.Ambient.Volume)
	}
	s.mutex.Unlock()

	s.emitWarnings(warnings)
	return err
}

func (s *BeatSynth) emitWarnings(warnings []SynthWarning) {
	if s.onWarning == nil {
		return
	}
	for _, w := range warnings {
		s.onWarning(w)
	}
}

// Start begins tone generation and opens the backend stream.
func (s *BeatSynth) Start() {
	s.mutex.Lock()
	s.osc.Start()
	output := s.output
	s.mutex.Unlock()

	if output != nil {
		output.Start()
	}
}

// Stop halts generation without releasing the backend. Idempotent.
func (s *BeatSynth) Stop() {
	s.mutex.Lock()
	s.osc.Stop()
	output := s.output
	s.mutex.Unlock()

	if output != nil {
		output.Stop()
	}
}

// EmergencyMute silences output unconditionally, bypassing any in-progress
// ramp. The flag is atomic so the render path observes it without taking the
// lock: silence lands within one backend buffer of the call.
func (s *BeatSynth) EmergencyMute() {
	s.muted.Store(true)
}

// Destroy releases the backend handle. Safe to call multiple times.
func (s *BeatSynth) Destroy() {
	s.mutex.Lock()
	if s.destroyed {
		s.mutex.Unlock()
		return
	}
	s.destroyed = true
	s.osc.Stop()
	output := s.output
	s.output = nil
	s.mutex.Unlock()

	if output != nil {
		output.Close()
	}
}

// SampleSpectrum returns a momentary spectral snapshot for the visualization
// collaborator. Non-blocking with respect to the render path and mutates no
// synthesis state.
func (s *BeatSynth) SampleSpectrum() SpectralSnapshot {
	return s.tap.Snapshot()
}

// RealizedBeatHz reports the clamped beat frequency currently applied, equal
// to |leftFreq - rightFreq|.
func (s *BeatSynth) RealizedBeatHz() float64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.beatHz
}

// RealizedCarrierHz reports the clamped carrier currently applied.
func (s *BeatSynth) RealizedCarrierHz() float64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.carrierHz
}

// RealizedGain reports the slew target of the output level. Never exceeds
// MAX_SAFE_GAIN.
func (s *BeatSynth) RealizedGain() float64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.levelTarget
}

// RenderAudio fills an interleaved stereo float32 buffer. This is the audio
// callback path: it holds the lock for arithmetic only and performs no I/O.
func (s *BeatSynth) RenderAudio(buf []float32) {
	if s.muted.Load() {
		for i := range buf {
			buf[i] = 0
		}
		return
	}

	frames := len(buf) / 2

	s.mutex.Lock()
	if s.destroyed || !s.osc.IsStarted() {
		s.mutex.Unlock()
		for i := range buf {
			buf[i] = 0
		}
		return
	}

	mono := s.monoBuf[:0]
	pulseInc := 2 * math.Pi * s.beatHz / s.sampleRate

	for i := 0; i < frames; i++ {
		// Emergency stop may land mid-buffer; honor it per frame.
		if s.muted.Load() {
			for j := i * 2; j < len(buf); j++ {
				buf[j] = 0
			}
			break
		}

		left := s.osc.nextSample(CHANNEL_LEFT)
		right := s.osc.nextSample(CHANNEL_RIGHT)

		s.level = slew(s.level, s.levelTarget, s.levelStep)
		s.fadeGain = slew(s.fadeGain, s.fadeTarget, s.fadeStep)

		mod := 1.0
		if s.pulseEnabled {
			mod = 1 - s.pulseDepth*0.5*(1+math.Cos(s.pulsePhase))
			s.pulsePhase += pulseInc
			if s.pulsePhase >= 2*math.Pi {
				s.pulsePhase -= 2 * math.Pi
			}
		}

		noise := s.ambient.nextSample()
		amp := s.level * s.fadeGain

		l := (left*mod + noise) * amp
		r := (right*mod + noise) * amp

		buf[i*2] = float32(clampSample(l))
		buf[i*2+1] = float32(clampSample(r))
		mono = append(mono, (l+r)/2)
	}
	s.monoBuf = mono
	s.mutex.Unlock()

	s.tap.pushBlock(mono)
}

func clampSample(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
