// protocol.go - Entrainment protocol and phase data model

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/ResonanceEngine
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"math"
)

// AmbientSpec selects a colored-noise texture mixed under the beat signal.
type AmbientSpec struct {
	Kind   string  `yaml:"kind"`   // "white", "pink", "brown" or "" for off
	Volume float64 `yaml:"volume"` // 0.0-1.0
}

// PulseSpec enables rhythmic amplitude pulsing ("isochronic" mode) at the
// beat rate.
type PulseSpec struct {
	Enabled bool    `yaml:"enabled"`
	Depth   float64 `yaml:"depth"` // 0.0-1.0, fraction of amplitude modulated away
}

// SpatialSpec positions the beat signal in the stereo field. A non-zero
// OrbitPeriodSec makes the azimuth sweep sinusoidally with that period,
// centered on Pan.
type SpatialSpec struct {
	Pan            float64 `yaml:"pan"`          // -1.0 (left) to 1.0 (right)
	OrbitPeriodSec float64 `yaml:"orbit_period"` // 0 = fixed position
}

// Phase is one timed scheduling unit of a protocol. If the start and end
// values differ, the scheduler interpolates linearly over elapsed phase time.
type Phase struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	DurationSec float64 `yaml:"duration"`

	StartBeatHz float64 `yaml:"beat_start"`
	EndBeatHz   float64 `yaml:"beat_end"`

	StartIntensity float64 `yaml:"intensity_start"`
	EndIntensity   float64 `yaml:"intensity_end"`

	// Carrier selects a tone preset by tag; CarrierHz overrides it when
	// non-zero. The tag is opaque to everything except the synthesizer.
	Carrier   string  `yaml:"carrier"`
	CarrierHz float64 `yaml:"carrier_hz"`

	Ambient *AmbientSpec `yaml:"ambient"`
	Pulse   *PulseSpec   `yaml:"pulse"`
	Spatial *SpatialSpec `yaml:"spatial"`
}

// Protocol is an immutable, externally supplied ordered phase list. Metadata
// fields are consumed only for display elsewhere.
type Protocol struct {
	Name         string  `yaml:"name"`
	SafetyRating string  `yaml:"safety_rating"`
	Phases       []Phase `yaml:"phases"`
}

// TotalDuration returns the sum of all phase durations in seconds.
func (p *Protocol) TotalDuration() float64 {
	var total float64
	for i := range p.Phases {
		total += p.Phases[i].DurationSec
	}
	return total
}

// Validate checks the protocol invariants: at least one phase, every duration
// positive, every frequency finite. Frequency safety-range enforcement is the
// synthesizer's job (it clamps); validation only rejects values it could not
// even clamp sensibly.
func (p *Protocol) Validate() error {
	if len(p.Phases) == 0 {
		return fmt.Errorf("%w: no phases", ErrInvalidProtocol)
	}
	for i := range p.Phases {
		ph := &p.Phases[i]
		if ph.DurationSec <= 0 {
			return fmt.Errorf("%w: phase %d (%q) duration %v must be > 0",
				ErrInvalidProtocol, i, ph.Name, ph.DurationSec)
		}
		for _, f := range []float64{ph.StartBeatHz, ph.EndBeatHz, ph.CarrierHz} {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Errorf("%w: phase %d (%q) has a non-finite frequency",
					ErrInvalidProtocol, i, ph.Name)
			}
		}
		for _, v := range []float64{ph.StartIntensity, ph.EndIntensity} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: phase %d (%q) has a non-finite intensity",
					ErrInvalidProtocol, i, ph.Name)
			}
		}
	}
	return nil
}

// SynthParams is the instantaneous parameter set handed to the synthesizer on
// every tick. Derived from the active phase and elapsed time; recomputed each
// tick, never persisted or diffed against history.
type SynthParams struct {
	CarrierTag   string
	CarrierHz    float64 // 0 = resolve from CarrierTag
	BeatHz       float64
	Intensity    float64
	Pan          float64
	PulseEnabled bool
	PulseDepth   float64
	Ambient      AmbientSpec
}

// phaseParams computes the interpolated parameters for a phase at local time
// elapsed. t is clamped to [0,1] so a tick that lands past the boundary still
// produces the phase's end values.
func phaseParams(ph *Phase, elapsed float64) SynthParams {
	t := 0.0
	if ph.DurationSec > 0 {
		t = elapsed / ph.DurationSec
	}
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}

	params := SynthParams{
		CarrierTag: ph.Carrier,
		CarrierHz:  ph.CarrierHz,
		BeatHz:     ph.StartBeatHz + (ph.EndBeatHz-ph.StartBeatHz)*t,
		Intensity:  ph.StartIntensity + (ph.EndIntensity-ph.StartIntensity)*t,
	}
	if ph.Pulse != nil {
		params.PulseEnabled = ph.Pulse.Enabled
		params.PulseDepth = ph.Pulse.Depth
	}
	if ph.Ambient != nil {
		params.Ambient = *ph.Ambient
	}
	if ph.Spatial != nil {
		params.Pan = ph.Spatial.Pan
		if ph.Spatial.OrbitPeriodSec > 0 {
			params.Pan += (1 - math.Abs(ph.Spatial.Pan)) *
				math.Sin(2*math.Pi*elapsed/ph.Spatial.OrbitPeriodSec)
		}
	}
	return params
}
