// errors.go - Error taxonomy for the Resonance Engine

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/ResonanceEngine
License: GPLv3 or later
*/

package main

import "errors"

// Sentinel errors for the session and synthesis layers. Callers match with
// errors.Is; wrapped variants carry the failing value.
var (
	// ErrInvalidFrequency reports a beat or carrier frequency outside the
	// safety bounds. In the default mode the value is clamped and this error
	// only appears inside a warning event; in strict mode Configure returns it.
	ErrInvalidFrequency = errors.New("invalid frequency")

	// ErrInvalidIntensity reports an intensity outside [0, 1]. Always
	// recovered by clamping, so it appears only inside warning events.
	ErrInvalidIntensity = errors.New("invalid intensity")

	// ErrAudioUnavailable reports that the host audio backend could not be
	// acquired. Fatal to the Start call that hit it; session stays Idle.
	ErrAudioUnavailable = errors.New("audio unavailable")

	// ErrGestureRequired reports a Start attempt without a user-gesture token.
	ErrGestureRequired = errors.New("user gesture required")

	// ErrSchedulerDesync reports an internal scheduling invariant violation
	// (negative elapsed time, phase index out of range). Fatal for the
	// session: the engine emergency-stops rather than continue inconsistent.
	ErrSchedulerDesync = errors.New("scheduler desync")

	// ErrInvalidProtocol reports a protocol that failed validation.
	ErrInvalidProtocol = errors.New("invalid protocol")
)

// SynthWarning describes a locally recovered safety clamp. Hearing safety never
// depends on caller correctness, so clamps are not hard failures; they are
// surfaced through the warning hook so collaborators can log or display them.
type SynthWarning struct {
	Err       error   // ErrInvalidFrequency or ErrInvalidIntensity
	Field     string  // "beat", "carrier", "intensity"
	Requested float64 // value the caller asked for
	Applied   float64 // value actually applied after clamping
}

func (w SynthWarning) String() string {
	return w.Field + " clamped"
}
