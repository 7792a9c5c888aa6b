// audio_backend.go - Audio output backend interface and factory

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/ResonanceEngine
License: GPLv3 or later
*/

package main

import "fmt"

const (
	AUDIO_BACKEND_OTO = iota
	AUDIO_BACKEND_NULL
)

const SAMPLE_RATE = 44100

// AudioOutput is the opaque handle onto the host audio subsystem. Acquisition
// happens in NewAudioOutput; Start/Stop gate playback; Close releases the
// device. Stop and Close are idempotent.
type AudioOutput interface {
	Start()
	Stop()
	Close()
	IsStarted() bool
}

// NewAudioOutput acquires the selected backend and attaches the synthesizer
// as its sample source. A failure here is the AudioUnavailable condition: the
// caller surfaces it and no session resources are considered allocated.
func NewAudioOutput(backend int, sampleRate int, synth *BeatSynth) (AudioOutput, error) {
	switch backend {
	case AUDIO_BACKEND_OTO:
		player, err := NewOtoPlayer(sampleRate)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAudioUnavailable, err)
		}
		player.SetupPlayer(synth)
		return player, nil
	case AUDIO_BACKEND_NULL:
		return NewNullOutput(), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %d", ErrAudioUnavailable, backend)
	}
}

// NullOutput is the backend used for tests and offline rendering: it holds no
// device and generates nothing on its own. Callers drive the synthesizer's
// RenderAudio directly.
type NullOutput struct {
	started bool
}

func NewNullOutput() *NullOutput {
	return &NullOutput{}
}

func (n *NullOutput) Start()          { n.started = true }
func (n *NullOutput) Stop()           { n.started = false }
func (n *NullOutput) Close()          { n.started = false }
func (n *NullOutput) IsStarted() bool { return n.started }
