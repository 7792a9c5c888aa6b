//go:build headless

// audio_backend_headless.go - Stub OTO backend for headless builds

package main

type OtoPlayer struct {
	started bool
	synth   *BeatSynth
}

func NewOtoPlayer(sampleRate int) (*OtoPlayer, error) {
	return &OtoPlayer{}, nil
}

func (op *OtoPlayer) SetupPlayer(synth *BeatSynth) {
	op.synth = synth
}

func (op *OtoPlayer) Read(p []byte) (n int, err error) {
	return len(p), nil
}

func (op *OtoPlayer) Start() {
	op.started = true
}

func (op *OtoPlayer) Stop() {
	op.started = false
}

func (op *OtoPlayer) Close() {
	op.started = false
}

func (op *OtoPlayer) IsStarted() bool {
	return op.started
}
