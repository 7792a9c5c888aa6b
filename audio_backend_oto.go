//go:build !headless

// audio_backend_oto.go - OTO v3 stereo audio output implementation

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/ResonanceEngine
License: GPLv3 or later
*/

package main

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/oto/v3"
)

type OtoPlayer struct {
	ctx       *oto.Context
	player    *oto.Player
	synth     atomic.Pointer[BeatSynth] // atomic for the lock-free Read() hot path
	sampleBuf []float32
	started   bool
	mutex     sync.Mutex // setup/control operations only
}

func NewOtoPlayer(sampleRate int) (*OtoPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	return &OtoPlayer{ctx: ctx}, nil
}

func (op *OtoPlayer) SetupPlayer(synth *BeatSynth) {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	op.synth.Store(synth)
	op.player = op.ctx.NewPlayer(op)
	// Pre-allocate for typical oto buffer sizes (4096 bytes = 1024 float32s)
	op.sampleBuf = make([]float32, 4096)
}

// Read runs on oto's audio goroutine. It must never block on the session
// mutexes, so the synth pointer is loaded atomically and the synth renders
// from its own state.
func (op *OtoPlayer) Read(p []byte) (n int, err error) {
	synth := op.synth.Load()
	if synth == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	numSamples := len(p) / 4
	if len(op.sampleBuf) < numSamples {
		op.sampleBuf = make([]float32, numSamples)
	}
	samples := op.sampleBuf[:numSamples]

	synth.RenderAudio(samples)

	copy(p, (*[1 << 30]byte)(unsafe.Pointer(&samples[0]))[:len(p)])
	return len(p), nil
}

func (op *OtoPlayer) Start() {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if !op.started && op.player != nil {
		op.player.Play()
		op.started = true
	}
}

func (op *OtoPlayer) Stop() {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if op.started && op.player != nil {
		op.player.Pause()
		op.started = false
	}
}

func (op *OtoPlayer) Close() {
	op.Stop()
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if op.player != nil {
		op.player.Close()
		op.player = nil
	}
}

func (op *OtoPlayer) IsStarted() bool {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	return op.started
}
