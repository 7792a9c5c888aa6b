// wav_writer.go - Offline session rendering to a wave file

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/ResonanceEngine
License: GPLv3 or later
*/

package main

import (
	"bufio"
	"encoding/binary"
	"os"
)

const wavHeaderSize = 0x2C

// WavWriter writes 16-bit PCM samples to a RIFF wave file. Close finalizes
// the header with the real data length.
type WavWriter struct {
	f           *os.File
	w           *bufio.Writer
	sampleRate  int
	channels    int
	sampleCount int
}

func NewWavWriter(path string, sampleRate, channels int) (*WavWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	ww := &WavWriter{f: f, w: bufio.NewWriter(f), sampleRate: sampleRate, channels: channels}
	// Placeholder header; rewritten with real sizes on Close.
	h := ww.header()
	if _, err := ww.w.Write(h[:]); err != nil {
		f.Close()
		return nil, err
	}
	return ww, nil
}

func (ww *WavWriter) header() [wavHeaderSize]byte {
	const sampleSize = 2
	dataSize := sampleSize * ww.sampleCount
	frameSize := sampleSize * ww.channels
	h := [wavHeaderSize]byte{
		'R', 'I', 'F', 'F',
		0, 0, 0, 0,
		'W', 'A', 'V', 'E',
		'f', 'm', 't', ' ',
		16, 0, 0, 0,
		1, 0, // uncompressed PCM
		0, 0,
		0, 0, 0, 0,
		0, 0, 0, 0,
		0, 0,
		sampleSize * 8, 0,
		'd', 'a', 't', 'a',
		0, 0, 0, 0,
	}
	binary.LittleEndian.PutUint32(h[0x04:], uint32(wavHeaderSize-8+dataSize))
	h[0x16] = byte(ww.channels)
	binary.LittleEndian.PutUint32(h[0x18:], uint32(ww.sampleRate))
	binary.LittleEndian.PutUint32(h[0x1C:], uint32(ww.sampleRate)*uint32(frameSize))
	binary.LittleEndian.PutUint16(h[0x20:], uint16(frameSize))
	binary.LittleEndian.PutUint32(h[0x28:], uint32(dataSize))
	return h
}

// WriteFloats converts float32 samples in [-1,1] to int16 and appends them.
func (ww *WavWriter) WriteFloats(samples []float32) error {
	for _, s := range samples {
		v := int16(clampSample(float64(s)) * 32767)
		if err := binary.Write(ww.w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	ww.sampleCount += len(samples)
	return nil
}

// Close flushes, rewrites the header with the final sizes and closes the file.
func (ww *WavWriter) Close() error {
	if err := ww.w.Flush(); err != nil {
		ww.f.Close()
		return err
	}
	h := ww.header()
	if _, err := ww.f.WriteAt(h[:], 0); err != nil {
		ww.f.Close()
		return err
	}
	return ww.f.Close()
}

// SampleCount returns the number of samples written so far.
func (ww *WavWriter) SampleCount() int { return ww.sampleCount }

// RenderProtocolToWAV renders a protocol offline, faster than real time,
// through the exact same synthesis path the live session uses. The scheduler
// is driven at a fixed virtual tick equal to one render chunk.
func RenderProtocolToWAV(p *Protocol, path string, sampleRate int) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if sampleRate == 0 {
		sampleRate = SAMPLE_RATE
	}

	synth, err := NewBeatSynth(SynthOptions{
		SampleRate: sampleRate,
		NoOutput:   true,
	})
	if err != nil {
		return err
	}
	defer synth.Destroy()

	sched := NewPhaseScheduler(p)
	if err := synth.ApplyParams(phaseParams(&p.Phases[0], 0)); err != nil {
		return err
	}
	synth.Start()
	synth.FadeIn(DEFAULT_FADE_IN_SEC)

	ww, err := NewWavWriter(path, sampleRate, 2)
	if err != nil {
		return err
	}

	const chunkFrames = 1024
	chunk := make([]float32, chunkFrames*2)
	dt := float64(chunkFrames) / float64(sampleRate)

	render := func() error {
		synth.RenderAudio(chunk)
		return ww.WriteFloats(chunk)
	}

	for {
		result, err := sched.Tick(dt)
		if err != nil {
			ww.Close()
			return err
		}
		if err := synth.ApplyParams(result.Params); err != nil {
			ww.Close()
			return err
		}
		// The completing tick still renders, so the file covers the full
		// scheduled duration before the tail.
		if err := render(); err != nil {
			ww.Close()
			return err
		}
		if result.Done {
			break
		}
	}

	// Fade-out tail so the file does not end on a hard edge.
	synth.FadeOut(DEFAULT_FADE_OUT_SEC)
	tail := int(DEFAULT_FADE_OUT_SEC*float64(sampleRate)) / chunkFrames
	for i := 0; i < tail; i++ {
		if err := render(); err != nil {
			ww.Close()
			return err
		}
	}

	return ww.Close()
}
