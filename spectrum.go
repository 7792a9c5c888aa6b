// spectrum.go - Spectral tap feeding the reactive visualization layer

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/ResonanceEngine
License: GPLv3 or later
*/

package main

import (
	"math"
	"sync"
)

const (
	SPECTRUM_WINDOW = 1024 // FFT size, power of two
	SPECTRUM_RING   = 2048 // tap ring buffer length

	// Band edges in Hz.
	BAND_BASS_MAX   = 250.0
	BAND_TREBLE_MIN = 4000.0
)

// SpectralSnapshot is a momentary summary of output energy across frequency
// bands, normalized to [0,1]. Regenerated on every call to Snapshot; consumers
// must treat it as a momentary read and never mutate shared state through it.
type SpectralSnapshot struct {
	Bass    float64
	Mid     float64
	Treble  float64
	Overall float64
}

// SpectrumTap captures a mono mix of the live output into a ring buffer and
// computes band energies on demand. Pushes happen on the render path; Snapshot
// is called from the visualization cadence. One mutex guards the ring and the
// transform scratch, so any number of concurrent consumers is safe.
type SpectrumTap struct {
	sampleRate float64

	mu  sync.Mutex
	buf []float64
	pos int

	// scratch buffers reused across snapshots, guarded by mu
	window []float64
	re     []float64
	im     []float64
}

func NewSpectrumTap(sampleRate int) *SpectrumTap {
	t := &SpectrumTap{
		sampleRate: float64(sampleRate),
		buf:        make([]float64, SPECTRUM_RING),
		window:     make([]float64, SPECTRUM_WINDOW),
		re:         make([]float64, SPECTRUM_WINDOW),
		im:         make([]float64, SPECTRUM_WINDOW),
	}
	for i := range t.window {
		t.window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(SPECTRUM_WINDOW-1)))
	}
	return t
}

// pushBlock captures a block of mono samples in one lock acquisition.
func (t *SpectrumTap) pushBlock(samples []float64) {
	t.mu.Lock()
	for _, s := range samples {
		t.buf[t.pos] = s
		t.pos = (t.pos + 1) % len(t.buf)
	}
	t.mu.Unlock()
}

// Snapshot computes the current band energies from the most recent window of
// output. It mutates no synthesis state; concurrent snapshots serialize on the
// tap mutex, and the render path only contends for the length of one transform.
func (t *SpectrumTap) Snapshot() SpectralSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	start := (t.pos - SPECTRUM_WINDOW + len(t.buf)) % len(t.buf)
	for i := 0; i < SPECTRUM_WINDOW; i++ {
		t.re[i] = t.buf[(start+i)%len(t.buf)]
	}

	var sumSq float64
	for i := 0; i < SPECTRUM_WINDOW; i++ {
		sumSq += t.re[i] * t.re[i]
		t.re[i] *= t.window[i]
		t.im[i] = 0
	}
	rms := math.Sqrt(sumSq / SPECTRUM_WINDOW)

	fft(t.re, t.im)

	binHz := t.sampleRate / SPECTRUM_WINDOW
	var bass, mid, treble float64
	var nBass, nMid, nTreble int
	for i := 1; i < SPECTRUM_WINDOW/2; i++ {
		mag := math.Sqrt(t.re[i]*t.re[i] + t.im[i]*t.im[i])
		switch hz := float64(i) * binHz; {
		case hz < BAND_BASS_MAX:
			bass += mag
			nBass++
		case hz >= BAND_TREBLE_MIN:
			treble += mag
			nTreble++
		default:
			mid += mag
			nMid++
		}
	}
	if nBass > 0 {
		bass /= float64(nBass)
	}
	if nMid > 0 {
		mid /= float64(nMid)
	}
	if nTreble > 0 {
		treble /= float64(nTreble)
	}

	// Normalize bands relative to the loudest one, with a floor so silence
	// does not blow up to full scale.
	maxBand := 0.01
	for _, v := range []float64{bass, mid, treble} {
		if v > maxBand {
			maxBand = v
		}
	}

	return SpectralSnapshot{
		Bass:    clamp01(bass / maxBand),
		Mid:     clamp01(mid / maxBand),
		Treble:  clamp01(treble / maxBand),
		Overall: clamp01(rms * math.Sqrt2),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// fft is an in-place iterative radix-2 Cooley-Tukey transform. len(re) must
// equal len(im) and be a power of two.
func fft(re, im []float64) {
	n := len(re)

	// bit-reversal permutation
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j |= bit
		if i < j {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
	}

	for length := 2; length <= n; length <<= 1 {
		ang := -2 * math.Pi / float64(length)
		wRe, wIm := math.Cos(ang), math.Sin(ang)
		for i := 0; i < n; i += length {
			cRe, cIm := 1.0, 0.0
			for j := 0; j < length/2; j++ {
				uRe, uIm := re[i+j], im[i+j]
				vRe := re[i+j+length/2]*cRe - im[i+j+length/2]*cIm
				vIm := re[i+j+length/2]*cIm + im[i+j+length/2]*cRe
				re[i+j], im[i+j] = uRe+vRe, uIm+vIm
				re[i+j+length/2], im[i+j+length/2] = uRe-vRe, uIm-vIm
				cRe, cIm = cRe*wRe-cIm*wIm, cRe*wIm+cIm*wRe
			}
		}
	}
}
