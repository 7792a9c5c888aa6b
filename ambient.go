// ambient.go - Colored-noise ambient layer mixed under the beat signal

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/ResonanceEngine
License: GPLv3 or later
*/

package main

import "math/rand"

const (
	AMBIENT_OFF   = ""
	AMBIENT_WHITE = "white"
	AMBIENT_PINK  = "pink"
	AMBIENT_BROWN = "brown"
)

const (
	// 23-bit maximal-length LFSR, taps 23 and 18.
	AMBIENT_LFSR_SEED = 0x7FFFFF
	AMBIENT_LFSR_MASK = 0x7FFFFF

	// Voss-McCartney pink noise uses five white generators keyed by bit flips.
	PINK_ROWS    = 5
	PINK_KEY_MAX = 0x1F

	// One-pole integrator coefficient for brown noise.
	BROWN_ALPHA = 0.02

	// Headroom scaling so the noise bed sits under the beat signal even at
	// full ambient volume.
	AMBIENT_HEADROOM = 0.35
)

// AmbientLayer generates mono colored noise. Kind and volume are set by the
// synthesizer under its lock; generation happens on the render path.
type AmbientLayer struct {
	kind   string
	volume float64

	// white noise LFSR state
	sr uint32

	// pink noise state (Voss-McCartney)
	pinkKey   uint32
	pinkRows  [PINK_ROWS]float64
	pinkTotal float64

	// brown noise state
	brownLast float64

	rand *rand.Rand
}

func NewAmbientLayer(seed int64) *AmbientLayer {
	return &AmbientLayer{
		sr:   AMBIENT_LFSR_SEED,
		rand: rand.New(rand.NewSource(seed)),
	}
}

// Set selects the noise kind and volume. Unknown kinds silence the layer.
func (a *AmbientLayer) Set(kind string, volume float64) {
	switch kind {
	case AMBIENT_WHITE, AMBIENT_PINK, AMBIENT_BROWN, AMBIENT_OFF:
		a.kind = kind
	default:
		a.kind = AMBIENT_OFF
	}
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	a.volume = volume
}

func (a *AmbientLayer) Kind() string    { return a.kind }
func (a *AmbientLayer) Volume() float64 { return a.volume }

// nextSample produces one mono noise sample scaled by volume and headroom.
func (a *AmbientLayer) nextSample() float64 {
	if a.kind == AMBIENT_OFF || a.volume == 0 {
		return 0
	}

	var s float64
	switch a.kind {
	case AMBIENT_WHITE:
		newBit := ((a.sr >> 22) ^ (a.sr >> 17)) & 1
		a.sr = ((a.sr << 1) | newBit) & AMBIENT_LFSR_MASK
		s = float64(a.sr&1)*2 - 1

	case AMBIENT_PINK:
		lastKey := a.pinkKey
		a.pinkKey++
		if a.pinkKey > PINK_KEY_MAX {
			a.pinkKey = 0
		}
		diff := lastKey ^ a.pinkKey
		for i := 0; i < PINK_ROWS; i++ {
			if diff&(1<<uint(i)) != 0 {
				a.pinkTotal -= a.pinkRows[i]
				a.pinkRows[i] = a.rand.Float64()*2 - 1
				a.pinkTotal += a.pinkRows[i]
			}
		}
		s = a.pinkTotal / PINK_ROWS

	case AMBIENT_BROWN:
		white := a.rand.Float64()*2 - 1
		a.brownLast = BROWN_ALPHA*white + (1-BROWN_ALPHA)*a.brownLast
		// The integrator attenuates heavily; rescale toward unit range.
		s = a.brownLast * 6.0
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
	}

	return s * a.volume * AMBIENT_HEADROOM
}
