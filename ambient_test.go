package main

import (
	"math"
	"testing"
)

func ambientRMS(a *AmbientLayer, n int) float64 {
	var sum float64
	for i := 0; i < n; i++ {
		s := a.nextSample()
		sum += s * s
	}
	return math.Sqrt(sum / float64(n))
}

func TestAmbientLayer_KindsProduceBoundedNoise(t *testing.T) {
	for _, kind := range []string{AMBIENT_WHITE, AMBIENT_PINK, AMBIENT_BROWN} {
		a := NewAmbientLayer(1)
		a.Set(kind, 1.0)
		var peak float64
		for i := 0; i < SAMPLE_RATE; i++ {
			s := a.nextSample()
			if v := math.Abs(s); v > peak {
				peak = v
			}
		}
		if peak == 0 {
			t.Errorf("%s noise is silent", kind)
		}
		if peak > AMBIENT_HEADROOM+1e-9 {
			t.Errorf("%s noise peak %v exceeds headroom %v", kind, peak, AMBIENT_HEADROOM)
		}
	}
}

func TestAmbientLayer_OffIsSilent(t *testing.T) {
	a := NewAmbientLayer(1)
	a.Set(AMBIENT_OFF, 1.0)
	for i := 0; i < 1000; i++ {
		if s := a.nextSample(); s != 0 {
			t.Fatalf("off layer produced %v", s)
		}
	}
}

func TestAmbientLayer_UnknownKindSilenced(t *testing.T) {
	a := NewAmbientLayer(1)
	a.Set("ocean", 1.0)
	if a.Kind() != AMBIENT_OFF {
		t.Errorf("unknown kind mapped to %q, want off", a.Kind())
	}
	if s := a.nextSample(); s != 0 {
		t.Errorf("unknown kind produced %v", s)
	}
}

func TestAmbientLayer_VolumeScalesOutput(t *testing.T) {
	loud := NewAmbientLayer(7)
	loud.Set(AMBIENT_WHITE, 1.0)
	quiet := NewAmbientLayer(7)
	quiet.Set(AMBIENT_WHITE, 0.25)

	// The white LFSR is deterministic, so the ratio is exact.
	lr := ambientRMS(loud, 4096)
	qr := ambientRMS(quiet, 4096)
	if math.Abs(lr/qr-4.0) > 1e-9 {
		t.Errorf("RMS ratio = %v, want 4.0", lr/qr)
	}
}

func TestAmbientLayer_VolumeClamped(t *testing.T) {
	a := NewAmbientLayer(1)
	a.Set(AMBIENT_PINK, 3.5)
	if a.Volume() != 1 {
		t.Errorf("volume = %v, want clamped to 1", a.Volume())
	}
	a.Set(AMBIENT_PINK, -2)
	if a.Volume() != 0 {
		t.Errorf("volume = %v, want clamped to 0", a.Volume())
	}
}

func TestAmbientLayer_DeterministicForSeed(t *testing.T) {
	a := NewAmbientLayer(42)
	b := NewAmbientLayer(42)
	a.Set(AMBIENT_PINK, 0.8)
	b.Set(AMBIENT_PINK, 0.8)
	for i := 0; i < 2048; i++ {
		if sa, sb := a.nextSample(), b.nextSample(); sa != sb {
			t.Fatalf("sample %d diverges: %v vs %v", i, sa, sb)
		}
	}
}
