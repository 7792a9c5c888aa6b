package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseProtocolLua(t *testing.T) {
	got, err := ParseProtocolLua(`
return {
  name = "Scripted Descent",
  safety_rating = "standard",
  phases = {
    { name = "ramp", duration = 60, beat = {12, 18},
      intensity = {0.3, 0.6}, carrier = "bright",
      pulse = { enabled = true, depth = 0.5 } },
    { name = "hold", duration = 120, beat = 18, intensity = 0.6,
      ambient = { kind = "pink", volume = 0.2 },
      spatial = { pan = 0.1, orbit_period = 30 } },
  },
}
`)
	if err != nil {
		t.Fatal(err)
	}

	want := &Protocol{
		Name:         "Scripted Descent",
		SafetyRating: "standard",
		Phases: []Phase{
			{
				Name: "ramp", DurationSec: 60,
				StartBeatHz: 12, EndBeatHz: 18,
				StartIntensity: 0.3, EndIntensity: 0.6,
				Carrier: "bright",
				Pulse:   &PulseSpec{Enabled: true, Depth: 0.5},
			},
			{
				Name: "hold", DurationSec: 120,
				StartBeatHz: 18, EndBeatHz: 18,
				StartIntensity: 0.6, EndIntensity: 0.6,
				Ambient: &AmbientSpec{Kind: "pink", Volume: 0.2},
				Spatial: &SpatialSpec{Pan: 0.1, OrbitPeriodSec: 30},
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parsed protocol mismatch (-want +got):\n%s", diff)
	}
}

// Scripts may build the phase list programmatically; only the returned table
// matters.
func TestParseProtocolLua_GeneratedPhases(t *testing.T) {
	got, err := ParseProtocolLua(`
local phases = {}
for i = 1, 5 do
  phases[i] = { name = "step" .. i, duration = 60, beat = 20 - i * 2, intensity = 0.5 }
end
return { name = "Staircase", phases = phases }
`)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Phases) != 5 {
		t.Fatalf("got %d phases, want 5", len(got.Phases))
	}
	if got.Phases[2].StartBeatHz != 14 || got.Phases[2].Name != "step3" {
		t.Errorf("phase 3 = %+v, want step3 at 14 Hz", got.Phases[2])
	}
}

func TestParseProtocolLua_Errors(t *testing.T) {
	cases := []struct {
		name   string
		script string
	}{
		{"returns a number", `return 42`},
		{"no phases", `return { name = "x" }`},
		{"empty phases", `return { name = "x", phases = {} }`},
		{"zero duration", `return { phases = { { name = "a", beat = 10 } } }`},
	}
	for _, tc := range cases {
		if _, err := ParseProtocolLua(tc.script); !errors.Is(err, ErrInvalidProtocol) {
			t.Errorf("%s: err = %v, want ErrInvalidProtocol", tc.name, err)
		}
	}

	if _, err := ParseProtocolLua(`this is not lua`); !errors.Is(err, ErrInvalidProtocol) {
		t.Errorf("syntax error: err = %v, want ErrInvalidProtocol", err)
	}
}

func TestLoadProtocolLua(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proto.lua")
	script := `return { name = "FromFile", phases = { { name = "a", duration = 10, beat = 8, intensity = 0.4 } } }`
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadProtocolLua(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "FromFile" || len(p.Phases) != 1 {
		t.Errorf("loaded = %+v", p)
	}

	if _, err := LoadProtocolLua(filepath.Join(t.TempDir(), "missing.lua")); err == nil {
		t.Error("missing file accepted")
	}
}
