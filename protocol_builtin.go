// protocol_builtin.go - Compiled-in protocol catalog

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/ResonanceEngine
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"sort"
)

// builtinProtocols stands in for the external catalog collaborator: a few
// ready-made sessions selectable by name from the command line.
var builtinProtocols = map[string]*Protocol{
	"relaxation": {
		Name:         "Deep Relaxation",
		SafetyRating: "standard",
		Phases: []Phase{
			{
				Name: "settle", Description: "ease in at a calm alpha rate",
				DurationSec: 180,
				StartBeatHz: 10, EndBeatHz: 10,
				StartIntensity: 0.35, EndIntensity: 0.55,
				Carrier: "warm",
				Ambient: &AmbientSpec{Kind: AMBIENT_PINK, Volume: 0.3},
			},
			{
				Name: "descend", Description: "sweep down into theta",
				DurationSec: 420,
				StartBeatHz: 10, EndBeatHz: 5.5,
				StartIntensity: 0.55, EndIntensity: 0.55,
				Carrier: "warm",
				Ambient: &AmbientSpec{Kind: AMBIENT_PINK, Volume: 0.4},
				Spatial: &SpatialSpec{OrbitPeriodSec: 45},
			},
			{
				Name: "rest", Description: "hold theta and fade down",
				DurationSec: 300,
				StartBeatHz: 5.5, EndBeatHz: 5.5,
				StartIntensity: 0.55, EndIntensity: 0.3,
				Carrier: "deep",
				Ambient: &AmbientSpec{Kind: AMBIENT_BROWN, Volume: 0.5},
			},
		},
	},
	"focus": {
		Name:         "Focused Attention",
		SafetyRating: "standard",
		Phases: []Phase{
			{
				Name: "ramp", Description: "climb from alpha into low beta",
				DurationSec: 240,
				StartBeatHz: 10, EndBeatHz: 16,
				StartIntensity: 0.4, EndIntensity: 0.6,
				Carrier: "bright",
			},
			{
				Name: "hold", Description: "sustain beta with isochronic pulse",
				DurationSec: 900,
				StartBeatHz: 16, EndBeatHz: 16,
				StartIntensity: 0.6, EndIntensity: 0.6,
				Carrier: "bright",
				Pulse:   &PulseSpec{Enabled: true, Depth: 0.6},
			},
		},
	},
	"sleep": {
		Name:         "Sleep Onset",
		SafetyRating: "gentle",
		Phases: []Phase{
			{
				Name: "unwind",
				DurationSec: 300,
				StartBeatHz: 8, EndBeatHz: 4,
				StartIntensity: 0.4, EndIntensity: 0.4,
				Carrier: "deep",
				Ambient: &AmbientSpec{Kind: AMBIENT_BROWN, Volume: 0.45},
			},
			{
				Name: "drift",
				DurationSec: 600,
				StartBeatHz: 4, EndBeatHz: 2,
				StartIntensity: 0.4, EndIntensity: 0.15,
				Carrier: "deep",
				Ambient: &AmbientSpec{Kind: AMBIENT_BROWN, Volume: 0.55},
			},
		},
	},
}

// BuiltinProtocol returns a compiled-in protocol by catalog name.
func BuiltinProtocol(name string) (*Protocol, error) {
	p, ok := builtinProtocols[name]
	if !ok {
		return nil, fmt.Errorf("unknown builtin protocol %q (have: %v)", name, BuiltinProtocolNames())
	}
	return p, nil
}

// BuiltinProtocolNames lists the catalog in stable order.
func BuiltinProtocolNames() []string {
	names := make([]string, 0, len(builtinProtocols))
	for name := range builtinProtocols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
