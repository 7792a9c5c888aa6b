// protocol_lua.go - Lua protocol scripting loader

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/ResonanceEngine
License: GPLv3 or later
*/

package main

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// LoadProtocolLua runs a Lua script that returns a protocol table:
//
//	return {
//	  name = "Focus",
//	  phases = {
//	    { name = "ramp", duration = 60, beat = {12, 18},
//	      intensity = {0.3, 0.6}, carrier = "bright" },
//	  },
//	}
//
// Scripts may compute the table however they like (loops, functions); only
// the returned value matters.
func LoadProtocolLua(path string) (*Protocol, error) {
	L := lua.NewState()
	defer L.Close()
	if err := L.DoFile(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProtocol, err)
	}
	return protocolFromLua(L)
}

// ParseProtocolLua evaluates a protocol script from a string.
func ParseProtocolLua(script string) (*Protocol, error) {
	L := lua.NewState()
	defer L.Close()
	if err := L.DoString(script); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProtocol, err)
	}
	return protocolFromLua(L)
}

func protocolFromLua(L *lua.LState) (*Protocol, error) {
	ret := L.Get(-1)
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: script must return a table, got %s", ErrInvalidProtocol, ret.Type())
	}

	p := &Protocol{
		Name:         luaString(tbl.RawGetString("name")),
		SafetyRating: luaString(tbl.RawGetString("safety_rating")),
	}

	phases, ok := tbl.RawGetString("phases").(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: missing phases table", ErrInvalidProtocol)
	}

	var convErr error
	phases.ForEach(func(_, v lua.LValue) {
		pt, ok := v.(*lua.LTable)
		if !ok {
			convErr = fmt.Errorf("%w: phase entries must be tables", ErrInvalidProtocol)
			return
		}
		p.Phases = append(p.Phases, phaseFromLua(pt))
	})
	if convErr != nil {
		return nil, convErr
	}

	normalizeProtocol(p)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func phaseFromLua(t *lua.LTable) Phase {
	ph := Phase{
		Name:        luaString(t.RawGetString("name")),
		Description: luaString(t.RawGetString("description")),
		DurationSec: luaFloat(t.RawGetString("duration")),
		Carrier:     luaString(t.RawGetString("carrier")),
		CarrierHz:   luaFloat(t.RawGetString("carrier_hz")),
	}

	ph.StartBeatHz, ph.EndBeatHz = luaPair(t.RawGetString("beat"))
	ph.StartIntensity, ph.EndIntensity = luaPair(t.RawGetString("intensity"))

	if amb, ok := t.RawGetString("ambient").(*lua.LTable); ok {
		ph.Ambient = &AmbientSpec{
			Kind:   luaString(amb.RawGetString("kind")),
			Volume: luaFloat(amb.RawGetString("volume")),
		}
	}
	if pulse, ok := t.RawGetString("pulse").(*lua.LTable); ok {
		ph.Pulse = &PulseSpec{
			Enabled: lua.LVAsBool(pulse.RawGetString("enabled")),
			Depth:   luaFloat(pulse.RawGetString("depth")),
		}
	}
	if sp, ok := t.RawGetString("spatial").(*lua.LTable); ok {
		ph.Spatial = &SpatialSpec{
			Pan:            luaFloat(sp.RawGetString("pan")),
			OrbitPeriodSec: luaFloat(sp.RawGetString("orbit_period")),
		}
	}
	return ph
}

// luaPair reads either a scalar (constant envelope) or a {start, end} table.
func luaPair(v lua.LValue) (float64, float64) {
	switch t := v.(type) {
	case lua.LNumber:
		return float64(t), float64(t)
	case *lua.LTable:
		start := luaFloat(t.RawGetInt(1))
		end := luaFloat(t.RawGetInt(2))
		if t.Len() < 2 {
			end = start
		}
		return start, end
	default:
		return 0, 0
	}
}

func luaFloat(v lua.LValue) float64 {
	if n, ok := v.(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

func luaString(v lua.LValue) string {
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}
