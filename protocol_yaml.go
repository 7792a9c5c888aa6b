// protocol_yaml.go - YAML protocol file loader

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/ResonanceEngine
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseProtocolYAML decodes and validates a protocol from YAML. Phases with
// only a start value get end = start (constant envelope), so files only spell
// out what actually changes.
func ParseProtocolYAML(data []byte) (*Protocol, error) {
	var p Protocol
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProtocol, err)
	}
	normalizeProtocol(&p)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadProtocolYAML reads a protocol from a YAML file.
func LoadProtocolYAML(path string) (*Protocol, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseProtocolYAML(data)
}

// normalizeProtocol fills the constant-envelope defaults: a zero end
// frequency or intensity inherits its start value.
func normalizeProtocol(p *Protocol) {
	for i := range p.Phases {
		ph := &p.Phases[i]
		if ph.EndBeatHz == 0 {
			ph.EndBeatHz = ph.StartBeatHz
		}
		if ph.EndIntensity == 0 {
			ph.EndIntensity = ph.StartIntensity
		}
	}
}
