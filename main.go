// main.go - Main entry point for the Resonance Engine

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/ResonanceEngine
License: GPLv3 or later
*/

package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

func boilerPlate() {
	fmt.Println("\nResonance Engine - phase-scheduled neural entrainment synthesis")
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("https://github.com/IntuitionAmiga/ResonanceEngine")
	fmt.Println("License: GPLv3 or later")
}

func main() {
	boilerPlate()

	var (
		protocolArg string
		backendArg  string
		uiArg       string
		renderPath  string
		strict      bool
		listOnly    bool
		noGesture   bool
		stretch     float64
	)

	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&protocolArg, "protocol", "relaxation", "builtin protocol name, or a .yaml/.lua file")
	flagSet.StringVar(&backendArg, "backend", "oto", "audio backend: oto|null")
	flagSet.StringVar(&uiArg, "ui", "tui", "frontend: tui|plain|visual|none")
	flagSet.StringVar(&renderPath, "render", "", "render the protocol to a WAV file instead of playing it")
	flagSet.BoolVar(&strict, "strict", false, "treat out-of-range frequencies as hard errors instead of clamps")
	flagSet.BoolVar(&listOnly, "list", false, "list builtin protocols and exit")
	flagSet.BoolVar(&noGesture, "yes", false, "skip the start confirmation prompt (non-interactive hosts)")
	flagSet.Float64Var(&stretch, "stretch", 1.0, "scale all phase durations by this factor")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: ./resonance_engine [-protocol name|file] [-backend oto|null] [-ui tui|plain|visual|none] [-render out.wav]")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			flagSet.Usage()
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if listOnly {
		fmt.Println("\nBuiltin protocols:")
		for _, name := range BuiltinProtocolNames() {
			p, _ := BuiltinProtocol(name)
			fmt.Printf("  %-12s %s (%.0f min, %d phases, rating: %s)\n",
				name, p.Name, p.TotalDuration()/60, len(p.Phases), p.SafetyRating)
		}
		os.Exit(0)
	}

	protocol, err := loadProtocol(protocolArg)
	if err != nil {
		fmt.Printf("Error loading protocol: %v\n", err)
		os.Exit(1)
	}
	if stretch != 1.0 && stretch > 0 {
		protocol = stretchProtocol(protocol, stretch)
	}

	if renderPath != "" {
		fmt.Printf("Rendering %q to %s...\n", protocol.Name, renderPath)
		if err := RenderProtocolToWAV(protocol, renderPath, SAMPLE_RATE); err != nil {
			fmt.Printf("Render failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Done.")
		return
	}

	backend := AUDIO_BACKEND_OTO
	if backendArg == "null" {
		backend = AUDIO_BACKEND_NULL
	}

	frontendKind := FRONTEND_TUI
	switch uiArg {
	case "plain":
		frontendKind = FRONTEND_PLAIN
	case "visual":
		frontendKind = FRONTEND_VISUAL
	case "none":
		frontendKind = FRONTEND_NONE
	}

	frontend, err := NewFrontend(frontendKind)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	// Synthesis may only start in response to an explicit user action; the
	// engine enforces that with a gesture token, and this prompt is the host
	// adapter that produces one.
	gesture, err := confirmGesture(noGesture, protocol)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	engine := NewSessionEngine(SessionOptions{
		Backend: backend,
		Strict:  strict,
	})

	if err := engine.Start(protocol, gesture); err != nil {
		fmt.Printf("Error starting session: %v\n", err)
		os.Exit(1)
	}

	var group errgroup.Group
	group.Go(func() error {
		<-engine.Done()
		return nil
	})
	// ebiten (and display loops generally) must own the main goroutine, so
	// the frontend runs here and the session wait joins through the group.
	if err := frontend.Run(engine); err != nil {
		log.Printf("frontend: %v", err)
	}
	if err := group.Wait(); err != nil {
		log.Printf("session: %v", err)
	}

	// The frontend may have been quit while the session runs; end it cleanly.
	engine.Stop()

	s := engine.Summary()
	fmt.Printf("\nSession %s: %q ended in phase %d after %.1fs total\n",
		s.State, s.Protocol, s.PhaseIndex, s.TotalElapsedSec)
	for i, avg := range s.AvgIntensity {
		fmt.Printf("  phase %d average intensity: %.2f\n", i, avg)
	}
}

// loadProtocol resolves a builtin catalog name or loads a YAML/Lua file.
func loadProtocol(arg string) (*Protocol, error) {
	switch {
	case strings.HasSuffix(arg, ".yaml"), strings.HasSuffix(arg, ".yml"):
		return LoadProtocolYAML(arg)
	case strings.HasSuffix(arg, ".lua"):
		return LoadProtocolLua(arg)
	default:
		return BuiltinProtocol(arg)
	}
}

// stretchProtocol returns a copy with all durations scaled. Useful for
// auditioning a long protocol quickly.
func stretchProtocol(p *Protocol, factor float64) *Protocol {
	out := *p
	out.Phases = make([]Phase, len(p.Phases))
	copy(out.Phases, p.Phases)
	for i := range out.Phases {
		out.Phases[i].DurationSec *= factor
	}
	return &out
}

// confirmGesture waits for a single keypress in raw mode before granting the
// start token. Emergency exit stays on Ctrl-C via the parent terminal.
func confirmGesture(skip bool, p *Protocol) (UserGesture, error) {
	if skip {
		return GrantGesture(), nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return UserGesture{}, fmt.Errorf("%w: no interactive terminal; use -yes on non-interactive hosts", ErrGestureRequired)
	}

	fmt.Printf("\nAbout to start %q (%.0f min, safety rating: %s).\n",
		p.Name, p.TotalDuration()/60, p.SafetyRating)
	fmt.Print("Press any key to begin, or Ctrl-C to abort... ")

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return UserGesture{}, err
	}
	defer term.Restore(fd, oldState)

	var buf [1]byte
	if _, err := os.Stdin.Read(buf[:]); err != nil {
		return UserGesture{}, err
	}
	if buf[0] == 3 { // Ctrl-C
		term.Restore(fd, oldState)
		fmt.Println("aborted")
		os.Exit(0)
	}
	fmt.Println()
	return GrantGesture(), nil
}
