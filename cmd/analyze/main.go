// Command analyze prints statistics about the course each race preset
// generates: pipe count, gap range, the steepest gap shift, item mix and the
// round trip time at base speed.
//
// Usage: analyze [config-dir] (defaults to ./configs)
package main

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/wricardo/mcp-training/gamerooms/game/config"
	"github.com/wricardo/mcp-training/gamerooms/game/engine/race"
)

// Analysis summarises one generated course
type Analysis struct {
	Preset    string
	Mode      race.Mode
	Distance  float64
	Pipes     int
	Items     int
	GapMin    float64
	GapMax    float64
	MaxShift  float64
	ItemMix   map[race.ItemKind]int
	RoundTrip float64
}

func analyze(id string, cfg *race.MapConfig) Analysis {
	m := race.GenerateMap(cfg)
	a := Analysis{
		Preset:    id,
		Mode:      cfg.Mode,
		Distance:  cfg.Distance,
		Pipes:     len(m.Pipes),
		Items:     len(m.Items),
		ItemMix:   make(map[race.ItemKind]int),
		RoundTrip: 2 * cfg.Distance / cfg.ForwardSpeed / race.TickRate,
	}

	for i, p := range m.Pipes {
		if i == 0 {
			a.GapMin, a.GapMax = p.GapY, p.GapY
		}
		a.GapMin = math.Min(a.GapMin, p.GapY)
		a.GapMax = math.Max(a.GapMax, p.GapY)
		if i > 0 {
			a.MaxShift = math.Max(a.MaxShift, math.Abs(p.GapY-m.Pipes[i-1].GapY))
		}
	}
	for _, item := range m.Items {
		a.ItemMix[item.Kind]++
	}
	return a
}

func printAnalysis(w io.Writer, a Analysis) {
	fmt.Fprintf(w, "\n=== Analyzing %s ===\n", a.Preset)
	fmt.Fprintf(w, "Mode: %s\n", a.Mode)
	if a.Mode == race.ModeEndless {
		fmt.Fprintf(w, "Course: endless (first %d pipes shown)\n", a.Pipes)
	} else {
		fmt.Fprintf(w, "Course: %.0f out and back, %.1fs at base speed\n", a.Distance, a.RoundTrip)
	}
	fmt.Fprintf(w, "Pipes: %d\n", a.Pipes)
	if a.Pipes > 0 {
		fmt.Fprintf(w, "Gap centres: %.0f to %.0f, steepest shift %.0f\n", a.GapMin, a.GapMax, a.MaxShift)
	}

	fmt.Fprintf(w, "Item boxes: %d\n", a.Items)
	for _, kind := range race.AllItemKinds() {
		if n := a.ItemMix[kind]; n > 0 {
			fmt.Fprintf(w, "  %s: %d\n", kind, n)
		}
	}
}

func run(w io.Writer, configDir string) error {
	presets, err := config.NewManager(configDir)
	if err != nil {
		return err
	}
	infos, err := presets.List()
	if err != nil {
		return err
	}

	for _, info := range infos {
		cfg, err := presets.Preset(info.ID)
		if err != nil {
			fmt.Fprintf(w, "\n=== %s: %v ===\n", info.ID, err)
			continue
		}
		printAnalysis(w, analyze(info.ID, cfg))
	}
	return nil
}

func main() {
	configDir := "configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	if err := run(os.Stdout, configDir); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
