// Command validate checks race map preset YAML files. It reports:
//   - YAML syntax errors and unknown keys
//   - Values rejected by the server's map validation
//   - Playability warnings: gap shifts too steep to fall through, duplicate
//     item kinds, and a name field that differs from the file name
//
// Usage: validate [config-dir] (defaults to ./configs)
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/gamerooms/game/engine/race"
)

// ValidationResult captures the outcome of validating a single file.
// Warnings never make a file invalid.
type ValidationResult struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// validateConfig loads a preset file the way the server does, on top of the
// default built-in, and checks it
func validateConfig(filePath string) ValidationResult {
	base := filepath.Base(filePath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	result := ValidationResult{File: base, Valid: true}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	cfg, _ := race.BuiltinPreset(race.DefaultPreset)
	cfg.Name = name
	cfg.Description = ""

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		result.fail("Invalid YAML: %v", err)
		return result
	}

	if err := race.ValidateMapConfig(cfg); err != nil {
		result.fail("%v", strings.TrimPrefix(err.Error(), "map validation: "))
		return result
	}

	checkPlayability(cfg, &result)
	if cfg.Name != name {
		result.warn("name %q differs from file name; the preset is selected as %q", cfg.Name, name)
	}

	m := race.GenerateMap(cfg)
	result.Info = append(result.Info,
		fmt.Sprintf("mode %s, %d lives, %d pipes, %d item boxes", cfg.Mode, cfg.Lives, len(m.Pipes), len(m.Items)),
		fmt.Sprintf("round trip at base speed: %.1fs", roundTripSeconds(cfg)),
	)
	return result
}

// checkPlayability adds warnings for courses that validate but play badly
func checkPlayability(cfg *race.MapConfig, result *ValidationResult) {
	// Worst case gap shift between neighbours against the fastest possible fall
	shift := race.WorldHeight - 2*cfg.GapMargin - cfg.GapHeight
	ticks := (cfg.PipeSpacing - cfg.PipeWidth) / cfg.ForwardSpeed
	if drop := cfg.MaxFallSpeed * ticks; shift > drop {
		result.warn("gap centres can shift %.0f between pipes but a player falls at most %.0f in between", shift, drop)
	}

	if cfg.Mode == race.ModeTime && float64(cfg.TimeLimit) < roundTripSeconds(cfg) {
		result.warn("time limit %ds is shorter than the %.0fs round trip, nobody can finish", cfg.TimeLimit, roundTripSeconds(cfg))
	}

	seen := make(map[race.ItemKind]bool)
	for _, kind := range cfg.ItemKinds {
		if seen[kind] {
			result.warn("item kind %q listed more than once", kind)
		}
		seen[kind] = true
	}
}

func roundTripSeconds(cfg *race.MapConfig) float64 {
	return 2 * cfg.Distance / cfg.ForwardSpeed / race.TickRate
}

// validateDir validates every preset file in dir in name order
func validateDir(dir string) ([]ValidationResult, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	results := make([]ValidationResult, 0, len(files))
	for _, file := range files {
		results = append(results, validateConfig(file))
	}
	return results, nil
}

// report prints results and returns whether all files are valid
func report(w io.Writer, results []ValidationResult) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
		}
		for _, err := range result.Errors {
			fmt.Fprintln(w, "  ❌ "+err)
		}
		for _, warning := range result.Warnings {
			fmt.Fprintln(w, "  ⚠️  "+warning)
		}
		for _, info := range result.Info {
			fmt.Fprintln(w, "  "+info)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	switch {
	case len(results) == 0:
		fmt.Fprintln(w, "No preset files found")
	case allValid:
		fmt.Fprintln(w, "✅ All presets are valid!")
	default:
		fmt.Fprintln(w, "❌ Some presets have errors")
	}
	return allValid
}

func main() {
	configDir := "configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	results, err := validateDir(configDir)
	if err != nil {
		fmt.Printf("Error finding preset files: %v\n", err)
		os.Exit(1)
	}
	if !report(os.Stdout, results) {
		os.Exit(1)
	}
}
