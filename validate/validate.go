// Command validate checks the game variant JSON files in a directory
// (default ../configs). For every file it checks:
//   - JSON structure, with unknown keys rejected so typos do not go unnoticed
//   - dimension, win tile, initial tiles and spawn policy after defaults
//   - which messages fall back to the engine defaults
//   - that the engine can start a game with the variant
//
// Variant names must also be unique across the directory. The exit status is
// non-zero when any file is invalid.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/game2048/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// Info holds notes for valid files; Errors lists what made a file invalid.
type ValidationResult struct {
	File   string
	Name   string
	Valid  bool
	Errors []string
	Info   []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) note(format string, args ...interface{}) {
	r.Info = append(r.Info, fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single variant file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.GameConfig
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}
	result.Name = config.Name

	raw := config
	engine.ApplyDefaults(&config)

	if err := engine.ValidateGameConfig(&config); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "config validation: "))
		return result
	}

	for _, m := range []struct {
		key   string
		value string
	}{
		{"welcome", raw.Messages.Welcome},
		{"won", raw.Messages.Won},
		{"game_over", raw.Messages.GameOver},
		{"board_full", raw.Messages.BoardFull},
		{"ended", raw.Messages.Ended},
		{"continued", raw.Messages.Continued},
	} {
		if m.value == "" {
			result.note("messages.%s not set, using default", m.key)
		}
	}
	if raw.SpawnPolicy == "" {
		result.note("spawn_policy not set, using %s", config.SpawnPolicy)
	}
	if config.BigMode != engine.DefaultBigMode(config.Dimension) {
		result.note("big_mode=%v differs from the %dx%d default", config.BigMode, config.Dimension, config.Dimension)
	}
	if cells := config.Dimension * config.Dimension; config.InitialTiles > cells/2 {
		result.note("initial_tiles %d fills more than half of the board", config.InitialTiles)
	}

	if err := smokeTest(&config); err != nil {
		result.fail("Engine rejected variant: %v", err)
		return result
	}

	mode := "standard"
	if config.BigMode {
		mode = "big mode"
	}
	result.note("✓ Name: %s", config.Name)
	result.note("✓ Board: %dx%d (%s)", config.Dimension, config.Dimension, mode)
	result.note("✓ Win tile: %d", config.WinTile)
	result.note("✓ Spawn: %s, %d initial tiles", config.SpawnPolicy, config.InitialTiles)

	return result
}

// smokeTest starts a seeded game and plays one move in each direction.
func smokeTest(config *engine.GameConfig) error {
	eng, err := engine.NewEngineWithSource(config, engine.NewSeededSource(1))
	if err != nil {
		return err
	}

	if got := engine.CountTiles(eng.GetGrid()); got != config.InitialTiles {
		return fmt.Errorf("started with %d tiles, want %d", got, config.InitialTiles)
	}

	for _, dir := range engine.Directions {
		if eng.GetSessionState().IsTerminal() {
			break
		}
		if _, err := eng.Move(dir); err != nil {
			return err
		}
		eng.OnInputReleased()
	}
	return nil
}

// validateDir validates every *.json file in dir and flags duplicate names.
func validateDir(dir string) ([]ValidationResult, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}

	results := make([]ValidationResult, 0, len(files))
	seen := make(map[string]string)
	for _, file := range files {
		result := validateConfig(file)
		if result.Name != "" {
			key := strings.ToLower(result.Name)
			if other, ok := seen[key]; ok {
				result.fail("Name %q already used by %s", result.Name, other)
			} else {
				seen[key] = result.File
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// printReport writes a concise report and reports whether every file is valid.
func printReport(w io.Writer, results []ValidationResult) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All configurations are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some configurations have errors")
	}
	return allValid
}

var errInvalid = errors.New("some configurations are invalid")

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate game variant files",
		ArgsUsage: "[config-dir]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := "../configs"
			if cmd.Args().Present() {
				dir = cmd.Args().First()
			}

			results, err := validateDir(dir)
			if err != nil {
				return fmt.Errorf("error finding config files: %w", err)
			}
			if len(results) == 0 {
				return fmt.Errorf("no config files found in %s", dir)
			}
			if !printReport(cmd.Writer, results) {
				return errInvalid
			}
			return nil
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
