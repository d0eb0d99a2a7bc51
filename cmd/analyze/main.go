// Command analyze plays seeded random games on every variant in the configs
// directory and prints quick statistics: mean and best score, how often the
// win tile was reached and how the final max tiles are distributed. It is a
// rough difficulty gauge for new variant files.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"slices"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/game2048/game/config"
	"github.com/wricardo/game2048/game/engine"
	"github.com/wricardo/game2048/internal/logging"
)

// GameResult is the outcome of one simulated game.
type GameResult struct {
	Score      int                 `json:"score"`
	Moves      int                 `json:"moves"`
	MaxTile    engine.Tile         `json:"max_tile"`
	Won        bool                `json:"won"`
	FinalState engine.SessionState `json:"final_state"`
}

// VariantStats summarizes the games played on one variant.
type VariantStats struct {
	ConfigID  string              `json:"config_id"`
	Name      string              `json:"name"`
	Dimension int                 `json:"dimension"`
	BigMode   bool                `json:"big_mode"`
	Games     int                 `json:"games"`
	MeanScore float64             `json:"mean_score"`
	MaxScore  int                 `json:"max_score"`
	MeanMoves float64             `json:"mean_moves"`
	WinRate   float64             `json:"win_rate"`
	MaxTiles  map[engine.Tile]int `json:"max_tiles"`
}

// SimOptions control a simulation run.
type SimOptions struct {
	Games     int
	Seed      uint64
	MaxMoves  int
	StopAtWin bool
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Simulate random games on each variant and report statistics",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing variant files", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringSliceFlag{Name: "variant", Usage: "Only analyze these config ids (repeatable)"},
			&cli.IntFlag{Name: "games", Value: 100, Usage: "Games per variant"},
			&cli.IntFlag{Name: "max-moves", Value: 20000, Usage: "Move cap per game"},
			&cli.Uint64Flag{Name: "seed", Value: 1, Usage: "Base random seed"},
			&cli.BoolFlag{Name: "stop-at-win", Usage: "End a game when the win tile appears instead of continuing"},
			&cli.BoolFlag{Name: "json", Usage: "Print JSON instead of text"},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	logger := logging.New(logging.Options{Debug: cmd.Bool("debug"), Output: cmd.ErrWriter})

	manager, err := config.NewManager(cmd.String("config-dir"), config.WithLogger(logger))
	if err != nil {
		return err
	}

	opts := SimOptions{
		Games:     int(cmd.Int("games")),
		Seed:      cmd.Uint64("seed"),
		MaxMoves:  int(cmd.Int("max-moves")),
		StopAtWin: cmd.Bool("stop-at-win"),
	}
	if opts.Games <= 0 {
		return fmt.Errorf("games must be positive, got %d", opts.Games)
	}

	infos, err := manager.ListConfigs()
	if err != nil {
		return err
	}

	only := cmd.StringSlice("variant")
	var results []VariantStats
	for _, info := range infos {
		if len(only) > 0 && !slices.Contains(only, info.ConfigID) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		cfg, err := manager.LoadConfig(info.ConfigID)
		if err != nil {
			logger.Warn("skipping variant", "config", info.ConfigID, "err", err)
			continue
		}

		logger.Debug("simulating", "config", info.ConfigID, "games", opts.Games)
		stats, err := AnalyzeVariant(cfg, opts)
		if err != nil {
			return fmt.Errorf("variant %s: %w", info.ConfigID, err)
		}
		stats.ConfigID = info.ConfigID
		results = append(results, stats)
	}

	if len(results) == 0 {
		return fmt.Errorf("no variants analyzed in %s", cmd.String("config-dir"))
	}

	if cmd.Bool("json") {
		enc := json.NewEncoder(cmd.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	for _, stats := range results {
		printStats(cmd.Writer, stats)
	}
	return nil
}

// AnalyzeVariant plays opts.Games games on cfg. Game i uses seed opts.Seed+i
// so runs are reproducible.
func AnalyzeVariant(cfg *engine.GameConfig, opts SimOptions) (VariantStats, error) {
	stats := VariantStats{
		Name:      cfg.Name,
		Dimension: cfg.Dimension,
		BigMode:   cfg.BigMode,
		MaxTiles:  make(map[engine.Tile]int),
	}

	totalScore, totalMoves, wins := 0, 0, 0
	for i := 0; i < opts.Games; i++ {
		result, err := SimulateGame(cfg, opts.Seed+uint64(i), opts.MaxMoves, opts.StopAtWin)
		if err != nil {
			return stats, err
		}
		stats.Games++
		totalScore += result.Score
		totalMoves += result.Moves
		if result.Score > stats.MaxScore {
			stats.MaxScore = result.Score
		}
		if result.Won {
			wins++
		}
		stats.MaxTiles[result.MaxTile]++
	}

	if stats.Games > 0 {
		stats.MeanScore = float64(totalScore) / float64(stats.Games)
		stats.MeanMoves = float64(totalMoves) / float64(stats.Games)
		stats.WinRate = float64(wins) / float64(stats.Games)
	}
	return stats, nil
}

// SimulateGame plays one game choosing uniformly among the moves that change
// the board. Each move is a full gesture: move then release.
func SimulateGame(cfg *engine.GameConfig, seed uint64, maxMoves int, stopAtWin bool) (GameResult, error) {
	eng, err := engine.NewEngineWithSource(cfg, engine.NewSeededSource(seed))
	if err != nil {
		return GameResult{}, err
	}
	picker := rand.New(rand.NewPCG(seed, ^seed))

	var result GameResult
	for result.Moves < maxMoves {
		state := eng.GetSessionState()
		if state == engine.StateWonPendingChoice {
			if err := eng.ContinueAfterWin(!stopAtWin); err != nil {
				return result, err
			}
			continue
		}
		if state.IsTerminal() {
			break
		}

		possible := eng.GetPossibleMoves()
		if len(possible) == 0 {
			break
		}

		if _, err := eng.Move(possible[picker.IntN(len(possible))]); err != nil {
			return result, err
		}
		eng.OnInputReleased()
		result.Moves++
	}

	final := eng.GetState()
	result.Score = final.Score
	result.MaxTile = final.MaxTile
	result.Won = final.Won
	result.FinalState = final.State
	return result, nil
}

func printStats(w io.Writer, stats VariantStats) {
	mode := ""
	if stats.BigMode {
		mode = ", big mode"
	}
	fmt.Fprintf(w, "\n=== %s (%s, %dx%d%s) ===\n", stats.Name, stats.ConfigID, stats.Dimension, stats.Dimension, mode)
	fmt.Fprintf(w, "Games: %d\n", stats.Games)
	fmt.Fprintf(w, "Mean score: %.1f (best %d)\n", stats.MeanScore, stats.MaxScore)
	fmt.Fprintf(w, "Mean moves: %.1f\n", stats.MeanMoves)
	fmt.Fprintf(w, "Win rate: %.1f%%\n", stats.WinRate*100)

	tiles := make([]engine.Tile, 0, len(stats.MaxTiles))
	for tile := range stats.MaxTiles {
		tiles = append(tiles, tile)
	}
	sort.Slice(tiles, func(i, j int) bool { return tiles[i] > tiles[j] })

	fmt.Fprintf(w, "Max tile distribution:\n")
	for _, tile := range tiles {
		fmt.Fprintf(w, "  %6d: %d\n", tile, stats.MaxTiles[tile])
	}
}
