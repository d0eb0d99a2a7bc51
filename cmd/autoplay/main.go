// Command autoplay plays 2048 against a running server through the REST API
// using a greedy one-move lookahead. It is handy for filling the leaderboard,
// watching a board live over the websocket, or load testing a deployment.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/inconshreveable/log15/v3"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/game2048/game/engine"
	"github.com/wricardo/game2048/internal/logging"
)

// PlayOptions control one autoplay run.
type PlayOptions struct {
	Games     int
	MaxMoves  int
	StopAtWin bool
	Delay     time.Duration
}

// GameSummary is the outcome of one played game.
type GameSummary struct {
	Moves   int
	Score   int
	MaxTile engine.Tile
	Won     bool
	State   engine.SessionState
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "autoplay: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "autoplay",
		Usage: "Play 2048 on a game server with a greedy strategy",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Game server URL", Sources: cli.EnvVars("GAME_URL")},
			&cli.StringFlag{Name: "config", Usage: "Variant to play (classic, medium, big, ...)"},
			&cli.StringFlag{Name: "continue", Usage: "Resume playing an existing session by ID"},
			&cli.IntFlag{Name: "games", Value: 1, Usage: "Number of games to play"},
			&cli.IntFlag{Name: "max-moves", Value: 5000, Usage: "Maximum moves per game"},
			&cli.BoolFlag{Name: "stop-at-win", Usage: "End the game at the win tile instead of playing on"},
			&cli.DurationFlag{Name: "delay", Usage: "Delay between moves"},
			&cli.BoolFlag{Name: "v", Usage: "Verbose output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger := logging.New(logging.Options{Debug: cmd.Bool("v"), Output: cmd.ErrWriter})
			client := NewClient(cmd.String("url"))

			var err error
			if id := cmd.String("continue"); id != "" {
				_, err = client.Resume(ctx, id)
			} else {
				_, err = client.CreateSession(ctx, cmd.String("config"))
			}
			if err != nil {
				return err
			}
			logger.Info("playing", "url", cmd.String("url"), "session", client.SessionID())

			summaries, err := Play(ctx, client, NewGreedyStrategy(), PlayOptions{
				Games:     int(cmd.Int("games")),
				MaxMoves:  int(cmd.Int("max-moves")),
				StopAtWin: cmd.Bool("stop-at-win"),
				Delay:     cmd.Duration("delay"),
			}, logger)

			best := 0
			for _, s := range summaries {
				if s.Score > best {
					best = s.Score
				}
			}
			fmt.Fprintf(cmd.Writer, "Session %s: %d games, best score %d\n", client.SessionID(), len(summaries), best)
			return err
		},
	}
}

// Play runs opts.Games games on the client's session, starting a new round
// between games.
func Play(ctx context.Context, client *Client, strategy *GreedyStrategy, opts PlayOptions, logger log15.Logger) ([]GameSummary, error) {
	var summaries []GameSummary

	for game := 1; game <= opts.Games; game++ {
		state, err := client.GetState(ctx)
		if err != nil {
			return summaries, err
		}
		if game > 1 || state.State.IsTerminal() {
			if state, err = client.NewGame(ctx); err != nil {
				return summaries, err
			}
		}

		summary, err := playGame(ctx, client, strategy, state, opts, logger)
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, summary)

		logger.Info("game finished", "game", game, "moves", summary.Moves, "score", summary.Score,
			"max_tile", summary.MaxTile, "won", summary.Won, "state", summary.State)
	}
	return summaries, nil
}

func playGame(ctx context.Context, client *Client, strategy *GreedyStrategy, state *engine.GameState, opts PlayOptions, logger log15.Logger) (GameSummary, error) {
	moves := 0
	for moves < opts.MaxMoves && !state.State.IsTerminal() {
		if state.State == engine.StateWonPendingChoice {
			logger.Info("win tile reached", "score", state.Score, "moves", moves)
			result, err := client.Continue(ctx, !opts.StopAtWin)
			if err != nil {
				return GameSummary{}, err
			}
			state = result.GameState
			continue
		}

		dir := strategy.NextMove(state)
		if dir == "" {
			logger.Debug("no move changes the board")
			break
		}

		result, err := client.Move(ctx, dir)
		if err != nil {
			return GameSummary{}, err
		}
		state = result.GameState
		moves++

		if moves%100 == 0 {
			logger.Debug("progress", "moves", moves, "score", state.Score, "max_tile", state.MaxTile)
		}
		if opts.Delay > 0 {
			select {
			case <-ctx.Done():
				return GameSummary{}, ctx.Err()
			case <-time.After(opts.Delay):
			}
		}
	}

	return GameSummary{
		Moves:   moves,
		Score:   state.Score,
		MaxTile: state.MaxTile,
		Won:     state.Won,
		State:   state.State,
	}, nil
}
