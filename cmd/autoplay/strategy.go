package main

import (
	"github.com/wricardo/game2048/game/engine"
)

// preference breaks ties; it keeps big tiles drifting to the bottom-left.
var preference = []engine.Direction{engine.Down, engine.Left, engine.Right, engine.Up}

// Weights of the board heuristic.
const (
	emptyWeight  = 12.0
	cornerWeight = 1.0
	edgeWeight   = 0.25
)

// GreedyStrategy looks one move ahead and picks the direction whose
// resulting board scores best. Spawns are ignored.
type GreedyStrategy struct {
	lookahead *engine.GameEngine
}

func NewGreedyStrategy() *GreedyStrategy {
	return &GreedyStrategy{lookahead: engine.NewEngineWithDefaults()}
}

// NextMove returns the best direction for state, or "" when nothing moves.
func (s *GreedyStrategy) NextMove(state *engine.GameState) engine.Direction {
	var best engine.Direction
	bestScore := -1.0

	for _, dir := range preference {
		score, ok := s.evaluate(state, dir)
		if !ok {
			continue
		}
		if score > bestScore {
			best, bestScore = dir, score
		}
	}
	return best
}

// evaluate plays dir on a scratch copy of state.
func (s *GreedyStrategy) evaluate(state *engine.GameState, dir engine.Direction) (float64, bool) {
	scratch := &engine.GameState{
		Dimension: state.Dimension,
		Grid:      engine.CopyGrid(state.Grid),
		State:     engine.StateActive,
	}
	if err := s.lookahead.SetState(scratch); err != nil {
		return 0, false
	}

	result, err := s.lookahead.Move(dir)
	if err != nil || !result.Moved {
		return 0, false
	}
	return float64(result.MergedScoreDelta) + boardScore(s.lookahead.GetGrid()), true
}

// boardScore rewards free cells, a max tile in a corner and big tiles on edges.
func boardScore(grid [][]engine.Tile) float64 {
	n := len(grid)
	score := emptyWeight * float64(len(engine.FreeCells(grid)))

	top := engine.MaxTile(grid)
	for _, p := range [][2]int{{0, 0}, {0, n - 1}, {n - 1, 0}, {n - 1, n - 1}} {
		if grid[p[0]][p[1]] == top {
			score += cornerWeight * float64(top)
			break
		}
	}

	for i := 0; i < n; i++ {
		score += edgeWeight * float64(grid[n-1][i]+grid[i][0])
	}
	return score
}
