package engine

import (
	crand "crypto/rand"
	"math/rand/v2"
)

// IntNSource is the part of *rand.Rand the engine needs. Tests inject
// scripted sources to make spawning deterministic.
type IntNSource interface {
	IntN(n int) int
}

// NewRandSource returns a ChaCha8 generator seeded from crypto/rand.
func NewRandSource() IntNSource {
	var seed [32]byte
	_, _ = crand.Read(seed[:])
	return rand.New(rand.NewChaCha8(seed))
}

// NewSeededSource returns a reproducible generator for simulations.
func NewSeededSource(seed uint64) IntNSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

var (
	standardValues = []Tile{2, 4}
	bigValues      = []Tile{2, 4, 8}
)

// SpawnValues returns the equally likely values a new tile can take.
func SpawnValues(bigMode bool) []Tile {
	if bigMode {
		return bigValues
	}
	return standardValues
}

// pickSpawnCell chooses the target of a spawn. The second return is false
// when the policy places nothing.
func pickSpawnCell(grid [][]Tile, policy SpawnPolicy, src IntNSource) (Position, bool) {
	n := len(grid)
	if n == 0 {
		return Position{}, false
	}

	if policy == SpawnSingleAttempt {
		idx := src.IntN(n * n)
		pos := Position{Row: idx / n, Col: idx % n}
		if grid[pos.Row][pos.Col] != 0 {
			return Position{}, false
		}
		return pos, true
	}

	free := FreeCells(grid)
	if len(free) == 0 {
		return Position{}, false
	}
	return free[src.IntN(len(free))], true
}

// pickSpawnValue draws a tile value for the given mode.
func pickSpawnValue(bigMode bool, src IntNSource) Tile {
	values := SpawnValues(bigMode)
	return values[src.IntN(len(values))]
}
