package engine

// NewGrid allocates an empty dimension x dimension grid.
func NewGrid(dimension int) [][]Tile {
	grid := make([][]Tile, dimension)
	for i := range grid {
		grid[i] = make([]Tile, dimension)
	}
	return grid
}

// CopyGrid returns a deep copy of grid.
func CopyGrid(grid [][]Tile) [][]Tile {
	out := make([][]Tile, len(grid))
	for i, row := range grid {
		out[i] = append([]Tile(nil), row...)
	}
	return out
}

// IsValidDimension reports whether a game can be started on a board of this size.
func IsValidDimension(dimension int) bool {
	for _, d := range ValidDimensions {
		if d == dimension {
			return true
		}
	}
	return false
}

// DefaultBigMode returns the spawn mode preset for a board size:
// only the 8x8 board spawns 8s by default.
func DefaultBigMode(dimension int) bool {
	return dimension >= 8
}

// IsPowerOfTwo reports whether v is a tile value a cell may hold (2, 4, 8, ...).
func IsPowerOfTwo(v Tile) bool {
	return v >= 2 && v&(v-1) == 0
}

// FreeCells returns the empty cells in row-major order.
func FreeCells(grid [][]Tile) []Position {
	var free []Position
	for r, row := range grid {
		for c, v := range row {
			if v == 0 {
				free = append(free, Position{Row: r, Col: c})
			}
		}
	}
	return free
}

// CountTiles counts the occupied cells.
func CountTiles(grid [][]Tile) int {
	count := 0
	for _, row := range grid {
		for _, v := range row {
			if v != 0 {
				count++
			}
		}
	}
	return count
}

// MaxTile returns the largest tile on the grid, or 0 for an empty grid.
func MaxTile(grid [][]Tile) Tile {
	var max Tile
	for _, row := range grid {
		for _, v := range row {
			if v > max {
				max = v
			}
		}
	}
	return max
}

// IsFull reports whether every cell holds a tile.
func IsFull(grid [][]Tile) bool {
	for _, row := range grid {
		for _, v := range row {
			if v == 0 {
				return false
			}
		}
	}
	return true
}

// HasMergeablePair reports whether two orthogonally adjacent cells hold the same tile.
func HasMergeablePair(grid [][]Tile) bool {
	n := len(grid)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			v := grid[r][c]
			if v == 0 {
				continue
			}
			if c+1 < n && grid[r][c+1] == v {
				return true
			}
			if r+1 < n && grid[r+1][c] == v {
				return true
			}
		}
	}
	return false
}

// IsDeadlocked reports a full board on which no direction can slide or merge.
func IsDeadlocked(grid [][]Tile) bool {
	return IsFull(grid) && !HasMergeablePair(grid)
}
