package engine

import (
	"fmt"
	"strings"
)

// ParseDirection converts user input into a Direction.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Up, Down, Left, Right:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// Offset returns the unit row/column step of the direction.
func (d Direction) Offset() (dRow, dCol int) {
	switch d {
	case Up:
		return -1, 0
	case Down:
		return 1, 0
	case Left:
		return 0, -1
	case Right:
		return 0, 1
	}
	return 0, 0
}

// linePositions lists, for every line along dir, the cells ordered from the
// leading edge (where tiles come to rest) backwards.
func linePositions(n int, dir Direction) [][]Position {
	lines := make([][]Position, n)
	for i := 0; i < n; i++ {
		line := make([]Position, n)
		for j := 0; j < n; j++ {
			switch dir {
			case Left:
				line[j] = Position{Row: i, Col: j}
			case Right:
				line[j] = Position{Row: i, Col: n - 1 - j}
			case Up:
				line[j] = Position{Row: j, Col: i}
			case Down:
				line[j] = Position{Row: n - 1 - j, Col: i}
			}
		}
		lines[i] = line
	}
	return lines
}

type lineTile struct {
	value  Tile
	origin Position
}

// slideResult is the outcome of resolving a whole board in one direction.
type slideResult struct {
	grid       [][]Tile
	moved      bool
	scoreDelta int
	merges     int
	events     []Event
}

// slide resolves every line of grid along dir without touching grid.
// Tiles pack against the leading edge; adjacent equal tiles merge once,
// nearest the edge first, and a merged tile never merges again in the same move.
func slide(grid [][]Tile, dir Direction) slideResult {
	n := len(grid)
	res := slideResult{grid: NewGrid(n)}

	for _, line := range linePositions(n, dir) {
		tiles := make([]lineTile, 0, n)
		for _, pos := range line {
			if v := grid[pos.Row][pos.Col]; v != 0 {
				tiles = append(tiles, lineTile{value: v, origin: pos})
			}
		}

		slot := 0
		for i := 0; i < len(tiles); i++ {
			dest := line[slot]
			lead := tiles[i]

			if i+1 < len(tiles) && tiles[i+1].value == lead.value {
				consumed := tiles[i+1]
				merged := lead.value * 2
				res.grid[dest.Row][dest.Col] = merged
				res.scoreDelta += int(consumed.value)
				res.merges++
				res.moved = true

				if lead.origin != dest {
					from := lead.origin
					res.events = append(res.events, Event{Type: EventTileMoved, From: &from, To: dest, Value: lead.value})
				}
				from := consumed.origin
				res.events = append(res.events, Event{Type: EventTilesMerged, From: &from, To: dest, Value: merged})
				i++
			} else {
				res.grid[dest.Row][dest.Col] = lead.value
				if lead.origin != dest {
					res.moved = true
					from := lead.origin
					res.events = append(res.events, Event{Type: EventTileMoved, From: &from, To: dest, Value: lead.value})
				}
			}
			slot++
		}
	}

	return res
}

// canSlide reports whether a move in dir would change the board.
func canSlide(grid [][]Tile, dir Direction) bool {
	n := len(grid)
	for _, line := range linePositions(n, dir) {
		var prev Tile
		sawGap := false
		for _, pos := range line {
			v := grid[pos.Row][pos.Col]
			if v == 0 {
				sawGap = true
				continue
			}
			if sawGap || v == prev {
				return true
			}
			prev = v
		}
	}
	return false
}
