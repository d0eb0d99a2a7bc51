package engine

import (
	"errors"
	"fmt"
	"testing"
)

// scriptedSource returns queued values (mod n) and 0 once the queue is empty.
type scriptedSource struct {
	values []int
	calls  []int
}

func (s *scriptedSource) IntN(n int) int {
	s.calls = append(s.calls, n)
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[0]
	s.values = s.values[1:]
	return v % n
}

// board builds an n x n grid whose first rows are the given rows.
func board(n int, rows ...[]Tile) [][]Tile {
	grid := NewGrid(n)
	for r, row := range rows {
		copy(grid[r], row)
	}
	return grid
}

// checkerboard is a full board with no adjacent equal tiles.
func checkerboard(n int) [][]Tile {
	grid := NewGrid(n)
	for r := range grid {
		for c := range grid[r] {
			if (r+c)%2 == 0 {
				grid[r][c] = 2
			} else {
				grid[r][c] = 4
			}
		}
	}
	return grid
}

func newTestEngine(t *testing.T, config *GameConfig, grid [][]Tile) (*GameEngine, *scriptedSource) {
	t.Helper()
	src := &scriptedSource{}
	e, err := NewEngineWithSource(config, src)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	if grid != nil {
		if err := e.SetState(&GameState{Grid: grid, Dimension: len(grid), State: StateActive}); err != nil {
			t.Fatalf("Failed to load board: %v", err)
		}
	}
	src.calls = nil
	return e, src
}

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine(DefaultGameConfig())
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	state := engine.GetState()
	if state.Dimension != 4 {
		t.Errorf("Expected dimension 4, got %d", state.Dimension)
	}
	if state.State != StateActive {
		t.Errorf("Expected active state, got %s", state.State)
	}
	if state.Message != DefaultMessages.Welcome {
		t.Errorf("Expected welcome message, got %q", state.Message)
	}
	if engine.GetConfig().WinTile != DefaultWinTile {
		t.Errorf("Expected win tile %d, got %d", DefaultWinTile, engine.GetConfig().WinTile)
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	config := DefaultGameConfig()
	config.Dimension = 5

	if _, err := NewEngine(config); err == nil {
		t.Error("Expected error for invalid dimension")
	}
}

func TestNewEngine_DoesNotMutateConfig(t *testing.T) {
	config := &GameConfig{Name: "Sparse", Dimension: 6}

	if _, err := NewEngine(config); err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	if config.WinTile != 0 || config.Messages.Welcome != "" {
		t.Error("NewEngine should fill defaults on its own copy")
	}
}

func TestNewEngineWithDefaults(t *testing.T) {
	engine := NewEngineWithDefaults()
	if engine.GetConfig().Name != "Classic" {
		t.Errorf("Expected Classic config, got %q", engine.GetConfig().Name)
	}
	if CountTiles(engine.GetGrid()) != 2 {
		t.Errorf("Expected 2 starting tiles, got %d", CountTiles(engine.GetGrid()))
	}
}

func TestEngine_StartGame(t *testing.T) {
	for _, dim := range ValidDimensions {
		for _, bigMode := range []bool{false, true} {
			engine := NewEngineWithDefaults()
			prevID := engine.GetState().GameID

			state, err := engine.StartGame(dim, bigMode)
			if err != nil {
				t.Fatalf("StartGame(%d, %v) failed: %v", dim, bigMode, err)
			}

			if state.Dimension != dim || len(state.Grid) != dim {
				t.Errorf("Expected %dx%d board, got dimension %d with %d rows", dim, dim, state.Dimension, len(state.Grid))
			}
			if state.Score != 0 {
				t.Errorf("Expected score 0, got %d", state.Score)
			}
			if state.BigMode != bigMode {
				t.Errorf("Expected big mode %v, got %v", bigMode, state.BigMode)
			}
			if state.Won || state.ContinueAfterWin || state.GameOver {
				t.Error("Expected all flags cleared on a new game")
			}
			if state.GameID == "" || state.GameID == prevID {
				t.Errorf("Expected a fresh game id, got %q (previous %q)", state.GameID, prevID)
			}

			if got := CountTiles(state.Grid); got != 2 {
				t.Errorf("Expected exactly 2 tiles, got %d", got)
			}
			allowed := map[Tile]bool{2: true, 4: true}
			if bigMode {
				allowed[8] = true
			}
			for _, row := range state.Grid {
				for _, v := range row {
					if v != 0 && !allowed[v] {
						t.Errorf("Unexpected starting tile %d (big mode %v)", v, bigMode)
					}
				}
			}
		}
	}
}

func TestEngine_StartGame_InvalidDimension(t *testing.T) {
	engine := NewEngineWithDefaults()
	before := engine.GetState()

	for _, dim := range []int{0, 3, 5, 7, 16, -4} {
		_, err := engine.StartGame(dim, false)
		if !errors.Is(err, ErrInvalidDimension) {
			t.Errorf("StartGame(%d): expected ErrInvalidDimension, got %v", dim, err)
		}
	}
	if engine.GetState() != before {
		t.Error("A rejected StartGame must keep the current round")
	}
}

func TestEngine_StartGame_NoAliasing(t *testing.T) {
	engine := NewEngineWithDefaults()
	oldGrid := engine.GetState().Grid

	if _, err := engine.StartGame(4, false); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	oldGrid[0][0] = 1024
	if engine.GetState().Grid[0][0] == 1024 {
		t.Error("New game must not share its grid with the previous round")
	}
}

func TestEngine_SetBoardSize(t *testing.T) {
	engine := NewEngineWithDefaults()

	state, err := engine.SetBoardSize(8, true)
	if err != nil {
		t.Fatalf("SetBoardSize failed: %v", err)
	}
	if state.Dimension != 8 || !state.BigMode {
		t.Errorf("Expected 8x8 big mode, got %d big=%v", state.Dimension, state.BigMode)
	}

	reset := engine.Reset()
	if reset.Dimension != 8 || !reset.BigMode {
		t.Error("Reset should keep the board size and mode")
	}
}

func TestEngine_MoveMergesRow(t *testing.T) {
	engine, _ := newTestEngine(t, nil, board(4, []Tile{2, 2, 0, 0}))

	result, err := engine.Move(Left)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	want := []Tile{4, 0, 0, 0}
	for c, v := range want {
		if engine.GetGrid()[0][c] != v {
			t.Fatalf("Expected row %v, got %v", want, engine.GetGrid()[0])
		}
	}
	if !result.Moved {
		t.Error("Expected Moved")
	}
	if result.MergedScoreDelta != 2 || engine.GetScore() != 2 {
		t.Errorf("Expected score +2, got delta %d score %d", result.MergedScoreDelta, engine.GetScore())
	}
}

func TestEngine_MoveNoMergeThroughDifferentValue(t *testing.T) {
	engine, _ := newTestEngine(t, nil, board(4, []Tile{2, 4, 2, 0}))

	result, err := engine.Move(Left)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	want := []Tile{2, 4, 2, 0}
	for c, v := range want {
		if engine.GetGrid()[0][c] != v {
			t.Fatalf("Expected row %v unchanged, got %v", want, engine.GetGrid()[0])
		}
	}
	if result.Moved || result.MergedScoreDelta != 0 || engine.GetScore() != 0 {
		t.Errorf("Expected no-op move, got %+v", result)
	}
	if result.State != StateActive {
		t.Errorf("A no-op move on a board with space keeps the game active, got %s", result.State)
	}
}

func TestEngine_MoveIdempotentWhenNothingSlides(t *testing.T) {
	grid := board(4,
		[]Tile{2, 4, 8, 16},
		[]Tile{4, 0, 0, 0},
	)
	engine, src := newTestEngine(t, nil, grid)
	before := engine.GetGrid()

	for i := 0; i < 3; i++ {
		result, err := engine.Move(Left)
		if err != nil {
			t.Fatalf("Move failed: %v", err)
		}
		if result.Moved {
			t.Fatalf("Expected no movement, got %+v", result)
		}
		engine.OnInputReleased()
	}

	after := engine.GetGrid()
	for r := range before {
		for c := range before[r] {
			if before[r][c] != after[r][c] {
				t.Fatalf("Board changed at (%d,%d): %d -> %d", r, c, before[r][c], after[r][c])
			}
		}
	}
	if engine.GetScore() != 0 {
		t.Errorf("Score changed to %d", engine.GetScore())
	}
	if len(src.calls) != 0 {
		t.Errorf("No-op moves must not spawn, random source was called %d times", len(src.calls))
	}
}

func TestEngine_Directions(t *testing.T) {
	tests := []struct {
		name      string
		direction Direction
		want      Position
	}{
		{"left", Left, Position{Row: 1, Col: 0}},
		{"right", Right, Position{Row: 1, Col: 3}},
		{"up", Up, Position{Row: 0, Col: 2}},
		{"down", Down, Position{Row: 3, Col: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newTestEngine(t, nil, board(4, nil, []Tile{0, 0, 8, 0}))

			result, err := engine.Move(tt.direction)
			if err != nil {
				t.Fatalf("Move failed: %v", err)
			}
			if !result.Moved {
				t.Fatal("Expected the tile to move")
			}
			if got := engine.GetGrid()[tt.want.Row][tt.want.Col]; got != 8 {
				t.Errorf("Expected tile at %+v, grid %v", tt.want, engine.GetGrid())
			}
			if len(result.Events) != 1 || result.Events[0].Type != EventTileMoved {
				t.Errorf("Expected one move event, got %+v", result.Events)
			}
		})
	}
}

func TestEngine_InvalidDirection(t *testing.T) {
	engine := NewEngineWithDefaults()
	before := engine.GetState().TotalMoves

	for _, dir := range []Direction{"", "diagonal", "north", "u p"} {
		if _, err := engine.Move(dir); !errors.Is(err, ErrInvalidDirection) {
			t.Errorf("Move(%q): expected ErrInvalidDirection, got %v", dir, err)
		}
	}
	if engine.GetState().TotalMoves != before {
		t.Error("Invalid directions must not be recorded")
	}
}

func TestEngine_BoardFullIsTerminal(t *testing.T) {
	engine, _ := newTestEngine(t, nil, checkerboard(4))

	if !engine.IsBoardFull() {
		t.Fatal("Expected a full board")
	}
	if engine.GetSessionState() != StateGameOverBoardFull {
		t.Fatalf("Expected %s after loading a deadlocked board, got %s", StateGameOverBoardFull, engine.GetSessionState())
	}

	for _, dir := range Directions {
		result, err := engine.Move(dir)
		if err != nil {
			t.Fatalf("Move failed: %v", err)
		}
		if !result.Rejected || result.Moved {
			t.Errorf("Move(%s) on a full board should be rejected, got %+v", dir, result)
		}
		if result.State != StateGameOverBoardFull {
			t.Errorf("Expected %s, got %s", StateGameOverBoardFull, result.State)
		}
		if !result.BoardFull {
			t.Error("Expected BoardFull in result")
		}
	}
	if len(engine.GetPossibleMoves()) != 0 {
		t.Errorf("Expected no possible moves, got %v", engine.GetPossibleMoves())
	}
}

func TestEngine_WinSignalledOnce(t *testing.T) {
	for _, dim := range ValidDimensions {
		t.Run(fmt.Sprintf("%dx%d", dim, dim), func(t *testing.T) {
			grid := board(dim,
				[]Tile{1024, 1024},
				[]Tile{1024, 1024},
			)
			engine, _ := newTestEngine(t, nil, grid)

			result, err := engine.Move(Left)
			if err != nil {
				t.Fatalf("Move failed: %v", err)
			}
			if !result.Reached2048 {
				t.Fatal("Expected the win signal")
			}
			if result.State != StateWonPendingChoice {
				t.Errorf("Expected %s, got %s", StateWonPendingChoice, result.State)
			}

			wins := 0
			for _, ev := range result.Events {
				if ev.Type == EventGameWon {
					wins++
				}
			}
			if wins != 1 {
				t.Errorf("Expected exactly one win event even with two 2048 tiles, got %d", wins)
			}

			if err := engine.ContinueAfterWin(true); err != nil {
				t.Fatalf("ContinueAfterWin failed: %v", err)
			}
			result, err = engine.Move(Left)
			if err != nil {
				t.Fatalf("Move failed: %v", err)
			}
			if result.Reached2048 {
				t.Error("The win must not be signalled again in the same session")
			}

			engine.GetState().Grid[1][0] = 2048
			engine.GetState().Grid[1][1] = 2048
			result, _ = engine.Move(Left)
			if result.Reached2048 || engine.GetSessionState() == StateWonPendingChoice {
				t.Error("A larger tile after continuing must not signal a win")
			}
		})
	}
}

func TestEngine_MovesRejectedWhileAwaitingChoice(t *testing.T) {
	engine, _ := newTestEngine(t, nil, board(4, []Tile{1024, 1024, 2, 0}))

	if _, err := engine.Move(Left); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	score := engine.GetScore()

	result, err := engine.Move(Right)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if !result.Rejected {
		t.Error("Moves must be rejected until the player chooses")
	}
	if engine.GetScore() != score {
		t.Error("A rejected move must not change the score")
	}
}

func TestEngine_ContinueAfterWin_Decline(t *testing.T) {
	engine, _ := newTestEngine(t, nil, board(4, []Tile{1024, 1024}))

	if err := engine.ContinueAfterWin(true); !errors.Is(err, ErrNotAwaitingChoice) {
		t.Errorf("Expected ErrNotAwaitingChoice before a win, got %v", err)
	}

	engine.Move(Left)
	if err := engine.ContinueAfterWin(false); err != nil {
		t.Fatalf("ContinueAfterWin failed: %v", err)
	}
	if engine.GetSessionState() != StateEnded {
		t.Errorf("Expected %s, got %s", StateEnded, engine.GetSessionState())
	}
	if !engine.IsGameOver() {
		t.Error("An ended game is over")
	}

	result, _ := engine.Move(Right)
	if !result.Rejected || result.State != StateEnded {
		t.Errorf("Expected rejection in ended state, got %+v", result)
	}
	if events := engine.SpawnTile(); events != nil {
		t.Errorf("Ended games must not spawn, got %+v", events)
	}
}

func TestEngine_RecoverableGameOver(t *testing.T) {
	grid := [][]Tile{
		{2, 4, 2, 4},
		{2, 8, 4, 8},
		{4, 2, 8, 2},
		{8, 4, 2, 4},
	}
	engine, _ := newTestEngine(t, nil, grid)

	if engine.GetSessionState() != StateActive {
		t.Fatalf("A full board with a vertical pair is still playable, got %s", engine.GetSessionState())
	}

	result, err := engine.Move(Left)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if result.Moved || result.Rejected {
		t.Fatalf("Expected a non-rejected no-op, got %+v", result)
	}
	if result.State != StateGameOverNoMoves || !engine.IsGameOver() {
		t.Fatalf("Expected %s, got %s", StateGameOverNoMoves, result.State)
	}

	if engine.CanMove(Left) || !engine.CanMove(Up) {
		t.Errorf("Expected only vertical moves, got %v", engine.GetPossibleMoves())
	}

	result, err = engine.Move(Up)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if !result.Moved || result.State != StateActive {
		t.Fatalf("A legal slide should recover the game, got %+v", result)
	}
	if engine.IsGameOver() {
		t.Error("GameOver flag should clear on recovery")
	}

	col := []Tile{4, 4, 8, 0}
	for r, v := range col {
		if engine.GetGrid()[r][0] != v {
			t.Fatalf("Expected column %v, got grid %v", col, engine.GetGrid())
		}
	}
	if engine.GetScore() != 2 {
		t.Errorf("Expected score 2, got %d", engine.GetScore())
	}
}

func TestEngine_MoveHistory(t *testing.T) {
	engine, _ := newTestEngine(t, nil, board(4, []Tile{2, 2, 0, 0}))

	if engine.GetLastMove() != nil {
		t.Error("Expected no last move on a fresh board")
	}

	engine.Move(Left)
	engine.Move(Left)

	history := engine.GetMoveHistory()
	if len(history) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(history))
	}
	if !history[0].Moved || history[0].ScoreDelta != 2 || history[0].MoveNumber != 1 {
		t.Errorf("Unexpected first entry %+v", history[0])
	}
	if history[1].Moved || history[1].MoveNumber != 2 {
		t.Errorf("Unexpected second entry %+v", history[1])
	}
	if last := engine.GetLastMove(); last == nil || last.MoveNumber != 2 {
		t.Errorf("Expected last move number 2, got %+v", last)
	}
}

func TestEngine_SetState_Validation(t *testing.T) {
	engine := NewEngineWithDefaults()

	tests := []struct {
		name  string
		state *GameState
		want  error
	}{
		{"nil", nil, ErrInvalidState},
		{"bad dimension", &GameState{Dimension: 5, Grid: NewGrid(5)}, ErrInvalidDimension},
		{"short grid", &GameState{Dimension: 4, Grid: NewGrid(3)}, ErrInvalidState},
		{"ragged row", &GameState{Dimension: 4, Grid: [][]Tile{{0, 0, 0, 0}, {0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}}}, ErrInvalidState},
		{"not a power of two", &GameState{Dimension: 4, Grid: board(4, []Tile{3})}, ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := engine.SetState(tt.state); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEngine_GetGridReturnsCopy(t *testing.T) {
	engine, _ := newTestEngine(t, nil, board(4, []Tile{2}))

	grid := engine.GetGrid()
	grid[0][0] = 2048
	if engine.GetState().Grid[0][0] != 2 {
		t.Error("GetGrid must return a copy")
	}
}
