package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game lifecycle
	StartGame(dimension int, bigMode bool) (*GameState, error)
	SetBoardSize(dimension int, bigMode bool) (*GameState, error)
	Reset() *GameState
	ContinueAfterWin(keepPlaying bool) error

	// Input
	Move(direction Direction) (MoveResult, error)
	OnInputReleased() []Event
	SpawnTile() []Event
	CanMove(direction Direction) bool
	GetPossibleMoves() []Direction

	// Queries
	GetState() *GameState
	SetState(state *GameState) error
	GetGrid() [][]Tile
	GetScore() int
	GetSessionState() SessionState
	IsBoardFull() bool
	IsGameOver() bool
	GetConfig() *GameConfig

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

// gesture tracks one held input: every Move with the same direction until
// OnInputReleased or a different direction belongs to it.
type gesture struct {
	active    bool
	direction Direction
	changed   bool
}

// GameEngine implements the Engine interface
type GameEngine struct {
	state   *GameState
	config  GameConfig
	rng     IntNSource
	gesture gesture
	now     func() time.Time
}

// NewEngine creates a game engine for the variant and starts the first game.
func NewEngine(config *GameConfig) (*GameEngine, error) {
	return NewEngineWithSource(config, NewRandSource())
}

// NewEngineWithSource is NewEngine with an explicit random source.
func NewEngineWithSource(config *GameConfig, src IntNSource) (*GameEngine, error) {
	if config == nil {
		config = DefaultGameConfig()
	}
	cfg := *config
	ApplyDefaults(&cfg)
	if err := ValidateGameConfig(&cfg); err != nil {
		return nil, err
	}
	if src == nil {
		src = NewRandSource()
	}

	e := &GameEngine{
		config: cfg,
		rng:    src,
		now:    time.Now,
	}
	if _, err := e.StartGame(cfg.Dimension, cfg.BigMode); err != nil {
		return nil, err
	}
	return e, nil
}

// NewEngineWithDefaults creates an engine for the classic 4x4 game.
func NewEngineWithDefaults() *GameEngine {
	e, err := NewEngine(DefaultGameConfig())
	if err != nil {
		panic(err)
	}
	return e
}

// StartGame discards the current round and begins a new one on an empty
// dimension x dimension board seeded with the variant's initial tiles.
func (e *GameEngine) StartGame(dimension int, bigMode bool) (*GameState, error) {
	if !IsValidDimension(dimension) {
		return nil, fmt.Errorf("%w: %d (want one of %v)", ErrInvalidDimension, dimension, ValidDimensions)
	}

	e.state = &GameState{
		GameID:      uuid.NewString(),
		Grid:        NewGrid(dimension),
		Dimension:   dimension,
		BigMode:     bigMode,
		State:       StateActive,
		Message:     e.config.Messages.Welcome,
		ConfigName:  e.config.Name,
		MoveHistory: []MoveHistoryEntry{},
	}
	e.gesture = gesture{}

	// Initial tiles always land on free cells so every game starts with the same count.
	for i := 0; i < e.config.InitialTiles; i++ {
		pos, ok := pickSpawnCell(e.state.Grid, SpawnFreeCell, e.rng)
		if !ok {
			break
		}
		e.state.Grid[pos.Row][pos.Col] = pickSpawnValue(bigMode, e.rng)
	}
	e.state.MaxTile = MaxTile(e.state.Grid)

	return e.state, nil
}

// SetBoardSize reconfigures the board and immediately starts a new game.
func (e *GameEngine) SetBoardSize(dimension int, bigMode bool) (*GameState, error) {
	return e.StartGame(dimension, bigMode)
}

// Reset starts a new game with the current size and mode.
func (e *GameEngine) Reset() *GameState {
	state, err := e.StartGame(e.state.Dimension, e.state.BigMode)
	if err != nil {
		// the current dimension was validated when the round started
		panic(err)
	}
	return state
}

// Move pushes every tile toward direction. Merge score is applied immediately;
// the follow-up spawn happens when the gesture ends (OnInputReleased or a
// Move in another direction).
func (e *GameEngine) Move(direction Direction) (MoveResult, error) {
	direction, err := ParseDirection(string(direction))
	if err != nil {
		return MoveResult{}, err
	}

	result := MoveResult{Direction: direction}

	if e.gesture.active && e.gesture.direction != direction {
		result.Events = append(result.Events, e.OnInputReleased()...)
	}

	if msg, rejected := e.rejection(); rejected {
		e.state.Message = msg
		result.Rejected = true
		result.State = e.state.State
		result.BoardFull = IsFull(e.state.Grid)
		e.record(result)
		return result, nil
	}

	e.gesture.active = true
	e.gesture.direction = direction

	slid := slide(e.state.Grid, direction)
	if slid.moved {
		e.state.Grid = slid.grid
		e.state.Score += slid.scoreDelta
		e.state.MaxTile = MaxTile(e.state.Grid)
		e.gesture.changed = true

		result.Moved = true
		result.MergedScoreDelta = slid.scoreDelta
		result.Events = append(result.Events, slid.events...)

		if e.state.State == StateGameOverNoMoves {
			e.state.State = StateActive
			e.state.GameOver = false
		}
		e.state.Message = ""
	} else if IsFull(e.state.Grid) {
		if IsDeadlocked(e.state.Grid) {
			result.Events = append(result.Events, e.endBoardFull())
		} else {
			e.state.State = StateGameOverNoMoves
			e.state.GameOver = true
			e.state.Message = e.config.Messages.GameOver
		}
	}

	if !e.state.Won && e.state.MaxTile >= e.config.WinTile {
		e.state.Won = true
		e.state.State = StateWonPendingChoice
		e.state.Message = e.config.Messages.Won
		result.Reached2048 = true
		result.Events = append(result.Events, Event{Type: EventGameWon, To: e.maxTilePosition(), Value: e.state.MaxTile})
	}

	result.State = e.state.State
	result.BoardFull = IsFull(e.state.Grid)
	e.record(result)
	return result, nil
}

// OnInputReleased ends the current gesture, spawning one tile when any move
// of the gesture changed the board.
func (e *GameEngine) OnInputReleased() []Event {
	changed := e.gesture.active && e.gesture.changed
	e.gesture = gesture{}
	if !changed {
		return nil
	}
	return e.SpawnTile()
}

// SpawnTile places one tile according to the variant's spawn policy. It
// returns the spawn event, plus a game-over event when the new tile leaves
// no legal move on a full board.
func (e *GameEngine) SpawnTile() []Event {
	if e.state.State.IsTerminal() {
		return nil
	}

	pos, ok := pickSpawnCell(e.state.Grid, e.config.SpawnPolicy, e.rng)
	if !ok {
		return nil
	}
	value := pickSpawnValue(e.state.BigMode, e.rng)
	e.state.Grid[pos.Row][pos.Col] = value
	if value > e.state.MaxTile {
		e.state.MaxTile = value
	}

	events := []Event{{Type: EventTileSpawned, To: pos, Value: value}}
	// a pending win choice is resolved first; ContinueAfterWin ends a deadlocked board
	if e.state.State != StateWonPendingChoice && IsDeadlocked(e.state.Grid) {
		events = append(events, e.endBoardFull())
	}
	return events
}

// ContinueAfterWin resolves the choice offered after the first win.
func (e *GameEngine) ContinueAfterWin(keepPlaying bool) error {
	if e.state.State != StateWonPendingChoice {
		return fmt.Errorf("%w: state is %s", ErrNotAwaitingChoice, e.state.State)
	}

	if !keepPlaying {
		e.state.State = StateEnded
		e.state.GameOver = true
		e.state.Message = e.config.Messages.Ended
		e.gesture = gesture{}
		return nil
	}

	e.state.ContinueAfterWin = true
	e.state.State = StateActive
	e.state.Message = e.config.Messages.Continued
	if IsDeadlocked(e.state.Grid) {
		e.endBoardFull()
	}
	return nil
}

// CanMove reports whether a move in direction would change the board now.
func (e *GameEngine) CanMove(direction Direction) bool {
	if _, rejected := e.rejection(); rejected {
		return false
	}
	return canSlide(e.state.Grid, direction)
}

// GetPossibleMoves returns every direction that would change the board.
func (e *GameEngine) GetPossibleMoves() []Direction {
	var possible []Direction
	for _, dir := range Directions {
		if e.CanMove(dir) {
			possible = append(possible, dir)
		}
	}
	return possible
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// SetState replaces the current round with state after validating its board.
// The session state is recomputed for deadlocked boards.
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("%w: state cannot be nil", ErrInvalidState)
	}
	if !IsValidDimension(state.Dimension) {
		return fmt.Errorf("%w: %d", ErrInvalidDimension, state.Dimension)
	}
	if len(state.Grid) != state.Dimension {
		return fmt.Errorf("%w: grid has %d rows, want %d", ErrInvalidState, len(state.Grid), state.Dimension)
	}
	for r, row := range state.Grid {
		if len(row) != state.Dimension {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidState, r, len(row), state.Dimension)
		}
		for c, v := range row {
			if v != 0 && !IsPowerOfTwo(v) {
				return fmt.Errorf("%w: cell (%d,%d) holds %d", ErrInvalidState, r, c, v)
			}
		}
	}

	if state.State == "" {
		state.State = StateActive
	}
	if state.MoveHistory == nil {
		state.MoveHistory = []MoveHistoryEntry{}
	}
	state.MaxTile = MaxTile(state.Grid)

	e.state = state
	e.gesture = gesture{}
	if e.state.State != StateWonPendingChoice && !e.state.State.IsTerminal() && IsDeadlocked(e.state.Grid) {
		e.endBoardFull()
	}
	return nil
}

// GetGrid returns a copy of the board.
func (e *GameEngine) GetGrid() [][]Tile {
	return CopyGrid(e.state.Grid)
}

// GetScore returns the current score
func (e *GameEngine) GetScore() int {
	return e.state.Score
}

// GetSessionState returns the lifecycle state of the current round.
func (e *GameEngine) GetSessionState() SessionState {
	return e.state.State
}

// IsBoardFull reports whether every cell is occupied.
func (e *GameEngine) IsBoardFull() bool {
	return IsFull(e.state.Grid)
}

// IsGameOver reports whether the last move found no legal slide or the round has ended.
func (e *GameEngine) IsGameOver() bool {
	return e.state.GameOver
}

// GetConfig returns a copy of the variant configuration.
func (e *GameEngine) GetConfig() *GameConfig {
	cfg := e.config
	return &cfg
}

// GetMoveHistory returns the move history of the current round.
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.state.MoveHistory
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.state.MoveHistory) == 0 {
		return nil
	}
	return &e.state.MoveHistory[len(e.state.MoveHistory)-1]
}

// rejection reports whether moves are refused in the current state, with the message to show.
func (e *GameEngine) rejection() (string, bool) {
	switch e.state.State {
	case StateGameOverBoardFull:
		return e.config.Messages.BoardFull, true
	case StateEnded:
		return e.config.Messages.Ended, true
	case StateWonPendingChoice:
		return e.config.Messages.Won, true
	}
	return "", false
}

func (e *GameEngine) endBoardFull() Event {
	e.state.State = StateGameOverBoardFull
	e.state.GameOver = true
	e.state.Message = e.config.Messages.BoardFull
	e.gesture = gesture{}
	return Event{Type: EventGameOver, To: e.maxTilePosition(), Value: e.state.MaxTile}
}

func (e *GameEngine) maxTilePosition() Position {
	var best Position
	var max Tile
	for r, row := range e.state.Grid {
		for c, v := range row {
			if v > max {
				max = v
				best = Position{Row: r, Col: c}
			}
		}
	}
	return best
}

func (e *GameEngine) record(result MoveResult) {
	e.state.TotalMoves++
	e.state.MoveHistory = append(e.state.MoveHistory, MoveHistoryEntry{
		Direction:  result.Direction,
		Moved:      result.Moved,
		Rejected:   result.Rejected,
		ScoreDelta: result.MergedScoreDelta,
		Score:      e.state.Score,
		State:      e.state.State,
		Timestamp:  e.now().Unix(),
		MoveNumber: e.state.TotalMoves,
	})
}
