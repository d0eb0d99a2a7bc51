package engine

import "errors"

// Tile is the value held by a board cell. Zero means the cell is empty.
type Tile int

// Direction is one of the four directions a move can push tiles.
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// Directions lists every direction in a stable order.
var Directions = []Direction{Up, Down, Left, Right}

// SessionState is the position of a game in its lifecycle.
type SessionState string

const (
	StateActive            SessionState = "active"
	StateWonPendingChoice  SessionState = "won_pending_choice"
	StateGameOverNoMoves   SessionState = "game_over_no_moves"
	StateGameOverBoardFull SessionState = "game_over_board_full"
	StateEnded             SessionState = "ended"
)

// IsTerminal reports whether the state rejects every further move.
func (s SessionState) IsTerminal() bool {
	return s == StateGameOverBoardFull || s == StateEnded
}

// SpawnPolicy selects how SpawnTile chooses its target cell.
type SpawnPolicy string

const (
	// SpawnFreeCell picks uniformly among the free cells.
	SpawnFreeCell SpawnPolicy = "free_cell"
	// SpawnSingleAttempt picks one cell uniformly over the whole grid and
	// places nothing when that cell is occupied.
	SpawnSingleAttempt SpawnPolicy = "single_attempt"
)

const (
	DefaultWinTile Tile = 2048
	MaxTileValue   Tile = 32768
)

const (
	DefaultInitialTiles = 2
	MaxBulkMoves        = 50
	WebSocketBufferSize = 256
)

// ValidDimensions are the board sizes a game can be started with.
var ValidDimensions = []int{4, 6, 8}

var (
	ErrInvalidDirection  = errors.New("invalid direction")
	ErrInvalidDimension  = errors.New("invalid board dimension")
	ErrInvalidState      = errors.New("invalid game state")
	ErrNotAwaitingChoice = errors.New("game is not waiting for a continue choice")
)

// Position is a (row, column) board coordinate.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// EventType names a state-change notification.
type EventType string

const (
	EventTileSpawned EventType = "tile_spawned"
	EventTileMoved   EventType = "tile_moved"
	EventTilesMerged EventType = "tiles_merged"
	EventGameOver    EventType = "game_over"
	EventGameWon     EventType = "game_won"
)

// Event is a single state change produced by the engine.
// For merges, From is the consumed tile's origin and Value the doubled value.
type Event struct {
	Type  EventType `json:"type"`
	From  *Position `json:"from,omitempty"`
	To    Position  `json:"to"`
	Value Tile      `json:"value,omitempty"`
}

// Messages are the player-facing texts of a variant.
type Messages struct {
	Welcome   string `json:"welcome"`
	Won       string `json:"won"`
	GameOver  string `json:"game_over"`
	BoardFull string `json:"board_full"`
	Ended     string `json:"ended"`
	Continued string `json:"continued"`
}

// GameConfig describes a game variant loaded from JSON.
type GameConfig struct {
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Dimension    int         `json:"dimension"`
	BigMode      bool        `json:"big_mode"`
	WinTile      Tile        `json:"win_tile"`
	SpawnPolicy  SpawnPolicy `json:"spawn_policy"`
	InitialTiles int         `json:"initial_tiles"`
	Messages     Messages    `json:"messages"`
}

// GameState is the complete state of one game round.
type GameState struct {
	GameID           string             `json:"game_id"`
	Grid             [][]Tile           `json:"grid"`
	Dimension        int                `json:"dimension"`
	BigMode          bool               `json:"big_mode"`
	Score            int                `json:"score"`
	State            SessionState       `json:"state"`
	GameOver         bool               `json:"game_over"`
	Won              bool               `json:"won"`
	ContinueAfterWin bool               `json:"continue_after_win"`
	MaxTile          Tile               `json:"max_tile"`
	Message          string             `json:"message"`
	ConfigName       string             `json:"config_name"`
	MoveHistory      []MoveHistoryEntry `json:"move_history"`
	TotalMoves       int                `json:"total_moves"`

	// Computed helper views, filled in by the service layer
	ColorTiers    [][]ColorTier `json:"color_tiers,omitempty"`
	PossibleMoves []Direction   `json:"possible_moves,omitempty"`
}

// MoveHistoryEntry records one Move call.
type MoveHistoryEntry struct {
	Direction  Direction    `json:"direction"`
	Moved      bool         `json:"moved"`
	Rejected   bool         `json:"rejected,omitempty"`
	ScoreDelta int          `json:"score_delta"`
	Score      int          `json:"score"`
	State      SessionState `json:"state"`
	Timestamp  int64        `json:"timestamp"`
	MoveNumber int          `json:"move_number"`
}

// MoveResult is what a single Move call reports back to the caller.
type MoveResult struct {
	Direction        Direction    `json:"direction"`
	Moved            bool         `json:"moved"`
	Rejected         bool         `json:"rejected"`
	MergedScoreDelta int          `json:"merged_score_delta"`
	Reached2048      bool         `json:"reached_2048"`
	BoardFull        bool         `json:"board_full"`
	State            SessionState `json:"state"`
	Events           []Event      `json:"events,omitempty"`
}
