package service

import (
	"time"

	"github.com/wricardo/game2048/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// Event types carried by GameEvent.
const (
	EventMove      = "move"
	EventMerge     = "merge"
	EventSpawn     = "spawn"
	EventWon       = "won"
	EventGameOver  = "game_over"
	EventBoardFull = "board_full"
	EventContinued = "continued"
	EventEnded     = "ended"
	EventNewGame   = "new_game"
)

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string           `json:"type"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Position  *engine.Position `json:"position,omitempty"`
	From      *engine.Position `json:"from,omitempty"`
	Value     int              `json:"value,omitempty"`
}

// MoveResult contains the result of a move, release or continue operation
type MoveResult struct {
	Success     bool                `json:"success"`
	Rejected    bool                `json:"rejected,omitempty"`
	Direction   string              `json:"direction,omitempty"`
	ScoreDelta  int                 `json:"score_delta"`
	Reached2048 bool                `json:"reached_2048"`
	BoardFull   bool                `json:"board_full"`
	State       engine.SessionState `json:"state"`
	GameState   *engine.GameState   `json:"game_state"`
	Message     string              `json:"message"`
	Events      []GameEvent         `json:"events,omitempty"`
}

// Stop codes reported by BulkMove.
const (
	StopBoardFull        = "game_over_board_full"
	StopWonPendingChoice = "won_pending_choice"
	StopEnded            = "ended"
	StopInvalidDirection = "invalid_direction"
	StopCancelled        = "cancelled"
)

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	// Summary
	MovesExecuted  int               `json:"moves_executed"`
	RequestedMoves int               `json:"requested_moves"`
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // game_over_board_full|won_pending_choice|ended|invalid_direction|cancelled
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`  // 1-based index of the move that was not played
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	StartScore int `json:"start_score"`
	EndScore   int `json:"end_score"`
	ScoreDelta int `json:"score_delta"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	State         engine.SessionState `json:"state"`
	Reached2048   bool                `json:"reached_2048"`
	Message       string              `json:"message,omitempty"`
	PossibleMoves []engine.Direction  `json:"possible_moves,omitempty"`
}

// StepInfo is a compact record for each executed move in the bulk call
type StepInfo struct {
	Idx        int                 `json:"idx"`
	Dir        string              `json:"dir"`
	Moved      bool                `json:"moved"`
	ScoreDelta int                 `json:"score_delta"`
	Score      int                 `json:"score"`
	Spawned    *engine.Position    `json:"spawned,omitempty"`
	State      engine.SessionState `json:"state"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename    string             `json:"filename"`
	ConfigID    string             `json:"config_id"` // The identifier to use for session creation
	Name        string             `json:"name"`      // Display name
	Description string             `json:"description"`
	Dimension   int                `json:"dimension"`
	BigMode     bool               `json:"big_mode"`
	WinTile     engine.Tile        `json:"win_tile"`
	SpawnPolicy engine.SpawnPolicy `json:"spawn_policy"`
}
