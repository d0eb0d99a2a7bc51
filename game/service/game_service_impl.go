package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/inconshreveable/log15/v3"

	"github.com/wricardo/game2048/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	logger   log15.Logger
	now      func() time.Time
	mu       sync.RWMutex
}

// Option configures the game service.
type Option func(*gameServiceImpl)

// WithLogger sets the logger used for game events.
func WithLogger(logger log15.Logger) Option {
	return func(s *gameServiceImpl) {
		s.logger = logger
	}
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		logger:   log15.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.New("component", "service")
	return s
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	if configName != "" {
		var err error
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			var configIDs []string
			if available, listErr := s.configs.ListConfigs(); listErr == nil {
				for _, cfg := range available {
					configIDs = append(configIDs, cfg.ConfigID)
				}
			}
			return nil, fmt.Errorf("failed to load config %q (available: %v): %w", configName, configIDs, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	return &SessionInfo{
		ID:             session.ID,
		ConfigName:     configID,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: s.lastAccessed(session),
		GameState:      snapshot(session.Engine),
		GameConfig:     session.Config,
	}, nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	return s.sessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Move executes a single move. Unless hold is set the input gesture is
// released right away, so each call spawns at most one tile.
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, hold bool) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	res, err := sess.Engine.Move(engine.Direction(direction))
	if err != nil {
		return nil, err
	}

	events := s.convertEvents(sess.Engine, res.Events)
	if !hold {
		events = append(events, s.convertEvents(sess.Engine, sess.Engine.OnInputReleased())...)
	}
	events = append(events, s.stateEvents(sess.Engine, res)...)

	state := snapshot(sess.Engine)
	s.logger.Info("move", "session", sess.ID, "dir", res.Direction, "moved", res.Moved,
		"delta", res.MergedScoreDelta, "score", state.Score, "state", state.State)

	return &MoveResult{
		Success:     res.Moved,
		Rejected:    res.Rejected,
		Direction:   string(res.Direction),
		ScoreDelta:  res.MergedScoreDelta,
		Reached2048: res.Reached2048,
		BoardFull:   sess.Engine.IsBoardFull(),
		State:       state.State,
		GameState:   state,
		Message:     state.Message,
		Events:      events,
	}, nil
}

// ReleaseInput ends a held gesture, spawning a tile if it changed the board.
func (s *gameServiceImpl) ReleaseInput(ctx context.Context, sessionID string) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	raw := sess.Engine.OnInputReleased()
	state := snapshot(sess.Engine)
	return &MoveResult{
		Success:   len(raw) > 0,
		BoardFull: sess.Engine.IsBoardFull(),
		State:     state.State,
		GameState: state,
		Message:   state.Message,
		Events:    s.convertEvents(sess.Engine, raw),
	}, nil
}

// BulkMove executes multiple moves in sequence, each as its own gesture
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	eng := sess.Engine

	startScore := eng.GetScore()
	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
		Success:        true,
		StartScore:     startScore,
	}

	// Limit moves to prevent abuse
	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	for i, move := range moves {
		if err := ctx.Err(); err != nil {
			result.Success = false
			result.StopReasonCode = StopCancelled
			result.StoppedReason = err.Error()
			result.StoppedOnMove = i + 1
			break
		}
		if code, reason := stopCode(eng.GetSessionState()); code != "" {
			result.StopReasonCode = code
			result.StoppedReason = reason
			result.StoppedOnMove = i + 1
			break
		}

		dir, err := engine.ParseDirection(move)
		if err != nil {
			result.Success = false
			result.StopReasonCode = StopInvalidDirection
			result.StoppedReason = fmt.Sprintf("move %d: %v", i+1, err)
			result.StoppedOnMove = i + 1
			break
		}

		res, err := eng.Move(dir)
		if err != nil {
			return nil, err
		}
		released := eng.OnInputReleased()

		result.MovesExecuted++
		result.Reached2048 = result.Reached2048 || res.Reached2048
		result.Events = append(result.Events, s.convertEvents(eng, res.Events)...)
		result.Events = append(result.Events, s.convertEvents(eng, released)...)
		result.Events = append(result.Events, s.stateEvents(eng, res)...)

		step := StepInfo{
			Idx:        i + 1,
			Dir:        string(dir),
			Moved:      res.Moved,
			ScoreDelta: res.MergedScoreDelta,
			Score:      eng.GetScore(),
			State:      eng.GetSessionState(),
		}
		for _, ev := range released {
			if ev.Type == engine.EventTileSpawned {
				pos := ev.To
				step.Spawned = &pos
			}
		}
		result.Steps = append(result.Steps, step)
	}

	if result.StopReasonCode == "" {
		if code, reason := stopCode(eng.GetSessionState()); code != "" {
			result.StopReasonCode = code
			result.StoppedReason = reason
		}
	}

	state := snapshot(eng)
	result.GameState = state
	result.EndScore = state.Score
	result.ScoreDelta = state.Score - startScore
	result.State = state.State
	result.Message = state.Message
	result.PossibleMoves = state.PossibleMoves

	s.logger.Info("bulk move", "session", sess.ID, "requested", result.RequestedMoves,
		"executed", result.MovesExecuted, "delta", result.ScoreDelta, "stop", result.StopReasonCode)

	return result, nil
}

// ContinueGame answers the keep-playing prompt shown after the first win
func (s *gameServiceImpl) ContinueGame(ctx context.Context, sessionID string, keepPlaying bool) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	if err := sess.Engine.ContinueAfterWin(keepPlaying); err != nil {
		return nil, err
	}

	state := snapshot(sess.Engine)
	eventType := EventContinued
	if !keepPlaying {
		eventType = EventEnded
	}
	events := []GameEvent{{Type: eventType, Message: state.Message, Timestamp: s.now()}}
	if state.State == engine.StateGameOverBoardFull {
		events = append(events, GameEvent{Type: EventBoardFull, Message: state.Message, Timestamp: s.now()})
	}

	s.logger.Info("continue choice", "session", sess.ID, "keep_playing", keepPlaying, "state", state.State)

	return &MoveResult{
		Success:   true,
		BoardFull: sess.Engine.IsBoardFull(),
		State:     state.State,
		GameState: state,
		Message:   state.Message,
		Events:    events,
	}, nil
}

// NewGame starts a new round with the session's current board size and mode
func (s *gameServiceImpl) NewGame(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Engine.Reset()
	state := snapshot(sess.Engine)
	s.logger.Info("new game", "session", sess.ID, "game", state.GameID, "dimension", state.Dimension, "big_mode", state.BigMode)
	return state, nil
}

// SetBoardSize changes the board and starts a new round. A nil bigMode
// takes the preset for the size.
func (s *gameServiceImpl) SetBoardSize(ctx context.Context, sessionID string, dimension int, bigMode *bool) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	big := engine.DefaultBigMode(dimension)
	if bigMode != nil {
		big = *bigMode
	}
	if _, err := sess.Engine.SetBoardSize(dimension, big); err != nil {
		return nil, err
	}

	state := snapshot(sess.Engine)
	s.logger.Info("board size changed", "session", sess.ID, "dimension", dimension, "big_mode", big)
	return state, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	return snapshot(sess.Engine), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", sessionID, err)
	}

	return paginate(sess.Engine.GetMoveHistory(), opts), nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// touch looks up a session and refreshes its access time.
func (s *gameServiceImpl) touch(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     s.getConfigID(sess.Config.Name),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: s.lastAccessed(sess),
		GameState:      snapshot(sess.Engine),
		GameConfig:     sess.Config,
	}
}

// lastAccessed reads the access time under the session manager's lock.
func (s *gameServiceImpl) lastAccessed(sess *Session) time.Time {
	if t, err := s.sessions.LastAccessed(sess.ID); err == nil {
		return t
	}
	return sess.CreatedAt
}

// convertEvents turns engine notifications into transport events
func (s *gameServiceImpl) convertEvents(eng *engine.GameEngine, raw []engine.Event) []GameEvent {
	events := make([]GameEvent, 0, len(raw))
	msgs := eng.GetConfig().Messages
	for _, ev := range raw {
		to := ev.To
		out := GameEvent{
			Timestamp: s.now(),
			Position:  &to,
			From:      ev.From,
			Value:     int(ev.Value),
		}
		switch ev.Type {
		case engine.EventTileMoved:
			out.Type = EventMove
			out.Message = fmt.Sprintf("%d moved to (%d,%d)", ev.Value, to.Row, to.Col)
		case engine.EventTilesMerged:
			out.Type = EventMerge
			out.Message = fmt.Sprintf("Merged into %d at (%d,%d)", ev.Value, to.Row, to.Col)
		case engine.EventTileSpawned:
			out.Type = EventSpawn
			out.Message = fmt.Sprintf("New %d at (%d,%d)", ev.Value, to.Row, to.Col)
		case engine.EventGameWon:
			out.Type = EventWon
			out.Message = msgs.Won
		case engine.EventGameOver:
			out.Type = EventBoardFull
			out.Message = msgs.BoardFull
		default:
			out.Type = string(ev.Type)
		}
		events = append(events, out)
	}
	return events
}

// stateEvents reports the recoverable no-move state, which has no engine event.
func (s *gameServiceImpl) stateEvents(eng *engine.GameEngine, res engine.MoveResult) []GameEvent {
	if res.Rejected || res.State != engine.StateGameOverNoMoves {
		return nil
	}
	return []GameEvent{{
		Type:      EventGameOver,
		Message:   eng.GetConfig().Messages.GameOver,
		Timestamp: s.now(),
	}}
}

func stopCode(state engine.SessionState) (string, string) {
	switch state {
	case engine.StateGameOverBoardFull:
		return StopBoardFull, "board is full and nothing can merge"
	case engine.StateWonPendingChoice:
		return StopWonPendingChoice, "reached the win tile; continue or end the game first"
	case engine.StateEnded:
		return StopEnded, "game has ended"
	}
	return "", ""
}

// snapshot copies the engine state so callers can read it after the lock is
// released, and fills in the computed helper views.
func snapshot(eng *engine.GameEngine) *engine.GameState {
	src := eng.GetState()
	state := *src
	state.Grid = engine.CopyGrid(src.Grid)
	state.MoveHistory = append([]engine.MoveHistoryEntry(nil), src.MoveHistory...)
	state.ColorTiers = engine.ColorTiers(state.Grid)
	state.PossibleMoves = eng.GetPossibleMoves()
	return &state
}

func paginate(history []engine.MoveHistoryEntry, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []engine.MoveHistoryEntry{}
	if opts.Order == "desc" {
		// most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = append(moves, history[start:end]...)
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}
}
