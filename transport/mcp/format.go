package mcp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wricardo/game2048/game/engine"
	"github.com/wricardo/game2048/game/service"
)

const gameInstructions = `🎮 2048 - Complete Instructions

GAME OBJECTIVE:
Slide numbered tiles on the board so equal tiles merge. Build a 2048 tile to win.

BOARD:
• Sizes: 4x4 (classic), 6x6 and 8x8. Row 0 is the top, column 0 is the left.
• Empty cells are shown as "."
• A new game starts with two tiles.

MOVES:
• up / down / left / right slides every tile as far as it can go in that direction.
• Two equal tiles that meet merge into one tile of double value. The merged value is added to your score.
• A tile merges at most once per move: [2,2,2,2] moving left becomes [4,4,0,0], not [8,0,0,0].
• The tiles nearest the wall you move toward merge first: [2,2,2,0] moving left becomes [4,2,0,0].
• After a move that changed the board one new tile appears on a random empty cell:
  a 2 or a 4, and in big mode (default on 8x8) also an 8.
• A move that changes nothing spawns nothing.

HOLDING A DIRECTION:
• move with hold=true keeps the input pressed: repeated moves in the same direction spawn nothing.
• release_input (or a move in another direction) ends the hold and spawns one tile if anything moved.
• Plain moves (hold=false) release immediately, so each one spawns at most one tile.

WINNING:
• The first time a 2048 tile appears the game pauses and asks whether to keep playing.
• continue_game keep_playing=true resumes play (no further win prompts).
• continue_game keep_playing=false ends the game. Start over with new_game.

GAME OVER:
• If the board is full and your move changes nothing, the game reports "game over" but other
  directions may still work. Any move that slides or merges resumes play.
• If the board is full and no two neighbouring tiles are equal, the game is over for good.

STRATEGY TIPS:
• Keep your biggest tile in a corner and build a descending chain along one edge.
• Prefer two or three directions; use the fourth only when forced.
• Use bulk_move for routine sequences (max 50 moves); it stops when the game needs a decision.
• Check "Possible moves" before committing to a direction on a crowded board.

COLOR TIERS:
Each value has a color tier for display: 2 is SkyBlue (tier 0) up to 32768 DarkRed (tier 14).
Use describe_tile to see the tier of any cell.`

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

// formatBoard renders the grid with right-aligned columns.
func formatBoard(grid [][]engine.Tile) string {
	width := 1
	for _, row := range grid {
		for _, v := range row {
			if n := len(strconv.Itoa(int(v))); v != 0 && n > width {
				width = n
			}
		}
	}

	var b strings.Builder
	for _, row := range grid {
		for c, v := range row {
			if c > 0 {
				b.WriteString(" ")
			}
			cell := "."
			if v != 0 {
				cell = strconv.Itoa(int(v))
			}
			fmt.Fprintf(&b, "%*s", width, cell)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder

	mode := ""
	if state.BigMode {
		mode = " (big mode)"
	}
	fmt.Fprintf(&result, "Board: %dx%d%s | Score: %d | Max tile: %d | Moves: %d | State: %s\n\n",
		state.Dimension, state.Dimension, mode, state.Score, state.MaxTile, state.TotalMoves, state.State)

	result.WriteString(formatBoard(state.Grid))

	if len(state.PossibleMoves) > 0 {
		moves := make([]string, len(state.PossibleMoves))
		for i, d := range state.PossibleMoves {
			moves[i] = string(d)
		}
		fmt.Fprintf(&result, "\nPossible moves: %s", strings.Join(moves, ","))
	} else if !state.State.IsTerminal() && state.State != engine.StateWonPendingChoice {
		result.WriteString("\nPossible moves: none")
	}

	switch state.State {
	case engine.StateWonPendingChoice:
		result.WriteString("\n🎉 2048 REACHED! Call continue_game to keep playing or end the game.")
	case engine.StateGameOverNoMoves:
		result.WriteString("\n⚠ That direction is blocked on a full board. Try another direction.")
	case engine.StateGameOverBoardFull:
		result.WriteString("\n💀 GAME OVER")
	case engine.StateEnded:
		result.WriteString("\n🏁 GAME ENDED")
	}

	if state.Message != "" {
		fmt.Fprintf(&result, "\nMessage: %s", state.Message)
	}

	return result.String()
}

func formatEvents(b *strings.Builder, events []service.GameEvent) {
	if len(events) == 0 {
		return
	}
	b.WriteString("Events:\n")
	for _, event := range events {
		// individual slides are noise for agents
		if event.Type == service.EventMove {
			continue
		}
		fmt.Fprintf(b, "- %s: %s\n", event.Type, event.Message)
	}
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	switch {
	case result.Rejected:
		b.WriteString("✗ Move rejected\n")
	case result.Success:
		b.WriteString("✓ Move successful\n")
	default:
		b.WriteString("✗ Nothing moved\n")
	}

	if result.Direction != "" {
		fmt.Fprintf(&b, "Direction: %s | Score +%d\n", result.Direction, result.ScoreDelta)
	}
	if result.Reached2048 {
		b.WriteString("Reached 2048!\n")
	}

	formatEvents(&b, result.Events)

	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	dim, configName := 0, ""
	if result.GameState != nil {
		dim = result.GameState.Dimension
		configName = result.GameState.ConfigName
	}
	fmt.Fprintf(&b, "Session: %s • Config: %s • Board: %dx%d\n", sessionID, configName, dim, dim)

	fmt.Fprintf(&b, "Executed %d/%d moves • Score %d → %d (+%d)\n",
		result.MovesExecuted, result.RequestedMoves, result.StartScore, result.EndScore, result.ScoreDelta)
	if result.Truncated {
		fmt.Fprintf(&b, "Truncated to the first %d moves\n", result.Limit)
	}
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped at move %d (%s): %s\n", result.StoppedOnMove, result.StopReasonCode, result.StoppedReason)
	}

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps:\n")
		for _, s := range result.Steps {
			b.WriteString(formatStepLine(s))
		}
	}

	merges, best := 0, 0
	for _, ev := range result.Events {
		if ev.Type == service.EventMerge {
			merges++
			if ev.Value > best {
				best = ev.Value
			}
		}
	}
	if merges > 0 {
		fmt.Fprintf(&b, "\nMerges: %d (largest %d)\n", merges, best)
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatStepLine(s service.StepInfo) string {
	status := "✓"
	if !s.Moved {
		status = "·"
	}
	line := fmt.Sprintf("%d. %s %s +%d score=%d", s.Idx, s.Dir, status, s.ScoreDelta, s.Score)
	if s.Spawned != nil {
		line += fmt.Sprintf(" spawn=(%d,%d)", s.Spawned.Row, s.Spawned.Col)
	}
	if s.State != engine.StateActive {
		line += " [" + string(s.State) + "]"
	}
	return line + "\n"
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d), total: %d\n\n", history.Page, history.TotalPages, history.TotalMoves)

	if len(history.Moves) == 0 {
		b.WriteString("(no moves yet)\n")
	}
	for _, move := range history.Moves {
		status := "✓"
		switch {
		case move.Rejected:
			status = "✗ rejected"
		case !move.Moved:
			status = "· no change"
		}
		fmt.Fprintf(&b, "%d. %s %s +%d [Score: %d, %s]\n",
			move.MoveNumber, move.Direction, status, move.ScoreDelta, move.Score, move.State)
	}

	return b.String()
}

// describeTile reports the value, color tier and merge partners of one cell.
func describeTile(state *engine.GameState, row, col int) string {
	v := state.Grid[row][col]
	tier := engine.GetColorClass(v)

	var b strings.Builder
	fmt.Fprintf(&b, "Cell (%d, %d)\n", row, col)
	if v == 0 {
		b.WriteString("Value: empty\n")
	} else {
		fmt.Fprintf(&b, "Value: %d\n", v)
	}
	fmt.Fprintf(&b, "Color tier: %d (%s)\n", tier, tier)

	if v == 0 {
		return b.String()
	}

	var partners []string
	for _, d := range engine.Directions {
		dr, dc := d.Offset()
		r, c := row+dr, col+dc
		if r < 0 || c < 0 || r >= state.Dimension || c >= state.Dimension {
			continue
		}
		if state.Grid[r][c] == v {
			partners = append(partners, fmt.Sprintf("%s (%d,%d)", d, r, c))
		}
	}
	if len(partners) > 0 {
		fmt.Fprintf(&b, "Can merge with: %s\n", strings.Join(partners, ", "))
	} else {
		b.WriteString("Can merge with: no equal neighbour\n")
	}
	return b.String()
}
