// Package engine provides the board logic of the 2048 game.
//
// The engine package implements:
//   - Square boards of 4x4, 6x6 or 8x8 cells holding power-of-two tiles
//   - Directional slide-and-merge resolution with scoring
//   - Tile spawning in standard (2, 4) or big (2, 4, 8) mode
//   - Win, no-move and board-full detection
//   - Input gestures: one spawn per held direction
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameState is the state of one round, while
// GameConfig defines a variant loaded from JSON files.
//
// Usage:
//
//	gameEngine, err := engine.NewEngine(engine.DefaultGameConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameEngine.Move(engine.Left)
//	if err != nil {
//		log.Fatal(err)
//	}
//	gameEngine.OnInputReleased() // spawns when the move changed the board
//
//	if result.Reached2048 {
//		gameEngine.ContinueAfterWin(true)
//	}
//
// An engine is not safe for concurrent use; callers serialise access.
package engine
