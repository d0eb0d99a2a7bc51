// Package mcp exposes the 2048 game to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes one request against the
// REST API served by package api, and the JSON response is rendered as text
// an agent can read.
//
// Tools:
//   - create_session, get_session, list_sessions: session management
//   - game_state: board, score, state and possible moves
//   - move: one move, with optional hold to keep the input pressed
//   - bulk_move: up to 50 moves, stopping when the game needs a decision
//   - release_input: end a held move
//   - continue_game: keep playing or end the game after reaching 2048
//   - new_game, set_board_size: start over on a 4x4, 6x6 or 8x8 board
//   - move_history: paginated past moves
//   - list_configs: available variants
//   - game_instructions: full rules
//   - describe_tile: value, color tier and merge partners of one cell
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080", logger)
//
//	// stdio mode
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP mode
//	http.Handle("/mcp", server.NewStreamableHTTPServer(client.GetMCPServer()))
package mcp
