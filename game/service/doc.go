// Package service provides the business logic layer for the 2048 game server.
//
// GameService sits between the transports (HTTP, WebSocket, MCP) and the
// engine. It serializes access to each session's engine, turns engine
// notifications into GameEvents, and returns detached GameState snapshots
// that carry the computed color tiers and possible moves.
//
// A plain Move releases the input gesture immediately, so it spawns at most
// one tile. Clients that model a held key pass hold=true and call
// ReleaseInput when the key comes up. BulkMove plays each entry as its own
// gesture and stops early when the game needs a decision or cannot continue.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	result, err := gameService.Move(ctx, info.ID, "left", false)
package service
