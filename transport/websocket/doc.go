// Package websocket pushes live game updates to browser and agent clients.
//
// A central Hub owns every connection, grouped by session id. Clients
// connect to /api/sessions/{id}/ws, receive the current state first, then
// one JSON Message per frame:
//
//	{"session_id": "ab12", "event": "state_update", "game_state": {...}}
//	{"session_id": "ab12", "event": "game_events", "game_state": {...}, "data": [{"type": "merge", ...}]}
//
// Incoming frames are ignored apart from pong and close handling. Broadcasts
// are queued without blocking the caller; a client whose send buffer is full
// is disconnected.
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
package websocket
