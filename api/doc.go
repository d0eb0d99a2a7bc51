// Package api provides the HTTP REST API for the 2048 game server.
//
// Endpoints:
//
// Sessions:
//   - POST   /api/sessions                   create a session ({"config_id": "big"})
//   - GET    /api/sessions                   list sessions (?sort=accessed|created|score&order=asc|desc&limit=N)
//   - GET    /api/sessions/leaderboard       sessions ranked by score (?configName=classic or ?sessionIds=a,b)
//   - GET    /api/sessions/{id}              session info with its current state
//   - DELETE /api/sessions/{id}              delete a session
//
// Game:
//   - GET  /api/sessions/{id}/state          current game state
//   - POST /api/sessions/{id}/move           {"direction": "left", "hold": false}
//   - POST /api/sessions/{id}/bulk-move      {"moves": ["left", "up"]}, at most 50 are played
//   - POST /api/sessions/{id}/release        end a held gesture
//   - POST /api/sessions/{id}/continue       {"keep_playing": true} after reaching the win tile
//   - POST /api/sessions/{id}/new-game       new round with the same board
//   - POST /api/sessions/{id}/board-size     {"dimension": 8, "big_mode": true}, big_mode optional
//   - GET  /api/sessions/{id}/history        ?page=1&limit=20&order=desc
//   - GET  /api/sessions/{id}/ws             websocket live updates
//
// Configuration:
//   - GET  /api/configs                      list variants
//   - GET  /api/configs/{name}               one variant
//   - POST /api/configs                      save a variant (?config_id= overrides the derived id)
//
// Health: GET /health and GET /api/health.
//
// Errors are JSON with the matching status code:
//
//	{"error": "session \"zz99\": session not found", "code": 404}
//
// Unknown sessions and variants map to 404, invalid input to 400 and a
// continue outside the win prompt to 409. Every state change is broadcast to
// the session's websocket clients.
package api
