// Package api exposes the snake game service over HTTP.
//
// Endpoints:
//
// Sessions:
//   - POST   /api/sessions               create a session ({"config_id": "classic"})
//   - GET    /api/sessions               list sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET    /api/sessions/{id}          session info with its game state
//   - DELETE /api/sessions/{id}          delete a session
//
// Playing:
//   - GET    /api/sessions/{id}/state     current game state
//   - POST   /api/sessions/{id}/step      one step ({"action": "left"|"straight"|"right", "reset": false})
//   - POST   /api/sessions/{id}/bulk-step several steps ({"actions": [...]}), stops at game over
//   - POST   /api/sessions/{id}/reset     reseed the board
//   - GET    /api/sessions/{id}/history   paginated steps (?page=1&limit=20&order=desc)
//
// Live play:
//   - POST   /api/sessions/{id}/live      start ticking ({"interval_ms": 100}; 0 uses tick_ms)
//   - DELETE /api/sessions/{id}/live      stop ticking
//   - POST   /api/sessions/{id}/input     steer the next tick ({"action": "left"} or {"key": "a"})
//
// Configuration:
//   - GET    /api/configs                 list configurations
//   - GET    /api/configs/{name}          one configuration
//   - POST   /api/configs                 save a configuration
//
// Other:
//   - GET    /health
//   - GET    /ws?session={id}             WebSocket updates, see package websocket
//
// Errors are returned as {"error": "..."} with 404 for unknown sessions or
// configs, 409 for finished games and live play conflicts, 400 for bad
// input and 500 for everything else.
package api
