// Package mcp exposes the game to AI agents over the Model Context Protocol.
//
// Client is a thin proxy: every tool call is translated into a request
// against the REST API (see package api) and the JSON response is rendered
// as text. The same server can be served over stdio or mounted on an HTTP
// endpoint.
//
// Tools:
//   - create_session, get_session, list_sessions
//   - game_state, look_ahead, describe_cell
//   - step, bulk_step, reset_game, step_history
//   - list_configs, game_instructions
//
// Actions are relative to the snake's heading: "left", "straight" or
// "right".
package mcp
