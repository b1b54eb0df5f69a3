// Package service provides the business logic layer for the snake game server.
//
// The service package implements:
//   - Multi-session game management
//   - Single and bulk stepping with stop reasons
//   - Live play driven by a ticker, fed by each session's action slot
//   - Step history pagination
//   - Configuration listing, loading and saving
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages game configuration loading and validation.
// StepListener is notified after every step, which is how the WebSocket hub
// pushes boards to its clients.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. A single mutex serializes every engine call, so the
// engines themselves never see concurrent use. Live play runs a driver in its
// own goroutine that steps through the same code path as the REST API.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Step(ctx, info.ID, engine.TurnLeft, false)
package service
