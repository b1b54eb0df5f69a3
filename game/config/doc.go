// Package config provides configuration management for the snake game server.
//
// The config package handles:
//   - Loading game configurations from JSON, YAML and HCL files
//   - Schema checks against an embedded JSON Schema
//   - Playability checks through engine.ValidateGameConfig
//   - Default configuration management
//   - Configuration discovery and listing
//
// Configuration Format:
//
// A configuration names the board size, the seeded snake and the texts shown
// to the player:
//
//	name: classic
//	width: 32
//	height: 32
//	seed_length: 2
//	seed_food: true
//	tick_ms: 100
//	encoding: explicit
//	messages:
//	  collision: "Crash! Score: %d"
//
// The same keys are used in JSON and HCL; in HCL messages is a block.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load specific configuration, with or without extension
//	gameConfig, err := manager.LoadConfig("large")
//
//	// List available configurations
//	configs, err := manager.ListConfigs()
package config
