package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/wricardo/minisnakes/game/engine"
	"github.com/wricardo/minisnakes/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData represents the JSON structure for persisted sessions
type PersistedSessionData struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameConfig     *engine.GameConfig `json:"game_config,omitempty"`
	GameState      *engine.GameState  `json:"game_state"`
}

// snapshot captures a session for storage.
func snapshot(session *service.Session, configManager service.ConfigManager) (*PersistedSessionData, error) {
	if session == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}

	configID := session.ConfigID
	if configID == "" {
		var err error
		if configID, err = configIDFromName(configManager, session.Config.Name); err != nil {
			return nil, fmt.Errorf("failed to get config ID: %w", err)
		}
	}

	return &PersistedSessionData{
		ID:             session.ID,
		ConfigName:     configID, // Store config ID, not display name
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		GameConfig:     session.Config,
		GameState:      session.Engine.GetState(),
	}, nil
}

// restore rebuilds a session from stored data. The named configuration is
// preferred; the copy stored alongside the state is used when the name no
// longer resolves or no longer fits the stored grid.
func restore(data *PersistedSessionData, configManager service.ConfigManager) (*service.Session, error) {
	if data.GameState == nil {
		return nil, fmt.Errorf("session %s has no game state", data.ID)
	}

	gameConfig, err := configManager.LoadConfig(data.ConfigName)
	if err != nil {
		if data.GameConfig == nil {
			return nil, fmt.Errorf("failed to load config '%s': %w", data.ConfigName, err)
		}
		gameConfig = data.GameConfig
	}

	gameEngine, err := restoreEngine(gameConfig, data.GameState)
	if err != nil && data.GameConfig != nil && gameConfig != data.GameConfig {
		fmt.Printf("Warning: config '%s' no longer fits session %s, using the stored copy: %v\n", data.ConfigName, data.ID, err)
		gameConfig = data.GameConfig
		gameEngine, err = restoreEngine(gameConfig, data.GameState)
	}
	if err != nil {
		return nil, err
	}

	return &service.Session{
		ID:             data.ID,
		ConfigID:       data.ConfigName,
		Engine:         gameEngine,
		Config:         gameConfig,
		Input:          engine.NewActionSlot(),
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}, nil
}

func restoreEngine(config *engine.GameConfig, state *engine.GameState) (*engine.Engine, error) {
	gameEngine, err := engine.NewEngine(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create game engine: %w", err)
	}
	if err := gameEngine.SetState(state); err != nil {
		return nil, fmt.Errorf("failed to set game state: %w", err)
	}
	return gameEngine, nil
}

// configIDFromName returns the config ID (filename without extension) from display name
func configIDFromName(configManager service.ConfigManager, displayName string) (string, error) {
	configs, err := configManager.ListConfigs()
	if err != nil {
		return "", fmt.Errorf("failed to list configs: %w", err)
	}

	for _, config := range configs {
		if config.Name == displayName {
			return config.ConfigID, nil
		}
	}

	// If not found, assume the displayName is already the config ID
	return displayName, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}
