package service

import (
	"context"
	"time"

	"github.com/wricardo/minisnakes/game/engine"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Step(ctx context.Context, sessionID string, action engine.Action, reset bool) (*StepResult, error)
	BulkStep(ctx context.Context, sessionID string, actions []engine.Action, reset bool) (*BulkStepResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetStepHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Live play
	StartLive(ctx context.Context, sessionID string, interval time.Duration) error
	StopLive(ctx context.Context, sessionID string) error
	PushAction(ctx context.Context, sessionID string, action engine.Action) error

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, configID string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, configID string, config *engine.GameConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// StepListener is told about every step a session takes, whichever
// surface triggered it. Implementations must not block.
type StepListener interface {
	OnStep(sessionID string, result *StepResult)
	OnGameOver(sessionID string, result *StepResult)
}

// Session represents an active game session
type Session struct {
	ID             string
	ConfigID       string
	Engine         *engine.Engine
	Config         *engine.GameConfig
	Input          *engine.ActionSlot
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
