package service

import (
	"time"

	"github.com/wricardo/minisnakes/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	Live           bool               `json:"live"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// StepResult contains the result of a single step
type StepResult struct {
	Success     bool               `json:"success"`
	GameState   *engine.GameState  `json:"game_state"`
	Message     string             `json:"message"`
	Events      []GameEvent        `json:"events,omitempty"`
	Step        *engine.StepResult `json:"step,omitempty"`
	SafeActions []engine.Action    `json:"safe_actions,omitempty"`
}

// Stop reason codes reported by BulkStep
const (
	StopCollision = "collision"
	StopBoardFull = "board_full"
	StopGameOver  = "game_over"
)

// BulkStepResult contains the result of several steps
type BulkStepResult struct {
	// Summary
	StepsExecuted  int               `json:"steps_executed"`
	RequestedSteps int               `json:"requested_steps"`
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`   // Human-readable reason
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // collision|board_full|game_over
	StoppedOnStep  int               `json:"stopped_on_step,omitempty"`  // 1-based index of the step that caused the stop
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Start/end snapshot
	StartHead   engine.Position `json:"start_head"`
	EndHead     engine.Position `json:"end_head"`
	StartLength int             `json:"start_length"`
	EndLength   int             `json:"end_length"`
	ScoreDelta  int             `json:"score_delta"`

	// Per-step trace (only for this call)
	Steps []engine.StepResult `json:"steps,omitempty"`

	GameOver    bool            `json:"game_over"`
	Outcome     engine.Outcome  `json:"outcome,omitempty"`
	Message     string          `json:"message,omitempty"`
	SafeActions []engine.Action `json:"safe_actions,omitempty"`
}

// Event types
const (
	EventStep        = "step"
	EventAte         = "ate"
	EventCollision   = "collision"
	EventBoardFull   = "board_full"
	EventReset       = "reset"
	EventLiveStarted = "live_started"
	EventLiveStopped = "live_stopped"
)

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string          `json:"type"`
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position,omitempty"`
}

// HistoryOptions configures step history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated step history
type HistoryResponse struct {
	Steps       []engine.StepHistoryEntry `json:"steps"`
	TotalSteps  int                       `json:"total_steps"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Format      string `json:"format"` // json, yaml or hcl
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Encoding    string `json:"encoding"`
	MaxScore    int    `json:"max_score"`
}
