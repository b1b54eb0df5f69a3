package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/minisnakes/game/engine"
)

var (
	ErrLiveRunning = errors.New("live play already running")
	ErrNotLive     = errors.New("live play not running")
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	listener StepListener
	mu       sync.RWMutex

	liveMu sync.Mutex
	live   map[string]*liveRun
}

// Option configures the game service
type Option func(*gameServiceImpl)

// WithStepListener registers l to be told about every step.
func WithStepListener(l StepListener) Option {
	return func(s *gameServiceImpl) {
		s.listener = l
	}
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		live:     make(map[string]*liveRun),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getConfigID returns the config_id for a session, used for consistent API responses
func (s *gameServiceImpl) getConfigID(sess *Session) string {
	if sess.ConfigID != "" {
		return sess.ConfigID
	}
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == sess.Config.Name {
				return cfg.ConfigID
			}
		}
	}
	// Fallback: return as-is or "default"
	if sess.Config.Name == "" {
		return "default"
	}
	return sess.Config.Name
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     s.getConfigID(sess),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Live:           s.isLive(sess.ID),
		GameState:      sess.Engine.GetState(),
		GameConfig:     sess.Config,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Load configuration
	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if strings.Contains(err.Error(), "configuration not found") {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found. Available configs: %v: %w", configName, configIDs, err)
				}
				return nil, fmt.Errorf("config '%s' not found. Use /api/configs to list available configurations: %w", configName, err)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", configName, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return s.sessionInfo(session), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return s.sessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession stops live play, if any, and removes the session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.stopLive(sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Step executes a single step for a session
func (s *gameServiceImpl) Step(ctx context.Context, sessionID string, action engine.Action, reset bool) (*StepResult, error) {
	result, err := s.step(sessionID, action, reset)
	if err != nil {
		return nil, err
	}
	s.notify(sessionID, result)
	return result, nil
}

func (s *gameServiceImpl) step(sessionID string, action engine.Action, reset bool) (*StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	// Update last accessed time
	s.sessions.UpdateLastAccessed(sessionID)

	// Collect events
	events := []GameEvent{}

	// Handle reset if requested
	if reset {
		sess.Engine.Reset()
		events = append(events, GameEvent{
			Type:      EventReset,
			Message:   "Game reset to initial state",
			Timestamp: time.Now(),
		})
	}

	res, err := stepEngine(sess, action)
	if err != nil {
		return nil, err
	}
	state := sess.Engine.GetState()
	log.Printf("[STEP] session=%s action=%s outcome=%s length=%d score=%d",
		sess.ID, action, res.Outcome, res.Length, res.Score)

	result := &StepResult{
		Success:     true,
		GameState:   state,
		Message:     state.Message,
		Events:      append(events, stepEvents(res, state.Message)...),
		Step:        res,
		SafeActions: sess.Engine.SafeActions(),
	}

	// Auto-save session after step
	if err := s.sessions.Save(sessionID); err != nil {
		fmt.Printf("Warning: Failed to persist session %s after step: %v\n", sessionID, err)
	}

	return result, nil
}

// stepEngine advances the session with the stepper its encoding selects.
func stepEngine(sess *Session, action engine.Action) (*engine.StepResult, error) {
	if sess.Config.EffectiveEncoding() == engine.EncodingGrid {
		return sess.Engine.StepGrid(action)
	}
	return sess.Engine.Step(action)
}

// BulkStep executes several steps in sequence
func (s *gameServiceImpl) BulkStep(ctx context.Context, sessionID string, actions []engine.Action, reset bool) (*BulkStepResult, error) {
	result, final, err := s.bulkStep(sessionID, actions, reset)
	if err != nil {
		return nil, err
	}
	if final != nil {
		s.notify(sessionID, final)
	}
	return result, nil
}

func (s *gameServiceImpl) bulkStep(sessionID string, actions []engine.Action, reset bool) (*BulkStepResult, *StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("session not found: %w", err)
	}

	// Update last accessed
	s.sessions.UpdateLastAccessed(sessionID)

	result := &BulkStepResult{
		RequestedSteps: len(actions),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	// Handle reset
	if reset {
		sess.Engine.Reset()
		result.Events = append(result.Events, GameEvent{
			Type:      EventReset,
			Message:   "Game reset to initial state",
			Timestamp: time.Now(),
		})
	}

	// Capture start snapshot
	startScore := sess.Engine.GetScore()
	result.StartHead = sess.Engine.GetHead()
	result.StartLength = sess.Engine.GetLength()

	// Limit steps to prevent abuse
	if len(actions) > engine.MaxBulkSteps {
		result.Truncated = true
		result.Limit = engine.MaxBulkSteps
		actions = actions[:engine.MaxBulkSteps]
	}

	var last *engine.StepResult
	for i, action := range actions {
		if sess.Engine.IsGameOver() {
			result.Success = false
			result.StoppedReason = "game is already over"
			result.StopReasonCode = StopGameOver
			result.StoppedOnStep = i + 1
			break
		}

		res, err := stepEngine(sess, action)
		if err != nil {
			return nil, nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		last = res
		result.StepsExecuted++
		result.Steps = append(result.Steps, *res)
		result.Events = append(result.Events, stepEvents(res, sess.Engine.GetState().Message)...)

		if res.Done {
			result.StoppedOnStep = i + 1
			result.StopReasonCode = string(res.Outcome)
			switch res.Outcome {
			case engine.OutcomeCollision:
				result.StoppedReason = fmt.Sprintf("step %d (%s) collided at (%d,%d)", i+1, action, res.To.X, res.To.Y)
			case engine.OutcomeBoardFull:
				result.StoppedReason = fmt.Sprintf("step %d (%s) filled the board", i+1, action)
			}
			break
		}
	}

	endState := sess.Engine.GetState()
	result.GameState = endState
	result.EndHead = endState.Head
	result.EndLength = endState.Length
	result.ScoreDelta = endState.Score - startScore
	result.GameOver = endState.GameOver
	result.Outcome = endState.Outcome
	result.Message = endState.Message
	result.SafeActions = sess.Engine.SafeActions()

	log.Printf("[STEP] session=%s bulk=%d executed=%d stop=%s score=%d",
		sess.ID, result.RequestedSteps, result.StepsExecuted, result.StopReasonCode, endState.Score)

	// Auto-save session after bulk steps
	if err := s.sessions.Save(sessionID); err != nil {
		fmt.Printf("Warning: Failed to persist session %s after bulk steps: %v\n", sessionID, err)
	}

	var final *StepResult
	if last != nil {
		final = &StepResult{
			Success:     true,
			GameState:   endState,
			Message:     endState.Message,
			Step:        last,
			SafeActions: result.SafeActions,
		}
	}
	return result, final, nil
}

// Reset resets a game session to initial state
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	state := sess.Engine.Reset()

	// Auto-save session after reset
	if err := s.sessions.Save(sessionID); err != nil {
		fmt.Printf("Warning: Failed to persist session %s after reset: %v\n", sessionID, err)
	}

	return state, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.GetState(), nil
}

// GetStepHistory returns paginated step history
func (s *gameServiceImpl) GetStepHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.Engine.GetStepHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	// Calculate pagination
	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	steps := []engine.StepHistoryEntry{}
	if start < total {
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				steps = append(steps, history[i])
			}
		} else {
			steps = append(steps, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Steps:       steps,
		TotalSteps:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

func (s *gameServiceImpl) notify(sessionID string, result *StepResult) {
	if s.listener == nil {
		return
	}
	s.listener.OnStep(sessionID, result)
	if result.Step != nil && result.Step.Done {
		s.listener.OnGameOver(sessionID, result)
	}
}

// stepEvents generates events from a step
func stepEvents(res *engine.StepResult, message string) []GameEvent {
	now := time.Now()
	events := []GameEvent{{
		Type:      EventStep,
		Message:   fmt.Sprintf("Went %s to (%d,%d)", res.Action, res.To.X, res.To.Y),
		Timestamp: now,
		Position:  res.To,
	}}

	if res.Grew {
		events = append(events, GameEvent{
			Type:      EventAte,
			Message:   fmt.Sprintf("Ate food, length %d", res.Length),
			Timestamp: now,
			Position:  res.To,
		})
	}

	switch res.Outcome {
	case engine.OutcomeCollision:
		events = append(events, GameEvent{Type: EventCollision, Message: message, Timestamp: now, Position: res.To})
	case engine.OutcomeBoardFull:
		events = append(events, GameEvent{Type: EventBoardFull, Message: message, Timestamp: now, Position: res.To})
	}
	return events
}
