package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/wricardo/minisnakes/game/driver"
	"github.com/wricardo/minisnakes/game/engine"
)

type liveRun struct {
	cancel context.CancelFunc
}

// liveStepper routes driver ticks through the service so live steps take
// the same lock, persistence and notifications as REST steps.
type liveStepper struct {
	svc       *gameServiceImpl
	sessionID string
}

func (l *liveStepper) Step(ctx context.Context, a engine.Action) (*engine.StepResult, error) {
	result, err := l.svc.Step(ctx, l.sessionID, a, false)
	if err != nil {
		return nil, err
	}
	return result.Step, nil
}

func (l *liveStepper) Grid() *engine.Grid {
	l.svc.mu.RLock()
	defer l.svc.mu.RUnlock()

	sess, err := l.svc.sessions.Get(l.sessionID)
	if err != nil {
		return nil
	}
	return sess.Engine.Grid()
}

// StartLive starts a driver that steps the session every interval, taking
// actions from the session's input slot. A zero interval uses the
// configuration's tick_ms.
func (s *gameServiceImpl) StartLive(ctx context.Context, sessionID string, interval time.Duration) error {
	s.mu.RLock()
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		s.mu.RUnlock()
		return fmt.Errorf("session not found: %w", err)
	}
	over := sess.Engine.IsGameOver()
	if interval <= 0 {
		interval = time.Duration(sess.Config.TickMillis) * time.Millisecond
	}
	s.mu.RUnlock()

	if over {
		return engine.ErrGameOver
	}
	if interval <= 0 {
		return fmt.Errorf("%w: live play needs a positive tick interval", engine.ErrInvalidConfig)
	}

	s.liveMu.Lock()
	if _, running := s.live[sess.ID]; running {
		s.liveMu.Unlock()
		return ErrLiveRunning
	}
	runCtx, cancel := context.WithCancel(context.Background())
	run := &liveRun{cancel: cancel}
	s.live[sess.ID] = run
	s.liveMu.Unlock()

	d := driver.New(&liveStepper{svc: s, sessionID: sess.ID}, sess.Input, nil, nil, interval)
	log.Printf("[LIVE] session=%s started interval=%s", sess.ID, interval)

	go func() {
		defer s.clearLive(sess.ID, run)
		final, err := d.Run(runCtx)
		switch {
		case err != nil && !errors.Is(err, context.Canceled):
			log.Printf("[LIVE] session=%s stopped: %v", sess.ID, err)
		case final != nil:
			log.Printf("[LIVE] session=%s finished outcome=%s score=%d", sess.ID, final.Outcome, final.Score)
		default:
			log.Printf("[LIVE] session=%s stopped", sess.ID)
		}
	}()
	return nil
}

// StopLive stops the session's driver.
func (s *gameServiceImpl) StopLive(ctx context.Context, sessionID string) error {
	s.mu.RLock()
	sess, err := s.sessions.Get(sessionID)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("session not found: %w", err)
	}
	if !s.stopLive(sess.ID) {
		return ErrNotLive
	}
	return nil
}

// PushAction queues the action for the next live tick.
func (s *gameServiceImpl) PushAction(ctx context.Context, sessionID string, action engine.Action) error {
	if !action.Valid() {
		return fmt.Errorf("%w: %d", engine.ErrInvalidAction, int(action))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return fmt.Errorf("session not found: %w", err)
	}
	sess.Input.Push(action)
	return nil
}

func (s *gameServiceImpl) stopLive(sessionID string) bool {
	s.liveMu.Lock()
	defer s.liveMu.Unlock()

	run, ok := s.live[sessionID]
	if ok {
		run.cancel()
		delete(s.live, sessionID)
	}
	return ok
}

// clearLive drops run once its driver returned, unless a newer run has
// replaced it.
func (s *gameServiceImpl) clearLive(sessionID string, run *liveRun) {
	s.liveMu.Lock()
	defer s.liveMu.Unlock()

	run.cancel()
	if s.live[sessionID] == run {
		delete(s.live, sessionID)
	}
}

func (s *gameServiceImpl) isLive(sessionID string) bool {
	s.liveMu.Lock()
	defer s.liveMu.Unlock()
	_, ok := s.live[sessionID]
	return ok
}
