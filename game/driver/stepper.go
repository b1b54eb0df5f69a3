package driver

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/wricardo/minisnakes/game/engine"
)

// Stepper advances a game by one tick.
type Stepper interface {
	Step(ctx context.Context, a engine.Action) (*engine.StepResult, error)
	Grid() *engine.Grid
}

// EngineStepper drives an explicit engine. Configurations using the grid
// encoding are routed through Engine.StepGrid.
type EngineStepper struct {
	Engine *engine.Engine
}

// NewEngineStepper wraps eng.
func NewEngineStepper(eng *engine.Engine) *EngineStepper {
	return &EngineStepper{Engine: eng}
}

func (s *EngineStepper) Step(ctx context.Context, a engine.Action) (*engine.StepResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Engine.GetConfig().EffectiveEncoding() == engine.EncodingGrid {
		return s.Engine.StepGrid(a)
	}
	return s.Engine.Step(a)
}

func (s *EngineStepper) Grid() *engine.Grid {
	return s.Engine.Grid()
}

// GridStepper runs engine.Advance directly on a raw numeric grid. It owns
// the grid; callers must not mutate it while the stepper is in use.
type GridStepper struct {
	grid *engine.Grid
	rng  *rand.Rand
	done bool
}

// NewGridStepper wraps g. rng picks the food cells.
func NewGridStepper(g *engine.Grid, rng *rand.Rand) *GridStepper {
	return &GridStepper{grid: g, rng: rng}
}

// Step applies one action. The StepResult is reconstructed from the grid
// before and after the update.
func (s *GridStepper) Step(ctx context.Context, a engine.Action) (*engine.StepResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.done {
		return nil, engine.ErrGameOver
	}

	head, neck, ok := s.grid.TopTwo()
	if !ok {
		return nil, fmt.Errorf("%w: need at least two body cells", engine.ErrCorruptGrid)
	}
	next := s.grid.Clamp(head.Add(engine.Rotate(head.Sub(neck), a)))
	eats := s.grid.At(next) == engine.FoodCell
	res := &engine.StepResult{Action: a, From: head, To: next}

	score, done, err := engine.Advance(s.grid, a, s.rng)
	switch {
	case errors.Is(err, engine.ErrBoardFull):
		res.Outcome = engine.OutcomeBoardFull
		res.Grew = true
	case err != nil:
		return nil, err
	case done:
		res.Outcome = engine.OutcomeCollision
	default:
		res.Outcome = engine.OutcomeContinue
		res.Grew = eats
		score = engine.ScoreForLength(s.grid.CountBody())
	}
	if res.Grew && !done {
		if food := s.grid.FoodPositions(); len(food) == 1 {
			f := food[0]
			res.Food = &f
		}
	}

	s.done = done
	res.Done = done
	res.Score = score
	res.Length = s.grid.CountBody()
	return res, nil
}

// Grid returns a copy of the current grid.
func (s *GridStepper) Grid() *engine.Grid {
	return s.grid.Clone()
}
