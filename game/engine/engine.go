package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// GameEngine is the contract the session and service layers program against.
type GameEngine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	IsGameOver() bool
	GetScore() int
	GetLength() int
	GetHead() Position
	GetHeading() Direction

	// Stepping
	Step(a Action) (*StepResult, error)
	StepGrid(a Action) (*StepResult, error)
	Peek(a Action) (Position, Outcome)
	SafeActions() []Action

	// Configuration
	GetConfig() *GameConfig
	SetConfig(config *GameConfig) error

	// History
	GetStepHistory() []StepHistoryEntry
	GetLastStep() *StepHistoryEntry
}

// Engine keeps the snake as an ordered list of body positions with an
// explicit heading. The numeric grid is produced on demand from that list,
// so no step ever needs to infer the heading or rescan the board. Engine is
// not safe for concurrent use.
type Engine struct {
	config *GameConfig

	width, height int
	body          []Position // tail first, head last
	occupied      []bool     // row-major body occupancy
	heading       Direction
	food          *Position
	free          *freeCells

	pcg *rand.PCG
	rng *rand.Rand

	over    bool
	outcome Outcome
	message string

	history      []StepHistoryEntry
	totalSteps   int
	current      []StepHistoryEntry
	currentCount int
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig) (*Engine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	e := &Engine{config: config}
	e.pcg = newPCG(config.RandomSeed)
	e.rng = rand.New(e.pcg)

	if err := e.seed(); err != nil {
		return nil, err
	}
	return e, nil
}

func newPCG(seed int64) *rand.PCG {
	s := uint64(seed)
	if s == 0 {
		s = uint64(time.Now().UnixNano())
	}
	return rand.NewPCG(s, s^0x9e3779b97f4a7c15)
}

// NewRand returns the random source an Engine built with random_seed seed
// starts from, so raw grid play can be driven with the same food sequence.
// Zero seeds from the clock.
func NewRand(seed int64) *rand.Rand {
	return rand.New(newPCG(seed))
}

// NewEngineWithDefaults creates a new game engine with DefaultConfig
func NewEngineWithDefaults() *Engine {
	e, err := NewEngine(DefaultConfig())
	if err != nil {
		panic(fmt.Sprintf("engine: default config rejected: %v", err))
	}
	return e
}

// seed lays out the initial snake from the configuration.
func (e *Engine) seed() error {
	g, err := SeedGrid(e.config.Width, e.config.Height, e.config.EffectiveSeedLength(), e.config.HasSeedFood())
	if err != nil {
		return err
	}
	if err := e.load(g); err != nil {
		return err
	}
	e.over = false
	e.outcome = ""
	e.message = e.config.message(func(m Messages) string { return m.Welcome })
	return nil
}

// load rebuilds the body, heading, food and free index from a numeric grid.
func (e *Engine) load(g *Grid) error {
	if g == nil {
		return fmt.Errorf("%w: state has no grid", ErrCorruptGrid)
	}
	if g.Width != e.config.Width || g.Height != e.config.Height {
		return fmt.Errorf("%w: grid is %dx%d but config is %dx%d",
			ErrCorruptGrid, g.Width, g.Height, e.config.Width, e.config.Height)
	}
	body, heading, err := g.DecodeSnake()
	if err != nil {
		return err
	}
	foods := g.FoodPositions()
	if len(foods) > 1 {
		return fmt.Errorf("%w: %d food cells", ErrCorruptGrid, len(foods))
	}

	e.width, e.height = g.Width, g.Height
	e.body = body
	e.heading = heading
	e.occupied = make([]bool, g.Width*g.Height)
	e.free = newFreeCells(g.Width, g.Height)
	for _, p := range body {
		e.occupied[e.free.index(p)] = true
		e.free.Remove(p)
	}
	e.food = nil
	if len(foods) == 1 {
		f := foods[0]
		e.food = &f
		e.free.Remove(f)
	}
	return nil
}

// GetState returns a snapshot of the current game state
func (e *Engine) GetState() *GameState {
	state := &GameState{
		Grid:              e.Grid(),
		Head:              e.GetHead(),
		Heading:           e.heading,
		Length:            len(e.body),
		Score:             e.GetScore(),
		Message:           e.message,
		GameOver:          e.over,
		Outcome:           e.outcome,
		ConfigName:        e.config.Name,
		StepHistory:       append([]StepHistoryEntry{}, e.history...),
		TotalSteps:        e.totalSteps,
		CurrentSteps:      append([]StepHistoryEntry{}, e.current...),
		CurrentStepsCount: e.currentCount,
	}
	if e.food != nil {
		f := *e.food
		state.Food = &f
	}
	if raw, err := e.pcg.MarshalBinary(); err == nil {
		state.RNGState = raw
	}
	return state
}

// SetState restores the game state (used for persistence loading). The
// snake is decoded from the numeric grid; Head, Heading and Length are
// derived and ignored on input.
func (e *Engine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if err := e.load(state.Grid); err != nil {
		return err
	}
	if len(state.RNGState) > 0 {
		if err := e.pcg.UnmarshalBinary(state.RNGState); err != nil {
			return fmt.Errorf("restore random source: %w", err)
		}
	}
	e.over = state.GameOver
	e.outcome = state.Outcome
	e.message = state.Message
	e.history = append([]StepHistoryEntry{}, state.StepHistory...)
	e.totalSteps = state.TotalSteps
	e.current = append([]StepHistoryEntry{}, state.CurrentSteps...)
	e.currentCount = state.CurrentStepsCount
	return nil
}

// Reset resets the game to its seeded state
func (e *Engine) Reset() *GameState {
	// Preserve cumulative history and totals across resets
	if err := e.seed(); err != nil {
		// The config was validated when it was set, so seeding cannot fail.
		panic(fmt.Sprintf("engine: reseed: %v", err))
	}
	e.current = []StepHistoryEntry{}
	e.currentCount = 0
	return e.GetState()
}

// IsGameOver returns whether the game is over
func (e *Engine) IsGameOver() bool {
	return e.over
}

// GetScore returns the body length minus the two seeded segments
func (e *Engine) GetScore() int {
	return len(e.body) - unscoredSegments
}

// GetLength returns the number of body segments
func (e *Engine) GetLength() int {
	return len(e.body)
}

// GetHead returns the head position
func (e *Engine) GetHead() Position {
	return e.body[len(e.body)-1]
}

// GetHeading returns the current heading
func (e *Engine) GetHeading() Direction {
	return e.heading
}

// GetFood returns the food position, if any
func (e *Engine) GetFood() (Position, bool) {
	if e.food == nil {
		return Position{}, false
	}
	return *e.food, true
}

// Grid renders the numeric encoding: the tail is 1, the head is the length.
func (e *Engine) Grid() *Grid {
	g := NewGrid(e.width, e.height)
	for i, p := range e.body {
		g.Set(p, i+1)
	}
	if e.food != nil {
		g.Set(*e.food, FoodCell)
	}
	return g
}

func (e *Engine) isBody(p Position) bool {
	return e.occupied[p.Y*e.width+p.X]
}

func (e *Engine) clamp(p Position) Position {
	return Position{X: clamp(p.X, 0, e.width-1), Y: clamp(p.Y, 0, e.height-1)}
}

// Peek predicts where action a leads and what would happen, without
// changing anything.
func (e *Engine) Peek(a Action) (Position, Outcome) {
	head := e.GetHead()
	next := e.clamp(head.Add(Rotate(e.heading, a)))
	switch {
	case next == head || e.isBody(next):
		return next, OutcomeCollision
	case e.food != nil && next == *e.food && e.free.Len() == 0:
		return next, OutcomeBoardFull
	}
	return next, OutcomeContinue
}

// SafeActions returns the actions that do not end the game in a collision.
func (e *Engine) SafeActions() []Action {
	if e.over {
		return nil
	}
	var safe []Action
	for _, a := range []Action{TurnLeft, Straight, TurnRight} {
		if _, outcome := e.Peek(a); outcome != OutcomeCollision {
			safe = append(safe, a)
		}
	}
	return safe
}

// Step advances the game by one tick. A collision or a full board ends the
// game; any further Step returns ErrGameOver without touching the state.
func (e *Engine) Step(a Action) (*StepResult, error) {
	if e.over {
		return nil, ErrGameOver
	}
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAction, int(a))
	}

	head := e.GetHead()
	heading := Rotate(e.heading, a)
	next := e.clamp(head.Add(heading))
	res := &StepResult{Action: a, From: head, To: next}

	if next == head || e.isBody(next) {
		e.finish(res, OutcomeCollision, func(m Messages) string { return m.Collision })
		return res, nil
	}

	if e.food != nil && next == *e.food {
		e.food = nil
		e.grow(next)
		res.Grew = true
		if f, ok := e.free.Pick(e.rng); ok {
			e.free.Remove(f)
			e.food = &f
			food := f
			res.Food = &food
		}
	} else {
		e.slide(next)
	}
	e.heading = heading
	return e.settle(res), nil
}

// StepGrid advances the game through Advance on the numeric grid instead of
// the body list, then reloads the explicit state from the updated grid. It
// backs configurations using the grid encoding; results match Step.
func (e *Engine) StepGrid(a Action) (*StepResult, error) {
	if e.over {
		return nil, ErrGameOver
	}
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAction, int(a))
	}

	g := e.Grid()
	head := e.GetHead()
	food := e.food
	next := e.clamp(head.Add(Rotate(e.heading, a)))
	res := &StepResult{Action: a, From: head, To: next}

	_, done, err := Advance(g, a, e.rng)
	if err != nil && !errors.Is(err, ErrBoardFull) {
		return nil, err
	}
	if done && err == nil {
		e.finish(res, OutcomeCollision, func(m Messages) string { return m.Collision })
		return res, nil
	}
	if err := e.load(g); err != nil {
		return nil, fmt.Errorf("reload after grid step: %w", err)
	}

	res.Grew = food != nil && next == *food
	if res.Grew && e.food != nil {
		f := *e.food
		res.Food = &f
	}
	return e.settle(res), nil
}

// settle finishes a non-colliding step: a growth that left no room for
// food ends the game, anything else continues.
func (e *Engine) settle(res *StepResult) *StepResult {
	if res.Grew && e.food == nil {
		e.finish(res, OutcomeBoardFull, func(m Messages) string { return m.BoardFull })
		return res
	}

	res.Outcome = OutcomeContinue
	res.Length = len(e.body)
	res.Score = e.GetScore()
	if res.Grew {
		e.message = fmt.Sprintf(e.config.message(func(m Messages) string { return m.Ate }), len(e.body))
	}
	e.record(res)
	return res
}

// grow puts a new head on next without moving the tail.
func (e *Engine) grow(next Position) {
	e.free.Remove(next)
	e.occupied[e.free.index(next)] = true
	e.body = append(e.body, next)
}

// slide moves the whole body one cell: the tail cell is vacated and next
// becomes the head.
func (e *Engine) slide(next Position) {
	tail := e.body[0]
	e.body = e.body[1:]
	e.occupied[e.free.index(tail)] = false
	e.free.Add(tail)
	e.grow(next)
}

func (e *Engine) finish(res *StepResult, outcome Outcome, msg func(Messages) string) {
	e.over = true
	e.outcome = outcome
	res.Outcome = outcome
	res.Done = true
	res.Length = len(e.body)
	res.Score = e.GetScore()
	e.message = fmt.Sprintf(e.config.message(msg), res.Score)
	e.record(res)
}

// record adds a step to the cumulative and current histories.
func (e *Engine) record(res *StepResult) {
	entry := newHistoryEntry(res, e.totalSteps+1)
	e.history = append(e.history, entry)
	e.totalSteps++
	e.current = append(e.current, entry)
	e.currentCount++
}

// GetConfig returns the current game configuration
func (e *Engine) GetConfig() *GameConfig {
	return e.config
}

// SetConfig sets a new game configuration and reseeds the game
func (e *Engine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}
	prev := e.config
	e.config = config
	if err := e.seed(); err != nil {
		e.config = prev
		return err
	}
	return nil
}

// GetStepHistory returns the complete step history
func (e *Engine) GetStepHistory() []StepHistoryEntry {
	return e.history
}

// GetLastStep returns the last step made, or nil if no steps
func (e *Engine) GetLastStep() *StepHistoryEntry {
	if len(e.history) == 0 {
		return nil
	}
	return &e.history[len(e.history)-1]
}

// BulkStep executes actions in sequence until one ends the game
func (e *Engine) BulkStep(actions []Action) ([]*StepResult, error) {
	results := make([]*StepResult, 0, len(actions))
	for _, a := range actions {
		if e.over {
			break
		}
		res, err := e.Step(a)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
