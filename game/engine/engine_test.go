package engine

import (
	"errors"
	"testing"
)

func createTestConfig() *GameConfig {
	return &GameConfig{
		Name:        "Engine Test Config",
		Description: "Configuration for engine integration tests",
		Width:       6,
		Height:      5,
		SeedLength:  2,
		RandomSeed:  42,
		Messages: &Messages{
			Welcome:   "Welcome to engine test!",
			Ate:       "Ate! Length %d",
			Collision: "Crash! Score %d",
			BoardFull: "Full! Score %d",
		},
	}
}

func TestNewEngine(t *testing.T) {
	config := createTestConfig()
	engine, err := NewEngine(config)
	if err != nil {
		t.Fatalf("Failed to create new engine: %v", err)
	}

	if engine == nil {
		t.Fatal("Expected engine to be non-nil")
	}

	// Test initial state
	if engine.GetLength() != 2 {
		t.Errorf("Expected initial length 2, got %d", engine.GetLength())
	}
	if engine.GetScore() != 0 {
		t.Errorf("Expected initial score 0, got %d", engine.GetScore())
	}
	if engine.IsGameOver() {
		t.Error("Expected game not to be over initially")
	}
	if engine.GetHead() != (Position{X: 1, Y: 0}) {
		t.Errorf("Expected head at (1,0), got %+v", engine.GetHead())
	}
	if engine.GetHeading() != Right {
		t.Errorf("Expected heading right, got %s", engine.GetHeading())
	}
	food, ok := engine.GetFood()
	if !ok || food != (Position{X: 2, Y: 0}) {
		t.Errorf("Expected seeded food at (2,0), got %+v (present=%t)", food, ok)
	}

	state := engine.GetState()
	if state.Message != config.Messages.Welcome {
		t.Errorf("Expected welcome message, got %q", state.Message)
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	config := createTestConfig()
	config.Width = 2 // seed plus food needs 3 cells

	_, err := NewEngine(config)
	if !errors.Is(err, ErrGridTooSmall) {
		t.Errorf("Expected ErrGridTooSmall, got %v", err)
	}
}

func TestNewEngineWithDefaults(t *testing.T) {
	engine := NewEngineWithDefaults()
	if engine.GetConfig().Name != "classic" {
		t.Errorf("Expected classic config, got %s", engine.GetConfig().Name)
	}
	if g := engine.Grid(); g.Width != 32 || g.Height != 32 {
		t.Errorf("Expected 32x32 grid, got %dx%d", g.Width, g.Height)
	}
}

func TestEngine_StraightEatsSeededFood(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	res, err := engine.Step(Straight)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if !res.Grew {
		t.Error("Expected the first straight step to eat the seeded food")
	}
	if res.Length != 3 || res.Score != 1 {
		t.Errorf("Expected length 3 score 1, got length %d score %d", res.Length, res.Score)
	}
	if res.Food == nil {
		t.Fatal("Expected new food to be placed")
	}
	if engine.Grid().At(*res.Food) != FoodCell {
		t.Errorf("Expected food cell at %+v", *res.Food)
	}
	if got := engine.Grid().At(Position{X: 2, Y: 0}); got != 3 {
		t.Errorf("Expected new head value 3, got %d", got)
	}
	if got := engine.Grid().At(Position{X: 0, Y: 0}); got != 1 {
		t.Errorf("Expected tail to stay at value 1 after growth, got %d", got)
	}
}

func TestEngine_Turns(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	res, err := engine.Step(TurnRight)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if res.To != (Position{X: 1, Y: 1}) {
		t.Errorf("Expected turn right from heading right to go down to (1,1), got %+v", res.To)
	}
	if engine.GetHeading() != Down {
		t.Errorf("Expected heading down, got %s", engine.GetHeading())
	}

	res, _ = engine.Step(TurnLeft)
	if res.To != (Position{X: 2, Y: 1}) {
		t.Errorf("Expected turn left from heading down to go right to (2,1), got %+v", res.To)
	}
	if engine.GetLength() != 2 {
		t.Errorf("Expected plain moves to keep length 2, got %d", engine.GetLength())
	}
}

func TestEngine_WallCollision(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	// Turning left from the top row heads straight into the wall
	pos, outcome := engine.Peek(TurnLeft)
	if outcome != OutcomeCollision || pos != engine.GetHead() {
		t.Errorf("Expected Peek to predict a wall collision, got %s at %+v", outcome, pos)
	}

	res, err := engine.Step(TurnLeft)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if res.Outcome != OutcomeCollision || !res.Done {
		t.Errorf("Expected terminal collision, got %+v", res)
	}
	if res.Score != 0 {
		t.Errorf("Expected score 0, got %d", res.Score)
	}
	if !engine.IsGameOver() {
		t.Error("Expected game over")
	}
	if engine.GetState().Message != "Crash! Score 0" {
		t.Errorf("Unexpected message %q", engine.GetState().Message)
	}

	before := engine.Grid()
	if _, err := engine.Step(Straight); !errors.Is(err, ErrGameOver) {
		t.Errorf("Expected ErrGameOver after terminal step, got %v", err)
	}
	if !before.Equal(engine.Grid()) {
		t.Error("Grid changed after the terminal step")
	}
}

func TestEngine_SelfCollision(t *testing.T) {
	noFood := false
	config := createTestConfig()
	config.SeedLength = 5
	config.SeedFood = &noFood
	engine, err := NewEngine(config)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	// Head at (4,0) heading right; three right turns curl back into the body.
	steps := []Action{TurnRight, TurnRight, TurnRight}
	var last *StepResult
	for _, a := range steps {
		last, err = engine.Step(a)
		if err != nil {
			t.Fatalf("Step failed: %v", err)
		}
	}
	if last.Outcome != OutcomeCollision {
		t.Fatalf("Expected self collision, got %s", last.Outcome)
	}
	if last.To != (Position{X: 3, Y: 0}) {
		t.Errorf("Expected collision at (3,0), got %+v", last.To)
	}
	if last.Score != 3 {
		t.Errorf("Expected score 3 for a five cell snake, got %d", last.Score)
	}
}

func TestEngine_SafeActions(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	safe := engine.SafeActions()
	if len(safe) != 2 {
		t.Fatalf("Expected 2 safe actions on the top row, got %v", safe)
	}
	for _, a := range safe {
		if a == TurnLeft {
			t.Error("Turning left into the top wall should not be safe")
		}
	}
}

func TestEngine_InvalidAction(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())
	before := engine.Grid()

	if _, err := engine.Step(Action(7)); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("Expected ErrInvalidAction, got %v", err)
	}
	if !before.Equal(engine.Grid()) {
		t.Error("Invalid action must not change the grid")
	}
}

func TestEngine_BoardFull(t *testing.T) {
	config := &GameConfig{Name: "tiny", Width: 3, Height: 2, RandomSeed: 1}
	engine, err := NewEngine(config)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	// Five segments and the food fill the 3x2 board; the head at (1,0)
	// faces left onto the food.
	grid := NewGrid(3, 2)
	grid.Cells[0] = []int{FoodCell, 5, 4}
	grid.Cells[1] = []int{1, 2, 3}
	if err := engine.SetState(&GameState{Grid: grid}); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}
	if engine.GetHeading() != Left {
		t.Fatalf("Expected heading left, got %s", engine.GetHeading())
	}
	if _, outcome := engine.Peek(Straight); outcome != OutcomeBoardFull {
		t.Errorf("Expected Peek to predict a full board, got %s", outcome)
	}

	res, err := engine.Step(Straight)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if res.Outcome != OutcomeBoardFull || !res.Done || !res.Grew {
		t.Errorf("Expected terminal board_full growth, got %+v", res)
	}
	if res.Score != config.MaxScore() {
		t.Errorf("Expected max score %d on a full board, got %d", config.MaxScore(), res.Score)
	}
	if _, ok := engine.GetFood(); ok {
		t.Error("Expected no food on a full board")
	}
	if !engine.IsGameOver() {
		t.Error("Expected game over")
	}
}

func TestEngine_Reset(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	engine.Step(TurnRight)
	engine.Step(TurnLeft)
	if engine.GetState().TotalSteps != 2 {
		t.Fatalf("Expected 2 steps before reset")
	}

	state := engine.Reset()
	if state.Head != (Position{X: 1, Y: 0}) {
		t.Errorf("Expected head back at (1,0), got %+v", state.Head)
	}
	if state.TotalSteps != 2 || len(state.StepHistory) != 2 {
		t.Errorf("Expected cumulative history to survive reset, got %d/%d", state.TotalSteps, len(state.StepHistory))
	}
	if state.CurrentStepsCount != 0 || len(state.CurrentSteps) != 0 {
		t.Errorf("Expected current segment cleared, got %d", state.CurrentStepsCount)
	}
}

func TestEngine_StateRoundTrip(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())
	for _, a := range []Action{Straight, TurnRight, Straight} {
		if _, err := engine.Step(a); err != nil {
			t.Fatalf("Step failed: %v", err)
		}
	}
	state := engine.GetState()

	restored, _ := NewEngine(createTestConfig())
	if err := restored.SetState(state); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}

	if restored.GetHead() != engine.GetHead() || restored.GetHeading() != engine.GetHeading() {
		t.Errorf("Head/heading mismatch after restore")
	}
	if !restored.Grid().Equal(engine.Grid()) {
		t.Errorf("Grid mismatch after restore:\n%s\nvs\n%s", restored.Grid(), engine.Grid())
	}

	// Both engines share the random source state, so they stay in lockstep
	for i := 0; i < 20 && !engine.IsGameOver(); i++ {
		safe := engine.SafeActions()
		if len(safe) == 0 {
			break
		}
		a, _ := engine.Step(safe[0])
		b, err := restored.Step(safe[0])
		if err != nil {
			t.Fatalf("Restored step failed: %v", err)
		}
		if a.To != b.To || a.Grew != b.Grew {
			t.Fatalf("Engines diverged at step %d", i)
		}
		if (a.Food == nil) != (b.Food == nil) || (a.Food != nil && *a.Food != *b.Food) {
			t.Fatalf("Food placement diverged at step %d", i)
		}
	}
}

func TestEngine_SetStateRejectsCorruptGrid(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())
	state := engine.GetState()
	state.Grid.Cells[0][0] = 5 // breaks the 1..n sequence

	if err := engine.SetState(state); !errors.Is(err, ErrCorruptGrid) {
		t.Errorf("Expected ErrCorruptGrid, got %v", err)
	}
	if err := engine.SetState(nil); err == nil {
		t.Error("Expected error for nil state")
	}
	if err := engine.SetState(&GameState{}); !errors.Is(err, ErrCorruptGrid) {
		t.Errorf("Expected ErrCorruptGrid for a state without a grid, got %v", err)
	}
}

func TestEngine_History(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())
	if engine.GetLastStep() != nil {
		t.Error("Expected no last step on a new engine")
	}

	engine.Step(TurnRight)
	last := engine.GetLastStep()
	if last == nil || last.StepNumber != 1 || last.Action != TurnRight {
		t.Errorf("Unexpected last step %+v", last)
	}
	if len(engine.GetStepHistory()) != 1 {
		t.Errorf("Expected 1 history entry, got %d", len(engine.GetStepHistory()))
	}
}

func TestEngine_BulkStep(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	results, err := engine.BulkStep([]Action{TurnLeft, Straight, Straight})
	if err != nil {
		t.Fatalf("BulkStep failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Expected bulk step to stop after the terminal step, got %d results", len(results))
	}
}

func TestEngine_SetConfig(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	bad := createTestConfig()
	bad.Name = ""
	if err := engine.SetConfig(bad); err == nil {
		t.Error("Expected invalid config to be rejected")
	}

	bigger := createTestConfig()
	bigger.Width, bigger.Height = 10, 10
	if err := engine.SetConfig(bigger); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	if g := engine.Grid(); g.Width != 10 || g.Height != 10 {
		t.Errorf("Expected 10x10 grid, got %dx%d", g.Width, g.Height)
	}
}

func TestEngine_StepGridMatchesStep(t *testing.T) {
	noFood := false
	config := createTestConfig()
	config.SeedFood = &noFood
	config.SeedLength = 3

	explicit, err := NewEngine(config)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	grid, err := NewEngine(config)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	actions := []Action{TurnRight, Straight, TurnLeft, Straight, TurnLeft, Straight, Straight}
	for i, a := range actions {
		want, err := explicit.Step(a)
		if err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
		got, err := grid.StepGrid(a)
		if err != nil {
			t.Fatalf("StepGrid %d: %v", i, err)
		}
		if got.Outcome != want.Outcome || got.To != want.To || got.Score != want.Score {
			t.Fatalf("Step %d: StepGrid gave %+v, Step gave %+v", i, got, want)
		}
		if !grid.Grid().Equal(explicit.Grid()) {
			t.Fatalf("Step %d: grids differ\n%s\nvs\n%s", i, grid.Grid(), explicit.Grid())
		}
		if want.Done {
			break
		}
	}
	if !grid.IsGameOver() {
		t.Error("Expected the grid stepper to reach the wall")
	}
}

func TestEngine_StepGridEatsAndFills(t *testing.T) {
	engine, err := NewEngine(createTestConfig())
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	res, err := engine.StepGrid(Straight)
	if err != nil {
		t.Fatalf("StepGrid failed: %v", err)
	}
	if !res.Grew || res.Food == nil {
		t.Fatalf("Expected growth with new food, got %+v", res)
	}
	if engine.GetLength() != 3 {
		t.Errorf("Expected length 3, got %d", engine.GetLength())
	}

	config := &GameConfig{Name: "tiny", Width: 3, Height: 2, RandomSeed: 1}
	full, err := NewEngine(config)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	grid := &Grid{Width: 3, Height: 2, Cells: [][]int{{FoodCell, 5, 4}, {1, 2, 3}}}
	if err := full.SetState(&GameState{Grid: grid}); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}
	res, err = full.StepGrid(Straight)
	if err != nil {
		t.Fatalf("StepGrid failed: %v", err)
	}
	if res.Outcome != OutcomeBoardFull || !res.Done || res.Score != config.MaxScore() {
		t.Errorf("Expected board_full with score %d, got %+v", config.MaxScore(), res)
	}
	if _, err := full.StepGrid(Straight); !errors.Is(err, ErrGameOver) {
		t.Errorf("Expected ErrGameOver after the board filled, got %v", err)
	}
}
