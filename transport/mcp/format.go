package mcp

import (
	"fmt"
	"strings"

	"github.com/wricardo/minisnakes/game/engine"
	"github.com/wricardo/minisnakes/game/service"
)

func formatSessionInfo(info *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\n", info.ID)
	fmt.Fprintf(&b, "Config: %s\n", info.ConfigName)
	fmt.Fprintf(&b, "Created: %s\n", info.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Last Accessed: %s\n", info.LastAccessedAt.Format("2006-01-02 15:04:05"))
	if info.Live {
		b.WriteString("Live: running\n")
	}
	if info.GameState != nil {
		b.WriteString("\n")
		b.WriteString(formatGameState(info.GameState))
	}
	return b.String()
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state"
	}

	var b strings.Builder
	if state.Grid != nil {
		b.WriteString(state.Grid.String())
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Score: %d\n", state.Score)
	fmt.Fprintf(&b, "Length: %d\n", state.Length)
	fmt.Fprintf(&b, "Head: (%d, %d) heading %s\n", state.Head.X, state.Head.Y, state.Heading)
	if state.Food != nil {
		fmt.Fprintf(&b, "Food: (%d, %d)\n", state.Food.X, state.Food.Y)
	} else {
		b.WriteString("Food: none\n")
	}
	fmt.Fprintf(&b, "Steps: %d\n", state.CurrentStepsCount)

	if state.GameOver {
		fmt.Fprintf(&b, "\nGAME OVER (%s)\n", state.Outcome)
	}
	if state.Message != "" {
		fmt.Fprintf(&b, "\n%s\n", state.Message)
	}
	return b.String()
}

// lookAhead predicts where each action moves the head. Any body cell,
// the tail included, counts as a collision.
func lookAhead(state *engine.GameState, a engine.Action) (engine.Position, string) {
	g := state.Grid
	next := g.Clamp(state.Head.Add(engine.Rotate(state.Heading, a)))
	switch {
	case next == state.Head:
		return next, "wall"
	case g.At(next) > 0:
		return next, "body"
	case g.At(next) == engine.FoodCell:
		return next, "food"
	}
	return next, "empty"
}

func formatLookAhead(state *engine.GameState) string {
	if state.Grid == nil {
		return "No board"
	}
	if state.GameOver {
		return fmt.Sprintf("Game is over (%s). Reset to play again.", state.Outcome)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Head (%d, %d) heading %s\n\n", state.Head.X, state.Head.Y, state.Heading)
	for _, a := range []engine.Action{engine.TurnLeft, engine.Straight, engine.TurnRight} {
		next, what := lookAhead(state, a)
		mark := "safe"
		if what == "wall" || what == "body" {
			mark = "DEADLY"
		}
		fmt.Fprintf(&b, "%-8s -> (%d, %d) %s [%s]\n", a, next.X, next.Y, what, mark)
	}
	return b.String()
}

func describeCell(state *engine.GameState, p engine.Position) string {
	v := state.Grid.At(p)
	switch {
	case v == engine.FoodCell:
		return fmt.Sprintf("Cell (%d, %d): food", p.X, p.Y)
	case v == engine.EmptyCell:
		return fmt.Sprintf("Cell (%d, %d): empty", p.X, p.Y)
	case p == state.Head:
		return fmt.Sprintf("Cell (%d, %d): snake head (value %d)", p.X, p.Y, v)
	case v == 1:
		return fmt.Sprintf("Cell (%d, %d): snake tail (value 1)", p.X, p.Y)
	}
	return fmt.Sprintf("Cell (%d, %d): snake body (value %d, %d steps from the tail)", p.X, p.Y, v, v-1)
}

func formatActions(actions []engine.Action) string {
	if len(actions) == 0 {
		return "none"
	}
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = a.String()
	}
	return strings.Join(names, ", ")
}

func formatStepResult(result *service.StepResult) string {
	var b strings.Builder
	if result.Step != nil {
		s := result.Step
		fmt.Fprintf(&b, "%s: (%d, %d) -> (%d, %d) %s\n", s.Action, s.From.X, s.From.Y, s.To.X, s.To.Y, s.Outcome)
		if s.Grew {
			fmt.Fprintf(&b, "Ate! Length is now %d\n", s.Length)
		}
	}
	if result.Message != "" {
		fmt.Fprintf(&b, "%s\n", result.Message)
	}
	if result.GameState != nil && !result.GameState.GameOver {
		fmt.Fprintf(&b, "Safe actions: %s\n", formatActions(result.SafeActions))
	}
	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatBulkStepResult(result *service.BulkStepResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Executed %d of %d steps\n", result.StepsExecuted, result.RequestedSteps)
	if result.StopReasonCode != "" {
		fmt.Fprintf(&b, "Stopped on step %d: %s (%s)\n", result.StoppedOnStep, result.StoppedReason, result.StopReasonCode)
	}
	fmt.Fprintf(&b, "Head: (%d, %d) -> (%d, %d)\n", result.StartHead.X, result.StartHead.Y, result.EndHead.X, result.EndHead.Y)
	fmt.Fprintf(&b, "Length: %d -> %d (score +%d)\n", result.StartLength, result.EndLength, result.ScoreDelta)
	if !result.GameOver {
		fmt.Fprintf(&b, "Safe actions: %s\n", formatActions(result.SafeActions))
	}
	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Step History (Page %d of %d, %d total steps):\n\n", history.Page, history.TotalPages, history.TotalSteps)
	for _, s := range history.Steps {
		grew := ""
		if s.Grew {
			grew = " +1"
		}
		fmt.Fprintf(&b, "#%d %s: (%d, %d) -> (%d, %d) %s, length %d%s\n",
			s.StepNumber, s.Action, s.FromPosition.X, s.FromPosition.Y,
			s.ToPosition.X, s.ToPosition.Y, s.Outcome, s.Length, grew)
	}
	if history.HasNext {
		fmt.Fprintf(&b, "\nMore steps on page %d\n", history.Page+1)
	}
	return b.String()
}
