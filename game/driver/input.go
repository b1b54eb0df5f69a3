package driver

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/wricardo/minisnakes/game/engine"
)

// ReadKeys feeds lines from r into slot until r is exhausted or ctx is
// cancelled. Each line is parsed as an action name; anything unparsable is
// treated as a raw key press.
func ReadKeys(ctx context.Context, r io.Reader, slot *engine.ActionSlot) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		a, err := engine.ParseAction(line)
		if err != nil {
			a = engine.ActionFromKey(line)
		}
		slot.Push(a)
	}
	return scanner.Err()
}

// Autopilot steers toward the food while avoiding immediate collisions. It
// reads the board from the stepper it is attached to.
type Autopilot struct {
	stepper Stepper
}

// NewAutopilot creates an autopilot for s.
func NewAutopilot(s Stepper) *Autopilot {
	return &Autopilot{stepper: s}
}

// Take picks the safe action that ends closest to the food. Ties keep the
// order left, straight, right. With no safe action it goes straight.
func (p *Autopilot) Take() engine.Action {
	g := p.stepper.Grid()
	head, neck, ok := g.TopTwo()
	if !ok {
		return engine.Straight
	}
	heading := head.Sub(neck)

	var target *engine.Position
	if food := g.FoodPositions(); len(food) > 0 {
		target = &food[0]
	}

	best, bestDist := engine.Straight, -1
	for _, a := range []engine.Action{engine.TurnLeft, engine.Straight, engine.TurnRight} {
		next := g.Clamp(head.Add(engine.Rotate(heading, a)))
		if next == head || g.At(next) > 0 {
			continue
		}
		dist := 0
		if target != nil {
			dist = abs(next.X-target.X) + abs(next.Y-target.Y)
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = a, dist
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
