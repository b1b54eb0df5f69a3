package main

import (
	"github.com/wricardo/minisnakes/game/engine"
)

var actions = []engine.Action{engine.TurnLeft, engine.Straight, engine.TurnRight}

var directions = []engine.Direction{engine.Up, engine.Down, engine.Left, engine.Right}

// Strategy picks actions from a game state: the shortest path to the food
// when there is one, otherwise the safe action that leaves the most room.
type Strategy struct{}

// turnFor returns the action that turns heading into dir.
func turnFor(heading, dir engine.Direction) (engine.Action, bool) {
	for _, a := range actions {
		if engine.Rotate(heading, a) == dir {
			return a, true
		}
	}
	return engine.Straight, false
}

// pathToFood runs a BFS from the head to the food over empty cells. It
// returns the directions to take, or nil when the food is unreachable.
func pathToFood(g *engine.Grid, head engine.Position, food engine.Position) []engine.Direction {
	type node struct {
		prev engine.Position
		dir  engine.Direction
	}
	seen := map[engine.Position]node{head: {}}
	queue := []engine.Position{head}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current == food {
			var path []engine.Direction
			for p := food; p != head; p = seen[p].prev {
				path = append(path, seen[p].dir)
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path
		}

		for _, d := range directions {
			next := current.Add(d)
			if _, ok := seen[next]; ok || !g.InBounds(next) || g.At(next) > 0 {
				continue
			}
			seen[next] = node{prev: current, dir: d}
			queue = append(queue, next)
		}
	}
	return nil
}

// room counts the cells reachable from start without crossing the body.
func room(g *engine.Grid, start engine.Position) int {
	seen := map[engine.Position]bool{start: true}
	queue := []engine.Position{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, d := range directions {
			next := current.Add(d)
			if seen[next] || !g.InBounds(next) || g.At(next) > 0 {
				continue
			}
			seen[next] = true
			queue = append(queue, next)
		}
	}
	return len(seen)
}

// safest returns the non-colliding action with the most room after it.
// Ties keep the order left, straight, right. ok is false when every
// action collides.
func safest(state *engine.GameState) (engine.Action, bool) {
	g := state.Grid
	best, bestRoom := engine.Straight, -1
	for _, a := range actions {
		next := g.Clamp(state.Head.Add(engine.Rotate(state.Heading, a)))
		if next == state.Head || g.At(next) > 0 {
			continue
		}
		if r := room(g, next); r > bestRoom {
			best, bestRoom = a, r
		}
	}
	return best, bestRoom >= 0
}

// NextActions returns up to limit actions to send in one bulk step. Paths to
// the food are followed as far as limit allows; without one a single safe
// action is returned.
func (s *Strategy) NextActions(state *engine.GameState, limit int) []engine.Action {
	if state == nil || state.Grid == nil || state.GameOver {
		return nil
	}
	if limit < 1 {
		limit = 1
	}

	if state.Food != nil {
		if path := pathToFood(state.Grid, state.Head, *state.Food); len(path) > 0 {
			heading := state.Heading
			var out []engine.Action
			for _, d := range path {
				a, ok := turnFor(heading, d)
				if !ok || len(out) == limit {
					break
				}
				out = append(out, a)
				heading = d
			}
			if len(out) > 0 {
				return out
			}
		}
	}

	a, _ := safest(state)
	return []engine.Action{a}
}
