// Package engine provides the core game logic for MiniSnakes.
//
// The whole game lives in one numeric grid:
//   - 0 is an empty cell
//   - -1 is the food
//   - 1..n are the body segments, the tail holds 1 and the head holds n
//
// Two steppers implement the same rules:
//
// Advance works on the grid alone. It infers the heading from the two
// largest cells, rotates it by the action (left, straight, right map to the
// quarter-turn matrix raised to 3, 4 and 5) and updates the grid in place.
//
// Engine keeps the body as an ordered position list with an explicit
// heading and a free-cell index for food placement, and renders the same
// grid on demand. Sessions use Engine; Advance backs the "grid" encoding.
//
// Usage:
//
//	eng, err := engine.NewEngine(engine.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	res, err := eng.Step(engine.TurnRight)
//	if res.Done {
//		fmt.Println("Score:", res.Score)
//	}
//
// Game Rules:
//
// A step moving into a wall or into any body cell ends the game with a
// score of length-2. Eating food grows the snake by one and places new food
// on a uniformly random empty cell; if no empty cell is left the board is
// full and the game ends as a win.
package engine
