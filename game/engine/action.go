package engine

import (
	"fmt"
	"strings"
)

// Action is the per-step steering input. Its integer value is part of the
// rotation model: the heading is rotated by the quarter-turn matrix raised
// to the power 3+action.
type Action int

const (
	TurnLeft  Action = 0
	Straight  Action = 1
	TurnRight Action = 2
)

// Valid reports whether a is one of the three steering actions.
func (a Action) Valid() bool {
	return a >= TurnLeft && a <= TurnRight
}

func (a Action) String() string {
	switch a {
	case TurnLeft:
		return "left"
	case Straight:
		return "straight"
	case TurnRight:
		return "right"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// MarshalText encodes the action by name.
func (a Action) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAction, int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText accepts every spelling ParseAction accepts.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAction translates a user supplied token into an Action. Besides the
// action names it accepts the numeric codes and the a/d key bindings; an
// empty token means "keep going straight".
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "straight", "s", "1", "forward", "w":
		return Straight, nil
	case "left", "l", "0", "a":
		return TurnLeft, nil
	case "right", "r", "2", "d":
		return TurnRight, nil
	}
	return Straight, fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

// ActionFromKey maps a raw key press to an action. Unbound keys resolve to
// Straight, matching the a/d binding of the keyboard front end.
func ActionFromKey(key string) Action {
	switch key {
	case "a":
		return TurnLeft
	case "d":
		return TurnRight
	}
	return Straight
}

// matrix is a 2x2 integer matrix acting on column vectors (DX, DY).
type matrix [2][2]int

// quarterTurn rotates a heading by 90 degrees clockwise on a grid whose Y
// axis grows downward.
var quarterTurn = matrix{{0, -1}, {1, 0}}

var identity = matrix{{1, 0}, {0, 1}}

func (m matrix) mul(o matrix) matrix {
	var r matrix
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			r[i][j] = m[i][0]*o[0][j] + m[i][1]*o[1][j]
		}
	}
	return r
}

func (m matrix) pow(n int) matrix {
	r := identity
	for i := 0; i < n; i++ {
		r = r.mul(m)
	}
	return r
}

func (m matrix) apply(d Direction) Direction {
	return Direction{
		DX: m[0][0]*d.DX + m[0][1]*d.DY,
		DY: m[1][0]*d.DX + m[1][1]*d.DY,
	}
}

// rotations caches quarterTurn^(3+a) for each valid action.
var rotations = [3]matrix{
	quarterTurn.pow(3 + int(TurnLeft)),
	quarterTurn.pow(3 + int(Straight)),
	quarterTurn.pow(3 + int(TurnRight)),
}

// Rotate returns the heading after applying action a.
func Rotate(heading Direction, a Action) Direction {
	if !a.Valid() {
		return heading
	}
	return rotations[a].apply(heading)
}
