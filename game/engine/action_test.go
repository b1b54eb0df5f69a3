package engine

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotate(t *testing.T) {
	tests := []struct {
		heading Direction
		action  Action
		want    Direction
	}{
		{Right, Straight, Right},
		{Right, TurnRight, Down},
		{Right, TurnLeft, Up},
		{Down, TurnRight, Left},
		{Down, TurnLeft, Right},
		{Left, TurnRight, Up},
		{Left, TurnLeft, Down},
		{Up, TurnRight, Right},
		{Up, TurnLeft, Left},
		{Up, Straight, Up},
	}

	for _, tt := range tests {
		t.Run(tt.heading.String()+"/"+tt.action.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Rotate(tt.heading, tt.action))
		})
	}
}

func TestRotate_FourTurnsComeBack(t *testing.T) {
	for _, a := range []Action{TurnLeft, TurnRight} {
		d := Right
		for i := 0; i < 4; i++ {
			d = Rotate(d, a)
			assert.True(t, d.IsUnit())
		}
		assert.Equal(t, Right, d, "four %s turns", a)
	}
}

func TestRotate_InvalidActionKeepsHeading(t *testing.T) {
	assert.Equal(t, Left, Rotate(Left, Action(-1)))
	assert.Equal(t, Left, Rotate(Left, Action(7)))
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		in   string
		want Action
	}{
		{"", Straight},
		{"straight", Straight},
		{" Forward ", Straight},
		{"1", Straight},
		{"left", TurnLeft},
		{"L", TurnLeft},
		{"0", TurnLeft},
		{"a", TurnLeft},
		{"right", TurnRight},
		{"2", TurnRight},
		{"d", TurnRight},
	}
	for _, tt := range tests {
		got, err := ParseAction(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}

	for _, bad := range []string{"3", "up", "backwards", "-1"} {
		_, err := ParseAction(bad)
		assert.ErrorIs(t, err, ErrInvalidAction, "input %q", bad)
	}
}

func TestActionFromKey(t *testing.T) {
	assert.Equal(t, TurnLeft, ActionFromKey("a"))
	assert.Equal(t, TurnRight, ActionFromKey("d"))
	assert.Equal(t, Straight, ActionFromKey("w"))
	assert.Equal(t, Straight, ActionFromKey(""))
}

func TestAction_JSON(t *testing.T) {
	var req struct {
		Actions []Action `json:"actions"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"actions":["left","1","d"]}`), &req))
	assert.Equal(t, []Action{TurnLeft, Straight, TurnRight}, req.Actions)

	out, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"actions":["left","straight","right"]}`, string(out))

	_, err = json.Marshal(Action(5))
	assert.Error(t, err)
}

func TestActionSlot(t *testing.T) {
	s := NewActionSlot()
	assert.Equal(t, Straight, s.Peek())

	s.Push(TurnLeft)
	s.Push(TurnRight)
	assert.Equal(t, TurnRight, s.Peek(), "later push wins")
	assert.Equal(t, TurnRight, s.Take())
	assert.Equal(t, Straight, s.Take(), "slot resets after a take")

	s.Push(Action(9))
	assert.Equal(t, Straight, s.Take(), "invalid actions are dropped")
}

func TestActionSlot_Concurrent(t *testing.T) {
	s := NewActionSlot()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Push(Action((i + j) % 3))
				_ = s.Take()
			}
		}(i)
	}
	wg.Wait()
	assert.True(t, s.Take().Valid())
}
