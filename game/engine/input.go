package engine

import "sync/atomic"

// ActionSlot hands the latest steering input from an input source to the
// step loop. Pushes overwrite each other; Take consumes the pending action
// and resets the slot to Straight, so a tick without input goes straight.
type ActionSlot struct {
	v atomic.Int32
}

// NewActionSlot returns a slot holding Straight.
func NewActionSlot() *ActionSlot {
	s := &ActionSlot{}
	s.v.Store(int32(Straight))
	return s
}

// Push records a as the action for the next step.
func (s *ActionSlot) Push(a Action) {
	if !a.Valid() {
		return
	}
	s.v.Store(int32(a))
}

// Take returns the pending action and resets the slot to Straight.
func (s *ActionSlot) Take() Action {
	return Action(s.v.Swap(int32(Straight)))
}

// Peek returns the pending action without consuming it.
func (s *ActionSlot) Peek() Action {
	return Action(s.v.Load())
}
