package engine

import "errors"

var (
	ErrGridTooSmall   = errors.New("grid too small for the initial snake")
	ErrBoardFull      = errors.New("board full: no empty cell left for food")
	ErrGameOver       = errors.New("game is over")
	ErrInvalidAction  = errors.New("invalid action")
	ErrCorruptGrid    = errors.New("corrupt grid")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrNoRandomSource = errors.New("random source required")
)
