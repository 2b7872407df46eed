package domain

// LoopState is the interactive loop's position in its state machine.
type LoopState string

const (
	StateAwaitingInput LoopState = "awaiting_input"
	StateDispatching   LoopState = "dispatching"
	StateStopped       LoopState = "stopped"
)

// Terminal reports whether no further input will be processed.
func (s LoopState) Terminal() bool {
	return s == StateStopped
}
