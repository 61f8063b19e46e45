package core

import (
	"errors"
	"fmt"
)

// Action is the single-bit control applied to the simulator each tick.
type Action int

const (
	ActionNoop Action = iota // Do nothing this tick
	ActionFlap               // Apply the upward flap impulse
)

// ErrInvalidAction is returned when a raw value does not name an Action.
var ErrInvalidAction = errors.New("invalid action")

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNoop:
		return "Noop"
	case ActionFlap:
		return "Flap"
	default:
		return "Unknown"
	}
}

// Valid reports whether a is one of the two defined actions.
func (a Action) Valid() bool {
	return a == ActionNoop || a == ActionFlap
}

// ParseAction normalizes a raw integer (0 = noop, 1 = flap) into an Action.
// Any other value is rejected rather than coerced.
func ParseAction(v int) (Action, error) {
	a := Action(v)
	if !a.Valid() {
		return ActionNoop, fmt.Errorf("%w: %d", ErrInvalidAction, v)
	}
	return a, nil
}

// Command represents a platform-level intent, abstracted from physical key
// presses. Commands never reach the simulator; the terminal layer consumes them.
type Command int

const (
	CommandNone    Command = iota
	CommandFlap            // Space, W, Up - flap
	CommandPause           // P - pause/unpause
	CommandRestart         // R - restart after a crash
	CommandBack            // B, Esc - leave the current view
	CommandQuit            // Q, Ctrl+C - exit
)

// String returns a human-readable name for the command.
func (c Command) String() string {
	switch c {
	case CommandNone:
		return "None"
	case CommandFlap:
		return "Flap"
	case CommandPause:
		return "Pause"
	case CommandRestart:
		return "Restart"
	case CommandBack:
		return "Back"
	case CommandQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}

// InputFrame collects the commands triggered during one simulation tick.
type InputFrame struct {
	Commands map[Command]bool
}

// NewInputFrame creates an empty input frame.
func NewInputFrame() InputFrame {
	return InputFrame{
		Commands: make(map[Command]bool),
	}
}

// Set marks a command as triggered for this frame.
func (f *InputFrame) Set(c Command) {
	if f.Commands == nil {
		f.Commands = make(map[Command]bool)
	}
	f.Commands[c] = true
}

// Has returns true if the given command was triggered this frame.
func (f InputFrame) Has(c Command) bool {
	if f.Commands == nil {
		return false
	}
	return f.Commands[c]
}

// Action folds the frame into the simulator action for this tick.
func (f InputFrame) Action() Action {
	if f.Has(CommandFlap) {
		return ActionFlap
	}
	return ActionNoop
}

// Clear resets all commands for the next frame.
func (f *InputFrame) Clear() {
	for k := range f.Commands {
		delete(f.Commands, k)
	}
}
