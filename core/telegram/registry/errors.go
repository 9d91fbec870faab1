package registry

import "errors"

// Registration errors are surfaced synchronously at wiring time so that a
// misconfigured bot fails before it starts serving traffic.
var (
	// ErrNilHandler reports a registration without a handler function.
	ErrNilHandler = errors.New("nil handler function")
	// ErrMissingName reports metadata without a handler name.
	ErrMissingName = errors.New("missing handler name")
	// ErrMissingType reports metadata without a handler type.
	ErrMissingType = errors.New("missing handler type")
	// ErrMissingCommand reports a command handler without a command name.
	ErrMissingCommand = errors.New("command handlers must specify a command")
	// ErrUnexpectedCommand reports a command name on a non-command handler.
	ErrUnexpectedCommand = errors.New("command is only valid for command handlers")
	// ErrInvalidCommandName reports a command or alias that does not match
	// the accepted name pattern.
	ErrInvalidCommandName = errors.New("invalid command name")
	// ErrDuplicateCommand reports a command or alias already claimed by a
	// different handler.
	ErrDuplicateCommand = errors.New("command already registered")
	// ErrDuplicateHandler reports an identity that is already registered.
	ErrDuplicateHandler = errors.New("handler already registered")
)
