package plugin

import "errors"

var (
	// ErrInvalidID indicates an identifier below 1.
	ErrInvalidID = errors.New("invalid id")
	// ErrIndexOutOfRange indicates an instance index past the end of its chain.
	ErrIndexOutOfRange = errors.New("plugin instance index out of range")
	// ErrDryWetOutOfRange indicates a dry/wet mix outside [0,100].
	ErrDryWetOutOfRange = errors.New("dry/wet must be between 0 and 100")
	// ErrUnknownPlugin indicates a plugin id missing from the catalog.
	ErrUnknownPlugin = errors.New("unknown plugin")
	// ErrUnknownProgram indicates a program id missing from the catalog.
	ErrUnknownProgram = errors.New("unknown program")
	// ErrInvalidInput indicates invalid input for catalog operations.
	ErrInvalidInput = errors.New("invalid plugin input")
)
