package event

import "errors"

// Sentinel errors for emitter misuse.
var (
	// ErrEmitterClosed is returned when subscribing to a closed emitter.
	ErrEmitterClosed = errors.New("emitter is closed")

	// ErrNilHandler is returned when a nil handler is provided.
	ErrNilHandler = errors.New("handler cannot be nil")
)
