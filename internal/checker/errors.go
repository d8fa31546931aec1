package checker

import (
	"errors"
	"fmt"
)

// ErrMissingState reports a chain-ledger read of a key that was never
// written in this task lineage. It is always recoverable: the data of a
// previous round is gone, the next round starts fresh.
var ErrMissingState = errors.New("missing state")

// MumbleError is the uniform fault the orchestration layer understands
// for "service behaved incorrectly". It wraps any transport error,
// unexpected status code or malformed response observed during a phase;
// the layer above does not distinguish between those causes.
type MumbleError struct {
	// Message is the operator-facing fault description.
	Message string
	// Err is the underlying cause, if any.
	Err error
}

func (e *MumbleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *MumbleError) Unwrap() error { return e.Err }

// Mumble wraps err into a MumbleError with the given message.
func Mumble(message string, err error) *MumbleError {
	return &MumbleError{Message: message, Err: err}
}
