package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the realtime core. Callers check them with errors.Is;
// none of them is fatal to the process.
var (
	ErrNotConnected    = errors.New("client is not connected")
	ErrUnknownRoom     = errors.New("room does not exist")
	ErrInvalidRoom     = errors.New("room name cannot be empty")
	ErrUnknownCategory = errors.New("unknown update category")
	ErrInvalidAction   = errors.New("action not recognized for category")
	ErrUnknownSignal   = errors.New("unknown client signal")
	ErrInvalidPayload  = errors.New("update data must be a JSON object")
)

// BroadcastError reports a failed hand-off of an update to the transport.
// Registry and room state are never rolled back when it occurs.
type BroadcastError struct {
	Category Category
	Action   string
	Room     string
	Err      error
}

func (e *BroadcastError) Error() string {
	if e.Room != "" {
		return fmt.Sprintf("broadcast %s/%s to room %q: %v", e.Category, e.Action, e.Room, e.Err)
	}
	return fmt.Sprintf("broadcast %s/%s: %v", e.Category, e.Action, e.Err)
}

// Unwrap returns the underlying cause.
func (e *BroadcastError) Unwrap() error {
	return e.Err
}
