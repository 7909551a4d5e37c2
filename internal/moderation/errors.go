package moderation

import "errors"

var (
	// ErrNotFound is returned when the target of a moderation action does
	// not exist. The operation aborts before any mutation.
	ErrNotFound = errors.New("moderation target not found")

	// ErrUnauthorized is returned when the acting identity is not a
	// recognized administrator. The operation aborts before any mutation.
	ErrUnauthorized = errors.New("administrator privileges required")
)

// ValidationError reports rejected input on a moderation or content write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Message
}
