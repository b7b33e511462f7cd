package planner

import "errors"

// Error kinds surfaced to the calling layer. Callers match them with
// errors.Is; returned errors wrap them with context.
var (
	// ErrNotFound means an event, option, item or member reference does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the actor lacks the required role.
	ErrForbidden = errors.New("forbidden")

	// ErrPollingClosed means a poll mutation was attempted after the deadline
	// passed or once the event left POLLING.
	ErrPollingClosed = errors.New("polling closed")

	// ErrInvalidReference means a bill item assignee is not a member of the event.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrValidation means malformed input was rejected before any computation.
	ErrValidation = errors.New("validation error")
)
