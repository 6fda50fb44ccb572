package app

import (
	"errors"
	"fmt"
)

var (
	// ErrUserAborted is returned by LoadAll when the size confirmation is declined.
	ErrUserAborted = errors.New("bulk load declined")

	// ErrInvalidPageRequest is returned for a negative offset or a limit below one.
	ErrInvalidPageRequest = errors.New("invalid page request")

	// ErrIncompleteBulkLoad is returned when the pages of a bulk load do not
	// add up to the pre-flight total.
	ErrIncompleteBulkLoad = errors.New("bulk load incomplete")

	// ErrQueueFull is returned by Dispatch when the action queue is full.
	ErrQueueFull = errors.New("action queue full")

	// ErrStopped is returned by Dispatch after Shutdown.
	ErrStopped = errors.New("controller stopped")
)

// LoadError reports a failed load of the event index or the candidate store.
type LoadError struct {
	Op  string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
