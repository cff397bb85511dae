package queue

import "errors"

var (
	// ErrEmpty is the normal no-task condition in worker mode.
	ErrEmpty = errors.New("no task available")
	// ErrInvalidTask is returned for undecodable or malformed task bodies.
	ErrInvalidTask = errors.New("invalid task")
	// ErrInvalidCut is returned for impossible range partitionings.
	ErrInvalidCut = errors.New("invalid cut")
	// ErrNoLease is returned when acking or extending a task that was
	// never pulled.
	ErrNoLease = errors.New("task holds no lease")
)
