package domain

import "errors"

// Domain errors represent error conditions in the bulkd domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrInvalidHandle is returned when a handle does not refer to a live channel.
	ErrInvalidHandle = errors.New("bulkd: invalid handle")

	// ErrInvalidCapacity is returned when a channel is requested with a non-positive bulk size.
	ErrInvalidCapacity = errors.New("bulkd: invalid capacity")

	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("bulkd: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("bulkd: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("bulkd: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("bulkd: invalid configuration")
)
