package scheduler

import "errors"

var (
	// ErrCycleAlreadyRunning is returned when a sync cycle for a marketplace
	// is requested while another instance holds the cycle lease.
	ErrCycleAlreadyRunning = errors.New("integration: sync cycle already running")

	// ErrInvalidWindow is returned when a manually requested polling window
	// is empty or inverted.
	ErrInvalidWindow = errors.New("integration: invalid order window")
)
