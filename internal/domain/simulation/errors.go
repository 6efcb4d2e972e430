package simulation

import "errors"

// Sentinel kinds for runner errors.
var (
	ErrInvalidOption = errors.New("option does not belong to the pending decision")
	ErrNotRunning    = errors.New("simulation is not running")
)
