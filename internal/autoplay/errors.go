package autoplay

import "errors"

var (
	// ErrUnknownPolicy is returned by ParsePolicy for names it does not know.
	ErrUnknownPolicy = errors.New("unknown policy")

	// ErrStalled is returned when a run does not finish within the step budget.
	ErrStalled = errors.New("run stalled")

	// ErrAbandoned is returned when a run ends without a result.
	ErrAbandoned = errors.New("run abandoned")

	// ErrRemote wraps error replies from the HTTP API.
	ErrRemote = errors.New("remote error")
)
