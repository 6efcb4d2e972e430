package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrRunNotFound = errors.New("run not found")
	ErrNotStarted  = errors.New("service not started")
)
