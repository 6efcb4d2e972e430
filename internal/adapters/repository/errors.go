package repository

import "errors"

// Sentinel kinds for state store errors.
var (
	ErrCorrupt        = errors.New("stored state is corrupt")
	ErrClosed         = errors.New("store closed")
	ErrUnknownBackend = errors.New("unknown storage backend")
)
