package catalog

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrNotFound       = errors.New("scenario not found")
	ErrInvalidCatalog = errors.New("invalid scenario catalog")
)
