package worker

import (
	"github.com/okian/drivemind/pkg/logger"
)

// Option applies a configuration option to the Saver.
type Option func(*Saver)

// WithName sets the saver name for identification and logging.
func WithName(name string) Option {
	return func(w *Saver) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the saver.
func WithLogger(logger logger.Logger) Option {
	return func(w *Saver) {
		if logger != nil {
			w.logger = logger
		}
	}
}
