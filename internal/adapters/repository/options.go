package repository

import "strings"

// DefaultKey is the record name used when no key is configured.
const DefaultKey = "drivemind-storage"

type settings struct {
	key string
}

func newSettings(opts []Option) settings {
	s := settings{key: DefaultKey}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option applies a configuration option to a store.
type Option func(*settings)

// WithKey names the persisted record. Several keys may share one file or
// database.
func WithKey(key string) Option {
	return func(s *settings) {
		if k := strings.TrimSpace(key); k != "" {
			s.key = k
		}
	}
}
