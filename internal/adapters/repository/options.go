package repository

import "github.com/okian/frbviewer/pkg/logger"

// Default catalog configuration constants.
const defaultMaxPageLimit = 10_000

type options struct {
	maxPageLimit int
	logger       logger.Logger
}

// Option applies a configuration option to a Store or Registry.
type Option func(*options)

// WithMaxPageLimit caps the page size served by Candidates.
func WithMaxPageLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxPageLimit = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{maxPageLimit: defaultMaxPageLimit, logger: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
