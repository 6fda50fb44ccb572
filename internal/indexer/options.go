package indexer

import (
	"runtime"

	"github.com/okian/frbviewer/pkg/logger"
)

// Option configures a Builder.
type Option func(*Builder)

// WithHostRoot attaches host-analysis images found under root.
func WithHostRoot(root string) Option {
	return func(b *Builder) {
		b.hostRoot = root
	}
}

// WithConcurrency bounds the number of year directories scanned at once.
func WithConcurrency(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

func defaultConcurrency() int {
	return max(1, runtime.NumCPU())
}
