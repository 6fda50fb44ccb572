package app

import (
	"context"

	"github.com/okian/frbviewer/pkg/logger"
)

// Option applies a configuration option to the Controller.
type Option func(*Controller)

// WithLogger sets a custom logger for the controller.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithQueueSize bounds the action queue.
func WithQueueSize(size int) Option {
	return func(c *Controller) {
		if size > 0 {
			c.queueSize = size
		}
	}
}

// WithPageSize sets the initial page size.
func WithPageSize(size int) Option {
	return func(c *Controller) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithBatchSize sets the page size of bulk loads.
func WithBatchSize(size int) Option {
	return func(c *Controller) {
		if size > 0 {
			c.bulk.BatchSize = size
		}
	}
}

// WithConfirmAbove sets the row count above which a bulk load asks first.
func WithConfirmAbove(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.bulk.ConfirmAbove = n
		}
	}
}

// WithConfirmer sets the bulk-load size prompt. Without one, large bulk
// loads are declined.
func WithConfirmer(fn func(ctx context.Context, total int) bool) Option {
	return func(c *Controller) {
		c.bulk.Confirm = fn
	}
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(c *Controller) {
		if id != "" {
			c.session = id
		}
	}
}

// WithObserver is called with every new state, from the controller loop.
func WithObserver(fn func(State)) Option {
	return func(c *Controller) {
		c.observer = fn
	}
}
