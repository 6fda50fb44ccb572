// Package worker runs a handler over the items of a queue, one at a time.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/frbviewer/pkg/logger"
	"github.com/okian/frbviewer/pkg/metrics"
)

// Handler processes one item. Errors are logged; the loop keeps going.
type Handler[T any] func(ctx context.Context, item T) error

// Queue defines how the worker receives items.
type Queue[T any] interface {
	Dequeue(ctx context.Context) <-chan T
}

// Worker processes items serially until its context ends, Shutdown is called
// or the queue closes.
type Worker[T any] struct {
	queue  Queue[T]
	handle Handler[T]
	name   string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// New creates a worker with configuration options.
func New[T any](q Queue[T], handle Handler[T], opts ...Option) *Worker[T] {
	cfg := config{name: "worker", logger: logger.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Worker[T]{
		queue:    q,
		handle:   handle,
		name:     cfg.name,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   cfg.logger.Named(cfg.name),
	}
}

// Run starts the worker loop and blocks until it stops.
func (w *Worker[T]) Run(ctx context.Context) {
	defer close(w.done)

	items := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case item, ok := <-items:
			if !ok {
				return
			}
			w.process(ctx, item)
		}
	}
}

// Done is closed when Run returns.
func (w *Worker[T]) Done() <-chan struct{} { return w.done }

// Shutdown stops the loop and waits for the item in progress.
func (w *Worker[T]) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *Worker[T]) process(ctx context.Context, item T) {
	start := time.Now()
	err := w.handle(ctx, item)
	if err == nil {
		return
	}
	metrics.RecordErrorByComponent(w.name, "handler_error")
	metrics.RecordErrorLatency(w.name, "handler_error", float64(time.Since(start).Milliseconds()))
	w.logger.Error(ctx, "error processing item", logger.Error(err))
}
