package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/frbviewer/internal/adapters/mq/queue"
	"github.com/okian/frbviewer/internal/adapters/mq/worker"
	"github.com/okian/frbviewer/internal/domain/model"
	"github.com/okian/frbviewer/pkg/logger"
	"github.com/okian/frbviewer/pkg/metrics"
)

// Default controller configuration constants.
const (
	defaultQueueSize = 1024
	defaultPageSize  = 100
)

// Controller owns a session's State. Actions are applied one at a time by a
// single loop goroutine; fetches run concurrently and post their completion
// back as actions, so completions always reduce against the latest state.
// In-flight fetches are never cancelled by newer ones.
type Controller struct {
	backend Backend
	queue   *queue.InMemoryQueue[Action]
	loop    *worker.Worker[Action]

	// Configuration
	queueSize int
	pageSize  int
	bulk      BulkOptions
	session   string
	observer  func(State)

	mu    sync.RWMutex
	state State

	// busy counts queued actions plus running fetches
	busyMu sync.Mutex
	busy   int
	idle   chan struct{}

	cancel  context.CancelFunc
	effects sync.WaitGroup

	logger logger.Logger
}

// NewController creates a controller for a backend. Call Start to run it.
func NewController(b Backend, opts ...Option) *Controller {
	c := &Controller{
		backend:   b,
		queueSize: defaultQueueSize,
		pageSize:  defaultPageSize,
		bulk:      BulkOptions{BatchSize: DefaultBatchSize, ConfirmAbove: DefaultConfirmAbove},
		session:   uuid.NewString(),
		logger:    logger.Nop(),
		idle:      make(chan struct{}),
	}
	close(c.idle)

	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.Named("controller").With(logger.String("session", c.session))
	c.state = NewState(c.pageSize, model.PerEventAll)
	c.queue = queue.NewInMemoryQueue[Action](
		queue.WithCapacity(c.queueSize),
		queue.WithSizeObserver(metrics.UpdateActionQueueSize),
		queue.WithDropObserver(metrics.RecordActionDropped),
	)
	c.loop = worker.New[Action](c.queue, c.apply, worker.WithName("controller-loop"), worker.WithLogger(c.logger))
	return c
}

// Session returns the session id.
func (c *Controller) Session() string { return c.session }

// Start runs the controller loop until ctx ends or Shutdown is called.
func (c *Controller) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	go c.loop.Run(runCtx)
}

// Dispatch queues an action without blocking.
func (c *Controller) Dispatch(ctx context.Context, a Action) error {
	c.begin()
	if !c.queue.Enqueue(ctx, a) {
		c.end()
		if c.queue.IsClosed() {
			return ErrStopped
		}
		return fmt.Errorf("%w: %s", ErrQueueFull, a.Kind())
	}
	metrics.RecordActionDispatched(a.Kind())
	return nil
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// WaitIdle blocks until no action is queued and no fetch is running.
func (c *Controller) WaitIdle(ctx context.Context) error {
	c.busyMu.Lock()
	if c.busy == 0 {
		c.busyMu.Unlock()
		return nil
	}
	idle := c.idle
	c.busyMu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting actions, stops the loop and cancels running
// fetches.
func (c *Controller) Shutdown(ctx context.Context) error {
	if err := c.queue.Close(); err != nil {
		return err
	}

	c.mu.RLock()
	cancel := c.cancel
	c.mu.RUnlock()
	if cancel == nil {
		return nil
	}

	err := c.loop.Shutdown(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		c.effects.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("waiting for fetches: %w", ctx.Err())
	}
	return err
}

// apply is the loop handler: reduce, publish, then start the effects.
func (c *Controller) apply(ctx context.Context, a Action) error {
	defer c.end()

	c.mu.Lock()
	next, effects := Reduce(c.state, a)
	c.state = next
	c.mu.Unlock()

	c.logger.Debug(ctx, "action applied", logger.String("kind", a.Kind()), logger.Int("effects", len(effects)))
	if c.observer != nil {
		c.observer(next)
	}
	for _, eff := range effects {
		c.run(ctx, eff)
	}
	return nil
}

func (c *Controller) run(ctx context.Context, eff Effect) {
	c.begin()
	c.effects.Add(1)
	go func() {
		defer c.effects.Done()
		defer c.end()

		a := c.execute(ctx, eff)
		c.begin()
		if err := c.queue.Put(ctx, a); err != nil {
			c.end()
			c.logger.Warn(ctx, "dropped completion", logger.String("kind", a.Kind()), logger.Error(err))
		}
	}()
}

// execute performs one fetch and turns its outcome into an action.
func (c *Controller) execute(ctx context.Context, eff Effect) Action {
	start := time.Now()
	switch e := eff.(type) {
	case FetchEvents:
		events, err := LoadEvents(ctx, c.backend)
		if err != nil {
			c.logger.Warn(ctx, "event index load failed", logger.Error(err))
			return EventsFailed{Err: err}
		}
		c.logger.Info(ctx, "event index loaded", logger.Int("events", len(events)), logger.Duration("took", time.Since(start)))
		return EventsLoaded{Events: events}

	case FetchCandidatePage:
		page, err := FetchPage(ctx, c.backend, e.Offset, e.Limit, e.Mode.TopN())
		if err != nil {
			c.logger.Warn(ctx, "candidate page load failed", logger.Int("offset", e.Offset), logger.Error(err))
			return PageFailed{Err: err}
		}
		return PageLoaded{Page: page}

	case BulkLoad:
		opts := c.bulk
		opts.TopN = e.Mode.TopN()
		rows, err := LoadAll(ctx, c.backend, opts)
		if err != nil {
			c.logger.Warn(ctx, "bulk load did not complete", logger.String("mode", string(e.Mode)), logger.Error(err))
			return BulkFailed{Err: err}
		}
		c.logger.Info(ctx, "bulk load complete",
			logger.String("mode", string(e.Mode)), logger.Int("rows", len(rows)), logger.Duration("took", time.Since(start)))
		return BulkLoaded{Rows: rows, Mode: e.Mode, Epoch: e.Epoch}

	case FetchSources:
		src, err := c.backend.DataSources(ctx)
		if err != nil {
			return SourcesFailed{Err: err}
		}
		return SourcesLoaded{Sources: src}

	case ChangeSource:
		res, err := c.backend.SwitchSource(ctx, e.Name)
		if err != nil {
			c.logger.Warn(ctx, "source switch failed", logger.String("source", e.Name), logger.Error(err))
			return SwitchFailed{Name: e.Name, Err: err}
		}
		c.logger.Info(ctx, "source switched", logger.String("source", res.Active), logger.Int("events", res.EventCount))
		return SourceSwitched{Result: res}
	}
	panic(fmt.Sprintf("app: unknown effect %T", eff))
}

func (c *Controller) begin() {
	c.busyMu.Lock()
	defer c.busyMu.Unlock()
	if c.busy == 0 {
		c.idle = make(chan struct{})
	}
	c.busy++
}

func (c *Controller) end() {
	c.busyMu.Lock()
	defer c.busyMu.Unlock()
	c.busy--
	if c.busy == 0 {
		close(c.idle)
	}
}
