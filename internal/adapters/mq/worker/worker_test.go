package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/frbviewer/internal/adapters/mq/queue"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWorker(t *testing.T) {
	Convey("Given a worker over a queue", t, func() {
		q := queue.NewInMemoryQueue[int](queue.WithCapacity(16))
		var mu sync.Mutex
		var seen []int
		handle := func(_ context.Context, n int) error {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, n)
			if n < 0 {
				return errors.New("negative")
			}
			return nil
		}
		w := New[int](q, handle, WithName("test-loop"), WithLogger(nil))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		Convey("When items are queued", func() {
			for _, n := range []int{1, -2, 3} {
				So(q.Enqueue(ctx, n), ShouldBeTrue)
			}
			So(q.Close(), ShouldBeNil)

			Convey("Then they are handled in order and errors do not stop the loop", func() {
				select {
				case <-w.Done():
				case <-time.After(time.Second):
					t.Fatal("worker did not stop after queue close")
				}
				mu.Lock()
				defer mu.Unlock()
				So(seen, ShouldResemble, []int{1, -2, 3})
			})
		})

		Convey("When shut down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()

			Convey("Then Shutdown returns once the loop exits and is repeatable", func() {
				So(w.Shutdown(sctx), ShouldBeNil)
				So(w.Shutdown(sctx), ShouldBeNil)
			})
		})
	})
}

func TestWorkerShutdownTimeout(t *testing.T) {
	Convey("Given a worker stuck in its handler", t, func() {
		q := queue.NewInMemoryQueue[int]()
		release := make(chan struct{})
		started := make(chan struct{})
		w := New[int](q, func(context.Context, int) error {
			close(started)
			<-release
			return nil
		})
		go w.Run(context.Background())
		So(q.Enqueue(context.Background(), 1), ShouldBeTrue)
		<-started

		Convey("Then Shutdown gives up when its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()
			err := w.Shutdown(ctx)
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			close(release)
			<-w.Done()
		})
	})
}
