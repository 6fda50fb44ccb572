package queue

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

type action struct {
	ID string
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue[action](WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, action{ID: "a1"}) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.ID != "a1" {
		t.Errorf("expected a1, got %v", got.ID)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	var drops atomic.Int32
	var lastSize atomic.Int32
	q := NewInMemoryQueue[action](
		WithCapacity(2),
		WithDropObserver(func() { drops.Add(1) }),
		WithSizeObserver(func(n int) { lastSize.Store(int32(n)) }),
	)
	ctx := context.Background()

	if !q.Enqueue(ctx, action{ID: "a1"}) || !q.Enqueue(ctx, action{ID: "a2"}) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, action{ID: "a3"}) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
	if drops.Load() != 1 {
		t.Errorf("expected one drop, got %d", drops.Load())
	}
	if lastSize.Load() != 2 {
		t.Errorf("expected size observer to see 2, got %d", lastSize.Load())
	}
}

func TestInMemoryQueue_PutWaitsForRoom(t *testing.T) {
	q := NewInMemoryQueue[action](WithCapacity(1))
	ctx := context.Background()

	if err := q.Put(ctx, action{ID: "a1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- q.Put(ctx, action{ID: "a2"}) }()

	select {
	case err := <-done:
		t.Fatalf("put should block while full, returned %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	ch := q.Dequeue(ctx)
	if got := <-ch; got.ID != "a1" {
		t.Errorf("expected a1, got %s", got.ID)
	}
	if err := <-done; err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if got := <-ch; got.ID != "a2" {
		t.Errorf("expected a2, got %s", got.ID)
	}
}

func TestInMemoryQueue_PutCancelled(t *testing.T) {
	q := NewInMemoryQueue[action](WithCapacity(1))
	_ = q.Put(context.Background(), action{ID: "a1"})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := q.Put(ctx, action{ID: "a2"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestInMemoryQueue_CloseReleasesPut(t *testing.T) {
	q := NewInMemoryQueue[action](WithCapacity(1))
	_ = q.Put(context.Background(), action{ID: "a1"})

	done := make(chan error, 1)
	go func() { done <- q.Put(context.Background(), action{ID: "a2"}) }()
	time.Sleep(10 * time.Millisecond)

	if err := q.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("put was not released by close")
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue[action](WithCapacity(100))
	ctx := context.Background()
	numGoroutines := 10
	numItems := 100

	done := make(chan bool, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			for j := 0; j < numItems; j++ {
				if err := q.Put(ctx, action{ID: fmt.Sprintf("a%d_%d", id, j)}); err != nil {
					t.Errorf("put failed: %v", err)
				}
			}
			done <- true
		}(i)
	}

	var consumed atomic.Int32
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for range q.Dequeue(ctx) {
			consumed.Add(1)
		}
	}()

	for i := 0; i < numGoroutines; i++ {
		<-done
	}
	_ = q.Close()
	<-finished

	if got := int(consumed.Load()); got != numGoroutines*numItems {
		t.Errorf("expected %d items, got %d", numGoroutines*numItems, got)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue[action](WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, action{ID: "a1"}) || !q.Enqueue(ctx, action{ID: "a2"}) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if q.Enqueue(ctx, action{ID: "a3"}) {
		t.Error("expected enqueue to fail after closing")
	}

	// queued items drain before the channel closes
	var drained []string
	timeout := time.After(100 * time.Millisecond)
	ch := q.Dequeue(ctx)
	for {
		select {
		case a, ok := <-ch:
			if !ok {
				if len(drained) != 2 {
					t.Errorf("expected 2 drained items, got %v", drained)
				}
				if err := q.Close(); err != nil {
					t.Errorf("expected second close to succeed, got error: %v", err)
				}
				return
			}
			drained = append(drained, a.ID)
		case <-timeout:
			t.Fatal("expected dequeue channel to be closed within timeout")
		}
	}
}
