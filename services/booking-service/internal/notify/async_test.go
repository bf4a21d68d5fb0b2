package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestAsyncDoesNotWaitForSlowDispatcher(t *testing.T) {
	release := make(chan struct{})
	var delivered atomic.Int32
	slow := DispatcherFunc(func(ctx context.Context, ev Event) error {
		<-release
		delivered.Add(1)
		return nil
	})
	a := NewAsync(slow, quietLogger(), AsyncConfig{QueueSize: 4, Workers: 1, Timeout: time.Minute})

	start := time.Now()
	if err := a.Dispatch(context.Background(), testEvent()); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("Dispatch blocked for %s", elapsed)
	}

	close(release)
	a.Close()
	if got := delivered.Load(); got != 1 {
		t.Fatalf("expected queued event delivered on Close, got %d", got)
	}
	if err := a.Dispatch(context.Background(), testEvent()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after Close, got %v", err)
	}
}

func TestAsyncDropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	blocked := DispatcherFunc(func(ctx context.Context, ev Event) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	})
	a := NewAsync(blocked, quietLogger(), AsyncConfig{QueueSize: 1, Workers: 1, Timeout: time.Minute})
	defer func() {
		close(release)
		a.Close()
	}()

	// The worker holds the first event; the second fills the queue.
	if err := a.Dispatch(context.Background(), testEvent()); err != nil {
		t.Fatalf("first Dispatch: %v", err)
	}
	<-started
	if err := a.Dispatch(context.Background(), testEvent()); err != nil {
		t.Fatalf("second Dispatch: %v", err)
	}
	if err := a.Dispatch(context.Background(), testEvent()); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestAsyncRecoversDispatcherPanic(t *testing.T) {
	var calls atomic.Int32
	flaky := DispatcherFunc(func(ctx context.Context, ev Event) error {
		if calls.Add(1) == 1 {
			panic("boom")
		}
		return nil
	})
	a := NewAsync(flaky, quietLogger(), AsyncConfig{Workers: 1})
	_ = a.Dispatch(context.Background(), testEvent())
	_ = a.Dispatch(context.Background(), testEvent())
	a.Close()
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected worker to survive the panic, got %d calls", got)
	}
}
