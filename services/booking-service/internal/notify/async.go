package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrQueueFull = errors.New("notification queue full")
	ErrClosed    = errors.New("notification queue closed")
)

type AsyncConfig struct {
	QueueSize int
	Workers   int
	// Timeout bounds each delivery attempt on the wrapped dispatcher.
	Timeout time.Duration
}

type queued struct {
	ctx context.Context
	ev  Event
}

// Async hands events to a bounded queue drained by background workers, so
// Dispatch never waits on the wrapped dispatcher. A full queue drops the
// event and reports ErrQueueFull.
type Async struct {
	next    Dispatcher
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan queued
	wg     sync.WaitGroup
}

func NewAsync(next Dispatcher, logger *slog.Logger, cfg AsyncConfig) *Async {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	a := &Async{
		next:    next,
		logger:  logger,
		timeout: cfg.Timeout,
		queue:   make(chan queued, cfg.QueueSize),
	}
	for i := 0; i < cfg.Workers; i++ {
		a.wg.Add(1)
		go a.work()
	}
	return a
}

func (a *Async) Dispatch(ctx context.Context, ev Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- queued{ctx: context.WithoutCancel(ctx), ev: ev}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events and waits for the queued ones to be delivered.
func (a *Async) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()
	a.wg.Wait()
}

func (a *Async) work() {
	defer a.wg.Done()
	for q := range a.queue {
		if err := a.deliver(q); err != nil {
			a.logger.WarnContext(q.ctx, "notification delivery failed",
				"event_type", string(q.ev.Type),
				"event_id", q.ev.ID,
				"appointment_id", q.ev.AppointmentID,
				"err", err,
			)
		}
	}
}

func (a *Async) deliver(q queued) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatcher panic: %v", r)
		}
	}()
	ctx, cancel := context.WithTimeout(q.ctx, a.timeout)
	defer cancel()
	return a.next.Dispatch(ctx, q.ev)
}
