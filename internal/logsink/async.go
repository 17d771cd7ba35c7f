package logsink

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/vk/choreo/internal/ctxlog"
)

// ErrBufferFull is returned by Async.Record when the event was dropped.
var ErrBufferFull = errors.New("log sink buffer full, event dropped")

// ErrClosed is returned by Async.Record after Close.
var ErrClosed = errors.New("log sink closed")

type queued struct {
	ctx context.Context
	ev  Event
}

// Async records events on a background goroutine so callers never wait on
// the underlying sink. Events are dropped when the buffer is full.
type Async struct {
	next    Sink
	queue   chan queued
	done    chan struct{}
	closed  atomic.Bool
	mu      sync.RWMutex
	dropped atomic.Int64
}

// NewAsync starts the background writer. Close must be called to drain it.
func NewAsync(next Sink, buffer int) *Async {
	if buffer < 1 {
		buffer = 1
	}
	a := &Async{
		next:  next,
		queue: make(chan queued, buffer),
		done:  make(chan struct{}),
	}
	go a.loop()
	return a
}

func (a *Async) loop() {
	defer close(a.done)
	for q := range a.queue {
		if err := a.next.Record(q.ctx, q.ev); err != nil {
			ctxlog.FromContext(q.ctx).Warn("Log sink failed to record event.", "node", q.ev.Node, "error", err)
		}
	}
}

// Record enqueues ev without blocking.
func (a *Async) Record(ctx context.Context, ev Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed.Load() {
		return ErrClosed
	}
	// The writer outlives the invocation, so it must not see its cancellation.
	select {
	case a.queue <- queued{ctx: context.WithoutCancel(ctx), ev: ev}:
		return nil
	default:
		a.dropped.Add(1)
		return ErrBufferFull
	}
}

// Dropped reports how many events were discarded because the buffer was full.
func (a *Async) Dropped() int64 {
	return a.dropped.Load()
}

// Close stops accepting events and waits until queued events are written.
func (a *Async) Close() error {
	a.mu.Lock()
	if !a.closed.Swap(true) {
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
	return nil
}
