package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull discards events when the buffer is full instead of
	// blocking the emitting request.
	DropIfFull bool
	// OnDrop runs once per discarded event with its type.
	OnDrop func(eventType string)
}

// queued pairs an event with the detached context of the request that
// produced it, so sinks see request-scoped values after the request ends.
type queued struct {
	ctx   context.Context
	event Event
}

// Dispatcher forwards audit events to a sink on a single background
// goroutine. A nil *Dispatcher accepts and discards everything.
type Dispatcher struct {
	cfg       Config
	sink      Sink
	ch        chan queued
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewDispatcher starts a dispatcher writing to sink, or returns nil when cfg
// is disabled. A nil sink discards events.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	if cfg.OnDrop == nil {
		cfg.OnDrop = func(string) {}
	}

	d := &Dispatcher{
		cfg:  cfg,
		sink: sink,
		ch:   make(chan queued, cfg.BufferSize),
		done: make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case q := <-d.ch:
			d.sink.Emit(q.ctx, q.event)
		case <-d.done:
			for {
				select {
				case q := <-d.ch:
					d.sink.Emit(q.ctx, q.event)
				default:
					return
				}
			}
		}
	}
}

// Emit queues event. With DropIfFull a full buffer drops the event;
// otherwise Emit blocks until there is room or ctx ends, and an event
// abandoned that way also counts as dropped. Events emitted after Close are
// ignored.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	q := queued{ctx: context.WithoutCancel(ctx), event: event}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- q:
		case <-d.done:
		default:
			d.drop(event)
		}
		return
	}

	select {
	case d.ch <- q:
	case <-ctx.Done():
		d.drop(event)
	case <-d.done:
	}
}

func (d *Dispatcher) drop(event Event) {
	d.dropped.Add(1)
	d.cfg.OnDrop(event.EventType)
}

// Close stops accepting events, delivers everything already queued and
// waits for the sink to finish. It is safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped reports how many events were discarded since start.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
