package notify

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls how lifecycle notifications are queued.
//
// BufferSize is the number of events that may wait for the sink. With
// DropIfFull a full queue discards the new event instead of holding up the
// session transition that produced it.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Dispatcher hands lifecycle notifications to a sink on its own goroutine, in
// the order they were emitted. A slow subscriber then delays only delivery,
// never a Login, Logout or namespace change.
type Dispatcher struct {
	sink     Sink
	queue    chan Event
	dropTail bool

	stop     chan struct{}
	finished chan struct{}
	stopOnce sync.Once
	stopped  atomic.Bool
	dropped  atomic.Uint64
}

// NewDispatcher starts a dispatcher feeding sink. It returns nil when
// cfg.Enabled is false; a nil *Dispatcher accepts and discards every call.
// A nil sink discards deliveries.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink:     sink,
		queue:    make(chan Event, size),
		dropTail: cfg.DropIfFull,
		stop:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	go d.deliver()
	return d
}

// deliver forwards queued events until Close, then flushes what is left.
func (d *Dispatcher) deliver() {
	defer close(d.finished)
	for {
		select {
		case ev := <-d.queue:
			d.sink.Emit(context.Background(), ev)
		case <-d.stop:
			d.flush()
			return
		}
	}
}

func (d *Dispatcher) flush() {
	for {
		select {
		case ev := <-d.queue:
			d.sink.Emit(context.Background(), ev)
		default:
			return
		}
	}
}

// Emit queues ev for delivery. When the queue is full it either counts ev as
// dropped (DropIfFull) or waits until there is room, ctx ends or the
// dispatcher closes. Events emitted after Close are discarded.
func (d *Dispatcher) Emit(ctx context.Context, ev Event) {
	if d == nil || d.stopped.Load() {
		return
	}

	if d.dropTail {
		select {
		case d.queue <- ev:
		case <-d.stop:
		default:
			d.dropped.Add(1)
		}
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.queue <- ev:
	case <-ctx.Done():
	case <-d.stop:
	}
}

// Close stops accepting events and returns once every queued event has
// reached the sink. It is safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.stopOnce.Do(func() {
		d.stopped.Store(true)
		close(d.stop)
	})
	<-d.finished
}

// Dropped reports how many events a full queue discarded.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
