package dispatch

import (
	"context"
	"sync"

	"github.com/KillerHyena/Inquiro/internal/infra"
)

// Sink receives the outcome of a job. Deliver runs on the delivery
// goroutine, never on the caller's request goroutine, so implementations
// must synchronize any shared state themselves.
type Sink interface {
	Deliver(Outcome)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Outcome)

// Deliver calls f(o).
func (f SinkFunc) Deliver(o Outcome) {
	f(o)
}

// MultiSink fans an outcome out to every non-nil sink in order.
type MultiSink []Sink

// Deliver forwards o to each sink.
func (m MultiSink) Deliver(o Outcome) {
	for _, s := range m {
		if s != nil {
			s.Deliver(o)
		}
	}
}

type delivery struct {
	sink    Sink
	outcome Outcome
}

// deliverer buffers outcomes without bound and invokes sinks in FIFO order
// from its own goroutine.
type deliverer struct {
	logger *infra.Logger

	mu     sync.Mutex
	buf    []delivery
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

func newDeliverer(logger *infra.Logger) *deliverer {
	return &deliverer{
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// push never blocks. It reports false once the deliverer is closed.
func (d *deliverer) push(sink Sink, o Outcome) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	d.buf = append(d.buf, delivery{sink: sink, outcome: o})
	d.mu.Unlock()
	select {
	case d.wake <- struct{}{}:
	default:
	}
	return true
}

func (d *deliverer) run() {
	defer close(d.done)
	for {
		d.mu.Lock()
		batch := d.buf
		d.buf = nil
		closed := d.closed
		d.mu.Unlock()

		for _, item := range batch {
			d.invoke(item)
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-d.wake
	}
}

func (d *deliverer) invoke(item delivery) {
	if item.sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().
				Interface("panic", r).
				Str("request_id", item.outcome.ID).
				Msg("dispatch: result sink panicked")
		}
	}()
	item.sink.Deliver(item.outcome)
}

// close stops accepting outcomes and waits for the buffer to flush.
func (d *deliverer) close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	select {
	case d.wake <- struct{}{}:
	default:
	}
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *deliverer) backlog() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buf)
}
