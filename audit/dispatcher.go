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
	DropIfFull bool
}

// Dispatcher asynchronously forwards audit records to a sink. Emit never
// blocks the caller beyond the configured back-pressure policy, and Close
// drains whatever is still buffered.
type Dispatcher struct {
	cfg       Config
	sink      Sink
	ch        chan Record
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewDispatcher starts the delivery worker. Returns nil when auditing is
// disabled; a nil Dispatcher is safe to use and does nothing.
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

	d := &Dispatcher{
		cfg:  cfg,
		sink: sink,
		ch:   make(chan Record, cfg.BufferSize),
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
		case rec := <-d.ch:
			d.sink.Emit(context.Background(), rec)
		case <-d.done:
			for {
				select {
				case rec := <-d.ch:
					d.sink.Emit(context.Background(), rec)
				default:
					return
				}
			}
		}
	}
}

// Emit enqueues one record. With DropIfFull the record is discarded (and
// counted) when the buffer is full; otherwise Emit blocks until there is room
// or ctx is done. Records already enqueued are delivered even if the
// originating request is cancelled afterwards.
func (d *Dispatcher) Emit(ctx context.Context, rec Record) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- rec:
		case <-d.done:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.ch <- rec:
	case <-ctx.Done():
	case <-d.done:
	}
}

// Close stops accepting records, drains the buffer, and waits for the worker.
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

// Dropped reports how many records the DropIfFull policy discarded.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
