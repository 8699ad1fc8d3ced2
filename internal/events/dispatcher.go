// Package events fans lifecycle events out to optional sinks. Sinks observe
// the engine; nothing they do feeds back into pairing state.
package events

import (
	"context"
	"log"
	"sync"
	"time"

	"anonpair/backend/internal/models"

	"github.com/oklog/ulid/v2"
)

// DefaultDeliverTimeout bounds a single sink delivery.
const DefaultDeliverTimeout = 5 * time.Second

// Sink receives lifecycle events from the dispatcher goroutine.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev models.LifecycleEvent) error
}

// Dispatcher buffers published events and delivers them to every sink in
// publish order. Publish never blocks; when the buffer is full the event is
// dropped.
type Dispatcher struct {
	sinks   []Sink
	ch      chan models.LifecycleEvent
	timeout time.Duration

	mu      sync.Mutex
	dropped int
}

func NewDispatcher(size int, sinks ...Sink) *Dispatcher {
	if size <= 0 {
		size = 1
	}
	return &Dispatcher{
		sinks:   sinks,
		ch:      make(chan models.LifecycleEvent, size),
		timeout: DefaultDeliverTimeout,
	}
}

// Publish assigns an id to ev when it has none and queues it.
func (d *Dispatcher) Publish(ev models.LifecycleEvent) {
	if ev.ID == "" {
		ev.ID = ulid.Make().String()
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	select {
	case d.ch <- ev:
	default:
		d.mu.Lock()
		d.dropped++
		d.mu.Unlock()
		log.Printf("WARN: event buffer full, dropping %s %s", ev.Type, ev.ID)
	}
}

// Dropped reports how many events were discarded because the buffer was full.
func (d *Dispatcher) Dropped() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Run delivers events until ctx ends, then flushes what is already buffered.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case ev := <-d.ch:
			d.deliver(ctx, ev)
		case <-ctx.Done():
			d.flush()
			return
		}
	}
}

func (d *Dispatcher) flush() {
	for {
		select {
		case ev := <-d.ch:
			d.deliver(context.Background(), ev)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev models.LifecycleEvent) {
	for _, s := range d.sinks {
		cctx, cancel := context.WithTimeout(ctx, d.timeout)
		if err := s.Deliver(cctx, ev); err != nil {
			log.Printf("ERROR: sink %s failed on %s %s: %v", s.Name(), ev.Type, ev.ID, err)
		}
		cancel()
	}
}
