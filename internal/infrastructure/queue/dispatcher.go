package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mindmesh/mentorship/internal/core/domain"
	"github.com/mindmesh/mentorship/internal/core/ports"
	"github.com/mindmesh/mentorship/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	defaultBuffer  = 256
)

// Dispatcher routes domain events to a fixed set of workers using consistent
// hashing on the project id, guaranteeing per-project event ordering.
type Dispatcher struct {
	workers []chan domain.Event
	handler ports.EventHandler
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers, each
// with a channel of the given buffer size. Non-positive values select the defaults.
func NewDispatcher(numWorkers, buffer int, handler ports.EventHandler, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	d := &Dispatcher{
		workers: make([]chan domain.Event, numWorkers),
		handler: handler,
		log:     log.With().Str("component", "dispatcher").Logger(),
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Event, buffer)
	}
	return d
}

// Start launches all worker goroutines. Workers exit when their channel is
// drained after Close, or immediately when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Publish enqueues event on the worker responsible for its project. An event
// is always accepted while the worker's buffer has room, even if ctx is
// already done. Once the buffer is full Publish blocks, and drops the event if
// ctx ends first. Events published after Close are dropped.
func (d *Dispatcher) Publish(ctx context.Context, event domain.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(event, "dispatcher closed")
		return
	}

	idx := d.shardIndex(event.Project.ID)
	ch := d.workers[idx]

	select {
	case ch <- event:
		d.enqueued(idx)
		return
	default:
	}

	select {
	case ch <- event:
		d.enqueued(idx)
	case <-ctx.Done():
		d.drop(event, "publisher context done")
	}
}

func (d *Dispatcher) enqueued(idx int) {
	metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// Close stops accepting events and waits for queued ones to be handled, or
// for ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps a project id deterministically to a worker index.
func (d *Dispatcher) shardIndex(projectID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(projectID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) drop(event domain.Event, reason string) {
	metrics.EventsDroppedTotal.WithLabelValues(string(event.Kind)).Inc()
	d.log.Warn().
		Str("event_id", event.ID).
		Str("kind", string(event.Kind)).
		Str("reason", reason).
		Msg("event dropped")
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Event) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			metrics.EventsQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.handler.Handle(ctx, event)
		}
	}
}
