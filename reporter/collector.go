package reporter

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/aalemi-dev/apm-lab/observability"
	"github.com/aalemi-dev/apm-lab/tracer"
)

// Collector buffers reported events in memory, holding at most its capacity.
// Safe for concurrent use by multiple goroutines.
type Collector struct {
	events       []tracer.Event
	capacity     int
	eventsCh     chan tracer.Event
	stopCh       chan struct{}
	done         chan struct{}
	changed      chan struct{}
	droppedCount atomic.Int64
	observer     observability.Observer
	mu           sync.Mutex
	closeMu      sync.RWMutex
	closed       bool
	syncMode     atomic.Bool
}

// NewCollector starts a collector that queues up to bufferSize events and
// buffers up to DefaultCollectorCapacity of them; see SetCapacity.
func NewCollector(bufferSize int, observer observability.Observer) *Collector {
	if bufferSize <= 0 {
		bufferSize = DefaultCollectorBufferSize
	}
	if observer == nil {
		observer = observability.NewNoOpObserver()
	}
	c := &Collector{
		events:   make([]tracer.Event, 0, 8),
		capacity: DefaultCollectorCapacity,
		eventsCh: make(chan tracer.Event, bufferSize),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		changed:  make(chan struct{}),
		observer: observer,
	}
	go c.start()
	return c
}

func (c *Collector) start() {
	defer close(c.done)

	for {
		select {
		case <-c.stopCh:
			// Drain what was queued before Close.
			for {
				select {
				case ev := <-c.eventsCh:
					c.buffer(ev)
				default:
					return
				}
			}
		case ev := <-c.eventsCh:
			c.buffer(ev)
		}
	}
}

// Report queues ev. A full queue or a closed collector drops it.
func (c *Collector) Report(ev tracer.Event) {
	c.closeMu.RLock()
	defer c.closeMu.RUnlock()

	if c.closed {
		c.drop(ev, "closed")
		return
	}
	if c.syncMode.Load() {
		c.buffer(ev)
		return
	}

	select {
	case c.eventsCh <- ev:
	default:
		c.drop(ev, "queue_full")
	}
}

func (c *Collector) drop(ev tracer.Event, reason string) {
	c.droppedCount.Add(1)
	c.observer.ObserveOperation(observability.OperationContext{
		Component:   observability.ComponentReporter,
		Operation:   "drop",
		Resource:    "collector",
		SubResource: reason,
		Metadata:    map[string]interface{}{"kind": ev.Kind.String()},
	})
}

func (c *Collector) buffer(ev tracer.Event) {
	c.mu.Lock()
	if len(c.events) >= c.capacity {
		c.mu.Unlock()
		c.drop(ev, "buffer_full")
		return
	}
	c.events = append(c.events, ev)
	close(c.changed)
	c.changed = make(chan struct{})
	c.mu.Unlock()
}

// Export returns the buffered events and clears the buffer.
func (c *Collector) Export() []tracer.Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.events) == 0 {
		return nil
	}
	out := make([]tracer.Event, len(c.events))
	copy(out, c.events)
	c.events = c.events[:0]
	return out
}

// Count returns the number of buffered events.
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// DroppedCount returns the number of events dropped so far.
func (c *Collector) DroppedCount() int64 {
	return c.droppedCount.Load()
}

// SetCapacity bounds the number of buffered events. Events reported while
// the buffer is full are dropped until Export or Reset makes room. A
// non-positive n restores DefaultCollectorCapacity.
func (c *Collector) SetCapacity(n int) {
	if n <= 0 {
		n = DefaultCollectorCapacity
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.capacity = n
}

// SetSyncMode makes Report buffer on the calling goroutine.
func (c *Collector) SetSyncMode(enabled bool) {
	c.syncMode.Store(enabled)
}

// Reset clears the buffer and the drop counter.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = c.events[:0]
	c.droppedCount.Store(0)
}

// Close stops the collector after draining the queue. It waits at most
// 100ms for the drain.
func (c *Collector) Close() {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return
	}
	c.closed = true
	close(c.stopCh)
	c.closeMu.Unlock()

	select {
	case <-c.done:
	case <-time.After(100 * time.Millisecond):
	}
}

// Transactions returns the buffered transactions without clearing them.
func (c *Collector) Transactions() []tracer.Event {
	return c.filter(tracer.KindTransaction)
}

// Spans returns the buffered spans without clearing them.
func (c *Collector) Spans() []tracer.Event {
	return c.filter(tracer.KindSpan)
}

func (c *Collector) filter(kind tracer.Kind) []tracer.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []tracer.Event
	for _, ev := range c.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// FirstTransaction waits up to timeout for a transaction to be buffered and
// returns the first one.
func (c *Collector) FirstTransaction(timeout time.Duration) (tracer.Event, bool) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		c.mu.Lock()
		for _, ev := range c.events {
			if ev.Kind == tracer.KindTransaction {
				c.mu.Unlock()
				return ev, true
			}
		}
		changed := c.changed
		c.mu.Unlock()

		select {
		case <-changed:
		case <-deadline.C:
			return tracer.Event{}, false
		}
	}
}
