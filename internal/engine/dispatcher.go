package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/OxanaKozlova/workflow/internal/ir"
)

// Dispatcher receives lifecycle events. Dispatch is synchronous: it returns
// once every listener has run. A non-nil error aborts the current operation.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, event *Event) error
}

// Listener handles one dispatched event.
type Listener func(ctx context.Context, event *Event) error

// EventDispatcher is the in-process Dispatcher. Listeners run in
// registration order on the calling goroutine.
//
// Thread-safety: AddListener and Dispatch are safe for concurrent use.
type EventDispatcher struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
}

// NewEventDispatcher creates an empty dispatcher.
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{listeners: make(map[string][]Listener)}
}

// AddListener registers l for the exact event name.
func (d *EventDispatcher) AddListener(name string, l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[name] = append(d.listeners[name], l)
}

// Listeners returns a copy of the listeners registered for name.
func (d *EventDispatcher) Listeners(name string) []Listener {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Listener, len(d.listeners[name]))
	copy(out, d.listeners[name])
	return out
}

// Dispatch calls every listener for name and stops at the first error.
func (d *EventDispatcher) Dispatch(ctx context.Context, name string, event *Event) error {
	for _, l := range d.Listeners(name) {
		if err := l(ctx, event); err != nil {
			return fmt.Errorf("listener for %s: %w", name, err)
		}
	}
	return nil
}

// RecordedEvent is one entry of a Recorder trace.
type RecordedEvent struct {
	Seq        int64      `json:"seq"`
	Name       string     `json:"name"`
	Transition string     `json:"transition"`
	Marking    ir.Marking `json:"marking"`
	Blocked    bool       `json:"blocked,omitempty"`
}

// Recorder is a Dispatcher decorator that keeps a trace of every event.
// The wrapped dispatcher, if any, runs first so the trace reflects guard
// decisions.
//
// Thread-safety: Recorder is safe for concurrent use.
type Recorder struct {
	next Dispatcher

	mu     sync.Mutex
	seq    int64
	events []RecordedEvent
}

// NewRecorder wraps next, which may be nil.
func NewRecorder(next Dispatcher) *Recorder {
	return &Recorder{next: next}
}

// Dispatch forwards to the wrapped dispatcher and records the event, even
// when a listener fails.
func (r *Recorder) Dispatch(ctx context.Context, name string, event *Event) error {
	var err error
	if r.next != nil {
		err = r.next.Dispatch(ctx, name, event)
	}

	r.mu.Lock()
	r.seq++
	r.events = append(r.events, RecordedEvent{
		Seq:        r.seq,
		Name:       name,
		Transition: event.Transition.Name,
		Marking:    event.Marking.Clone(),
		Blocked:    event.IsBlocked(),
	})
	r.mu.Unlock()

	return err
}

// Fetch returns a copy of the recorded trace.
func (r *Recorder) Fetch() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordedEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Names returns the recorded event names in dispatch order.
func (r *Recorder) Names() []string {
	events := r.Fetch()
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.Name
	}
	return names
}

// Reset clears the trace and restarts sequence numbers at 1.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.seq = 0
}
