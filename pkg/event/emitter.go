package event

import "sync"

// Emitter fans events out to subscribers.
// The zero value is not usable; create with NewEmitter.
type Emitter struct {
	mu          sync.Mutex
	nextID      int
	subscribers map[int]func(Event)
}

// NewEmitter creates a new event emitter.
func NewEmitter() *Emitter {
	return &Emitter{
		subscribers: make(map[int]func(Event)),
	}
}

// Subscribe registers a callback for all events and returns a function that
// removes the subscription.
func (e *Emitter) Subscribe(fn func(Event)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	e.subscribers[id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subscribers, id)
	}
}

// Emit delivers the event to every subscriber and returns when all have run.
// Subscribers are invoked outside the emitter's lock so they may subscribe
// or unsubscribe re-entrantly.
func (e *Emitter) Emit(ev Event) {
	e.mu.Lock()
	fns := make([]func(Event), 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// SubscriberCount returns the number of active subscriptions.
func (e *Emitter) SubscriberCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subscribers)
}
