package platform

import "sync"

// SignalHandler receives a dispatched payload.
type SignalHandler func(payload any)

// Dispatcher delivers in-process signals from producers to subscribers.
//
// Signals are plain strings; producers and consumers agree on the format
// out of band (e.g., "camera_source_changed/{entry}/{camera}"). Delivery
// is synchronous: Send calls every connected handler on the caller's
// goroutine before returning.
//
// Thread Safety:
//   - Connect, Send, and the returned unsubscribe functions are all safe
//     for concurrent use.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]map[int]SignalHandler
	nextID   int
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]map[int]SignalHandler),
	}
}

// Connect subscribes a handler to a signal.
//
// Parameters:
//   - signal: The exact signal name to listen for (no wildcards)
//   - handler: Invoked with the payload on every Send for this signal
//
// Returns:
//   - func(): Disconnects the handler when called. Idempotent.
func (d *Dispatcher) Connect(signal string, handler SignalHandler) func() {
	d.mu.Lock()
	if d.handlers[signal] == nil {
		d.handlers[signal] = make(map[int]SignalHandler)
	}
	id := d.nextID
	d.nextID++
	d.handlers[signal][id] = handler
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		if handlers, ok := d.handlers[signal]; ok {
			delete(handlers, id)
			if len(handlers) == 0 {
				delete(d.handlers, signal)
			}
		}
		d.mu.Unlock()
	}
}

// Send dispatches a payload to every handler connected to signal.
//
// Handlers run synchronously; invocation order is not guaranteed.
// A signal with no subscribers is silently dropped.
func (d *Dispatcher) Send(signal string, payload any) {
	d.mu.RLock()
	callbacks := make([]SignalHandler, 0, len(d.handlers[signal]))
	for _, h := range d.handlers[signal] {
		callbacks = append(callbacks, h)
	}
	d.mu.RUnlock()

	for _, callback := range callbacks {
		callback(payload)
	}
}

// SubscriberCount returns the number of handlers connected to signal.
func (d *Dispatcher) SubscriberCount(signal string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[signal])
}
