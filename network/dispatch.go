package network

import (
	"log/slog"
	"sync"
)

type Handler func(Envelope)

type subscription struct {
	id int
	fn Handler
}

// Dispatcher fans envelopes out to subscribers. Handlers registered with
// OnAny run first, then handlers registered for the envelope's type, each
// group in registration order.
type Dispatcher struct {
	mu     sync.Mutex
	nextID int
	any    []subscription
	typed  map[MessageType][]subscription
	logger *slog.Logger
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		typed:  make(map[MessageType][]subscription),
		logger: logger,
	}
}

// OnAny subscribes to every envelope. The returned func unsubscribes.
func (d *Dispatcher) OnAny(fn Handler) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := d.nextID
	d.any = append(d.any, subscription{id: id, fn: fn})
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.any = without(d.any, id)
	}
}

// On subscribes to envelopes of one type. The returned func unsubscribes.
func (d *Dispatcher) On(t MessageType, fn Handler) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := d.nextID
	d.typed[t] = append(d.typed[t], subscription{id: id, fn: fn})
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.typed[t] = without(d.typed[t], id)
	}
}

// Subscribe registers fn for the message type T stands for.
func Subscribe[T Message](d *Dispatcher, fn func(T)) func() {
	var zero T
	return d.On(zero.Type(), func(env Envelope) {
		if msg, ok := env.Message.(T); ok {
			fn(msg)
		}
	})
}

// Dispatch delivers env synchronously on the calling goroutine.
func (d *Dispatcher) Dispatch(env Envelope) {
	d.mu.Lock()
	handlers := make([]subscription, 0, len(d.any)+len(d.typed[env.Type]))
	handlers = append(handlers, d.any...)
	handlers = append(handlers, d.typed[env.Type]...)
	d.mu.Unlock()

	for _, h := range handlers {
		d.call(h.fn, env)
	}
}

// call keeps one misbehaving handler from taking down the dispatch loop.
func (d *Dispatcher) call(fn Handler, env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("handler panicked", "type", env.Type, "panic", r)
		}
	}()
	fn(env)
}

func without(subs []subscription, id int) []subscription {
	out := make([]subscription, 0, len(subs))
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}
