package events

import (
	"context"
	"reflect"
	"slices"
	"sync"
)

// Topics carried by the bus.
const (
	TopicNewApplication = "speech.application.submitted"
)

// Listener handles one published event. An error returned here propagates to
// the publisher; the bus does not swallow it.
type Listener interface {
	HandleEvent(ctx context.Context, topic string, payload any) error
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(ctx context.Context, topic string, payload any) error

func (f ListenerFunc) HandleEvent(ctx context.Context, topic string, payload any) error {
	return f(ctx, topic, payload)
}

// Bus is an in-process publish/subscribe router. Listeners of a topic run
// sequentially in registration order, and Publish returns only after every
// listener has completed. The first listener error aborts the remaining
// listeners and is returned to the publisher.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
}

func NewBus() *Bus {
	return &Bus{listeners: make(map[string][]Listener)}
}

func (b *Bus) Subscribe(topic string, l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[topic] = append(b.listeners[topic], l)
}

// Unsubscribe removes a listener registered for the topic. Pointer-backed
// listeners are matched by identity, ListenerFunc values by the underlying
// function.
func (b *Bus) Unsubscribe(topic string, l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.listeners[topic]
	for i, s := range subs {
		if sameListener(s, l) {
			b.listeners[topic] = slices.Delete(subs, i, i+1)
			break
		}
	}
	if len(b.listeners[topic]) == 0 {
		delete(b.listeners, topic)
	}
}

// sameListener matches without tripping over dynamic types that Go cannot
// compare with ==, such as ListenerFunc.
func sameListener(a, b Listener) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	if va.Kind() == reflect.Func {
		return va.Pointer() == vb.Pointer()
	}
	if !va.Type().Comparable() {
		return false
	}
	return a == b
}

func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	b.mu.RLock()
	subs := slices.Clone(b.listeners[topic])
	b.mu.RUnlock()

	for _, l := range subs {
		if err := l.HandleEvent(ctx, topic, payload); err != nil {
			return err
		}
	}
	return nil
}
