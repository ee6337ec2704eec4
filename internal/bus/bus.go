// Package bus is a small typed publish/subscribe hub. It replaces string-named
// DOM events so the compiler checks every payload.
package bus

import "sync"

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Bus delivers values of type T to every subscriber, synchronously and in
// subscription order. The zero value is ready to use.
type Bus[T any] struct {
	mu   sync.RWMutex
	next int
	subs []subscriber[T]
}

// Subscribe registers fn and returns a function that removes it again.
func (b *Bus[T]) Subscribe(fn func(T)) (cancel func()) {
	b.mu.Lock()
	b.next++
	id := b.next
	b.subs = append(b.subs, subscriber[T]{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish hands v to all current subscribers.
func (b *Bus[T]) Publish(v T) {
	b.mu.RLock()
	subs := append([]subscriber[T](nil), b.subs...)
	b.mu.RUnlock()
	for _, s := range subs {
		s.fn(v)
	}
}

// Len returns the number of active subscribers.
func (b *Bus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
