// Package replay provides a replay-last publisher.
//
// A Subject holds a current value. A new subscriber is called with the
// current value as soon as it subscribes and then with every later value,
// in publish order. Delivery is synchronous: Publish returns after every
// subscriber has been called.
package replay

import "sync"

// Source is the read side of a Subject.
type Source[T any] interface {
	// Subscribe registers fn and calls it with the current value.
	// The returned function removes the subscription; calling it more than
	// once is harmless.
	Subscribe(fn func(T)) (unsubscribe func())

	// Value returns the current value.
	Value() T
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// Subject is a replay-last value publisher. The zero value is not usable;
// create one with New.
type Subject[T any] struct {
	// deliver serializes deliveries so every subscriber observes values in
	// publish order, including the initial replay.
	deliver sync.Mutex

	mu     sync.RWMutex
	value  T
	subs   []subscriber[T]
	nextID uint64
}

// New creates a Subject holding initial.
func New[T any](initial T) *Subject[T] {
	return &Subject[T]{value: initial}
}

// Value returns the current value.
func (s *Subject[T]) Value() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Subscribe implements Source. Callbacks must not subscribe to or publish on
// the same Subject.
func (s *Subject[T]) Subscribe(fn func(T)) func() {
	s.deliver.Lock()
	defer s.deliver.Unlock()

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})
	current := s.value
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

// Publish sets the current value and delivers it to every subscriber.
func (s *Subject[T]) Publish(v T) {
	s.deliver.Lock()
	defer s.deliver.Unlock()

	s.mu.Lock()
	s.value = v
	subs := s.subs
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(v)
	}
}

// Len returns the number of active subscribers.
func (s *Subject[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

func (s *Subject[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy on write: a Publish in progress keeps iterating its own slice.
	subs := make([]subscriber[T], 0, len(s.subs))
	for _, sub := range s.subs {
		if sub.id != id {
			subs = append(subs, sub)
		}
	}
	s.subs = subs
}
