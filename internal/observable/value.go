// Package observable provides a minimal value container with synchronous
// change notification.
package observable

// Observer receives the new value after a change.
type Observer[T any] func(T)

// Reader is the read-only view of a Value handed to consumers.
type Reader[T any] interface {
	Get() T
	Subscribe(fn Observer[T]) (unsubscribe func())
}

// Value holds a current value and the observers registered on it.
// It is not safe for concurrent use.
type Value[T comparable] struct {
	current   T
	observers []*subscription[T]
}

type subscription[T any] struct {
	fn     Observer[T]
	active bool
}

// New creates a Value holding initial.
func New[T comparable](initial T) *Value[T] {
	return &Value[T]{current: initial}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	return v.current
}

// Set stores next and, when it differs from the current value, notifies
// observers. It reports whether a change happened.
func (v *Value[T]) Set(next T) bool {
	if !v.Store(next) {
		return false
	}
	v.Notify()
	return true
}

// Store replaces the current value without notifying anyone. Owners that
// update several values together call Store on each and Notify afterwards.
func (v *Value[T]) Store(next T) bool {
	if next == v.current {
		return false
	}
	v.current = next
	return true
}

// Notify calls every observer with the current value in registration order.
func (v *Value[T]) Notify() {
	// Observers added from inside a callback are first called on the next Notify.
	snapshot := append([]*subscription[T](nil), v.observers...)
	for _, sub := range snapshot {
		if sub.active {
			sub.fn(v.current)
		}
	}
}

// Subscribe registers fn and returns a function that removes it. The returned
// function may be called more than once.
func (v *Value[T]) Subscribe(fn Observer[T]) func() {
	if fn == nil {
		return func() {}
	}
	sub := &subscription[T]{fn: fn, active: true}
	v.observers = append(v.observers, sub)
	return func() {
		if !sub.active {
			return
		}
		sub.active = false
		v.remove(sub)
	}
}

// Observers returns the number of registered observers.
func (v *Value[T]) Observers() int {
	return len(v.observers)
}

func (v *Value[T]) remove(target *subscription[T]) {
	kept := v.observers[:0]
	for _, sub := range v.observers {
		if sub != target {
			kept = append(kept, sub)
		}
	}
	for i := len(kept); i < len(v.observers); i++ {
		v.observers[i] = nil
	}
	v.observers = kept
}
