// Package event provides a small synchronous observer used by the editor core.
//
// An [Emitter] holds an ordered list of subscribers. [Emitter.Emit] calls every
// active subscriber in subscription order, on the caller's goroutine, before
// returning. This gives the core its ordering guarantee: a notification always
// fires after the mutation that caused it and before control returns to the
// caller.
//
// Emitters are not safe for concurrent use. The core is single-threaded; outer
// layers that share a document between goroutines serialise access themselves.
//
// Example:
//
//	var changed event.Emitter[int]
//	unsubscribe := changed.Subscribe(func(n int) { fmt.Println("now", n) })
//	changed.Emit(3) // prints "now 3"
//	unsubscribe()
package event

// Unsubscribe removes the subscription it was returned for. Calling it more
// than once is harmless.
type Unsubscribe func()

type subscriber[T any] struct {
	id     uint64
	fn     func(T)
	active bool
}

// Emitter dispatches values of type T to its subscribers.
// The zero value is ready to use.
type Emitter[T any] struct {
	subs   []*subscriber[T]
	nextID uint64
}

// Subscribe registers fn and returns a handle that removes it again.
// A nil fn is ignored.
func (e *Emitter[T]) Subscribe(fn func(T)) Unsubscribe {
	if fn == nil {
		return func() {}
	}
	e.nextID++
	s := &subscriber[T]{id: e.nextID, fn: fn, active: true}
	e.subs = append(e.subs, s)
	return func() { e.remove(s.id) }
}

func (e *Emitter[T]) remove(id uint64) {
	for i, s := range e.subs {
		if s.id == id {
			s.active = false
			e.subs = append(e.subs[:i], e.subs[i+1:]...)
			return
		}
	}
}

// Emit calls every subscriber with v. Subscribers removed during dispatch are
// not called afterwards; subscribers added during dispatch are called from the
// next Emit on.
func (e *Emitter[T]) Emit(v T) {
	subs := make([]*subscriber[T], len(e.subs))
	copy(subs, e.subs)
	for _, s := range subs {
		if s.active {
			s.fn(v)
		}
	}
}

// Len returns the number of active subscribers.
func (e *Emitter[T]) Len() int {
	return len(e.subs)
}

// Clear drops every subscriber.
func (e *Emitter[T]) Clear() {
	for _, s := range e.subs {
		s.active = false
	}
	e.subs = nil
}
