// Package notify implements synchronous property-change notification.
//
// Listeners run on the goroutine that emits the change, in registration
// order. Nothing here is safe for concurrent use: emitters live on the
// render goroutine and so must every Subscribe/cancel call.
package notify

// Change describes one property update.
type Change struct {
	Field string
	Value any
}

// Listener receives property changes.
type Listener func(Change)

// Notifier fans changes out to registered listeners.
type Notifier struct {
	listeners []entry
	nextID    int
}

type entry struct {
	id int
	fn Listener
}

// Subscribe registers fn and returns a function that removes it again.
func (n *Notifier) Subscribe(fn Listener) (cancel func()) {
	n.nextID++
	id := n.nextID
	n.listeners = append(n.listeners, entry{id: id, fn: fn})
	return func() { n.remove(id) }
}

func (n *Notifier) remove(id int) {
	for i, e := range n.listeners {
		if e.id == id {
			n.listeners = append(n.listeners[:i:i], n.listeners[i+1:]...)
			return
		}
	}
}

// Emit notifies every listener registered at the time of the call.
func (n *Notifier) Emit(field string, value any) {
	if len(n.listeners) == 0 {
		return
	}
	snapshot := n.listeners
	c := Change{Field: field, Value: value}
	for _, e := range snapshot {
		e.fn(c)
	}
}

// Len returns the number of listeners.
func (n *Notifier) Len() int {
	return len(n.listeners)
}

// Signal is a parameterless event, used for "something changed, re-query".
type Signal struct {
	n Notifier
}

// Subscribe registers fn and returns its cancel function.
func (s *Signal) Subscribe(fn func()) (cancel func()) {
	return s.n.Subscribe(func(Change) { fn() })
}

// Fire runs every subscriber.
func (s *Signal) Fire() {
	s.n.Emit("", nil)
}

// Len returns the number of subscribers.
func (s *Signal) Len() int {
	return s.n.Len()
}
