package dom

import "golang.org/x/net/html"

// Event is a native DOM-like event delivered to listeners.
type Event struct {
	Type   string
	Target *html.Node
	// Value carries the new value for input and change events.
	Value string
	// Data is free-form payload for synthetic events.
	Data any

	stopped bool
}

// StopPropagation prevents the event from reaching ancestors of the current node.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// Listener handles a dispatched event.
type Listener func(*Event) error

// Listen registers l for events of type name on n.
func (d *Document) Listen(n *html.Node, name string, l Listener) {
	byName, ok := d.listeners[n]
	if !ok {
		byName = make(map[string][]Listener)
		d.listeners[n] = byName
	}
	byName[name] = append(byName[name], l)
}

// Dispatch delivers ev to n and then to each ancestor, in registration
// order per node. The first listener error stops delivery and is returned.
func (d *Document) Dispatch(n *html.Node, ev *Event) error {
	ev.Target = n
	for cur := n; cur != nil; cur = cur.Parent {
		ls := d.listeners[cur][ev.Type]
		// Listeners added during dispatch run on the next event.
		snapshot := append([]Listener(nil), ls...)
		for _, l := range snapshot {
			if err := l(ev); err != nil {
				return err
			}
		}
		if ev.stopped {
			return nil
		}
	}
	return nil
}

// ListenerCount reports how many listeners of type name are registered on n.
func (d *Document) ListenerCount(n *html.Node, name string) int {
	return len(d.listeners[n][name])
}
