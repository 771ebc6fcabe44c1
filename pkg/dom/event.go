package dom

import (
	"golang.org/x/net/html"
)

// Event names dispatched by the document itself.
const (
	EventVisibilityChange = "visibilitychange"
	EventContentLoaded    = "DOMContentLoaded"
	EventReadyStateChange = "readystatechange"
)

// Event is a DOM event.
type Event struct {
	Type       string
	Detail     any
	Bubbles    bool
	Cancelable bool
	Composed   bool

	// Target is the node the event was dispatched on. CurrentTarget is the
	// node whose listener is running.
	Target        *html.Node
	CurrentTarget *html.Node

	defaultPrevented bool
	stopped          bool
}

// NewEvent returns a bubbling, cancelable event of the given type.
func NewEvent(typ string) *Event {
	return &Event{Type: typ, Bubbles: true, Cancelable: true}
}

// PreventDefault marks the event's default action as suppressed.
func (e *Event) PreventDefault() {
	if e.Cancelable {
		e.defaultPrevented = true
	}
}

// DefaultPrevented reports whether PreventDefault took effect.
func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}

// StopPropagation stops the event after the current node's listeners.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// Listener handles an event.
type Listener func(*Event)

type listener struct {
	id  int
	typ string
	fn  Listener
}

// AddEventListener registers fn for events of typ on n. The returned
// function removes it.
func (d *Document) AddEventListener(n *html.Node, typ string, fn Listener) func() {
	d.nextLis++
	l := &listener{id: d.nextLis, typ: typ, fn: fn}
	d.listeners[n] = append(d.listeners[n], l)
	return func() {
		list := d.listeners[n]
		for i, cur := range list {
			if cur == l {
				list = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		if len(list) == 0 {
			delete(d.listeners, n)
			return
		}
		d.listeners[n] = list
	}
}

// ListenerCount returns the number of listeners registered on n.
func (d *Document) ListenerCount(n *html.Node) int {
	return len(d.listeners[n])
}

// DispatchEvent dispatches ev on target and, when it bubbles, on each
// ancestor. It returns false if a listener prevented the default action.
func (d *Document) DispatchEvent(target *html.Node, ev *Event) bool {
	ev.Target = target
	for n := target; n != nil; n = n.Parent {
		ev.CurrentTarget = n
		for _, l := range append([]*listener(nil), d.listeners[n]...) {
			if l.typ == ev.Type {
				l.fn(ev)
			}
		}
		if ev.stopped || !ev.Bubbles {
			break
		}
	}
	ev.CurrentTarget = nil
	return !ev.defaultPrevented
}

// Hidden reports whether the document is hidden.
func (d *Document) Hidden() bool {
	return d.hidden
}

// SetHidden changes visibility and dispatches visibilitychange on the
// document when it differs.
func (d *Document) SetHidden(hidden bool) {
	if d.hidden == hidden {
		return
	}
	d.hidden = hidden
	d.DispatchEvent(d.root, &Event{Type: EventVisibilityChange})
}

// OnVisibilityChange registers fn for visibilitychange.
func (d *Document) OnVisibilityChange(fn func(hidden bool)) func() {
	return d.AddEventListener(d.root, EventVisibilityChange, func(*Event) {
		fn(d.hidden)
	})
}

// ReadyState returns the document's ready state.
func (d *Document) ReadyState() ReadyState {
	return d.ready
}

// SetReadyState advances the ready state. Leaving Loading dispatches
// DOMContentLoaded.
func (d *Document) SetReadyState(s ReadyState) {
	if d.ready == s {
		return
	}
	prev := d.ready
	d.ready = s
	d.DispatchEvent(d.root, &Event{Type: EventReadyStateChange})
	if prev == Loading {
		d.DispatchEvent(d.root, &Event{Type: EventContentLoaded})
	}
}

// OnContentLoaded runs fn once the document has left the Loading state,
// immediately if it already has. The returned function cancels a pending
// call.
func (d *Document) OnContentLoaded(fn func()) func() {
	if d.ready != Loading {
		fn()
		return func() {}
	}
	var remove func()
	remove = d.AddEventListener(d.root, EventContentLoaded, func(*Event) {
		remove()
		fn()
	})
	return remove
}
