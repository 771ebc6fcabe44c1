package client

import (
	"github.com/vango-dev/live/pkg/dom"
	"github.com/vango-dev/live/pkg/protocol"
	"golang.org/x/net/html"
)

// Trigger sends {"id": id, "event": event} to the server, connecting first
// if needed. event must be JSON-serializable.
func (s *Session) Trigger(id string, event any) {
	s.post(func() {
		s.trigger(id, event)
	})
}

func (s *Session) trigger(id string, event any) {
	s.connect()
	data, err := protocol.EncodeTrigger(id, event)
	if err != nil {
		s.logger.Error("encode event failed", "id", id, "error", err)
		return
	}
	s.send(data)
}

// Forward suppresses ev's default action and triggers its type with detail.
// PreventDefault runs before Forward returns.
func (s *Session) Forward(id string, ev *dom.Event, detail any) {
	ev.PreventDefault()
	s.post(func() {
		s.forward(id, ev, detail)
	})
}

// forward is Forward for listeners, which already run on the loop.
func (s *Session) forward(id string, ev *dom.Event, detail any) {
	ev.PreventDefault()
	s.trigger(id, protocol.EventPayload{Type: ev.Type, Detail: detail})
}

// ForwardFormData is Forward plus the name/value pairs of the form
// associated with the event's target.
func (s *Session) ForwardFormData(id string, ev *dom.Event, detail any) {
	ev.PreventDefault()
	s.post(func() {
		s.forwardFormData(id, ev, detail)
	})
}

// forwardFormData reads the form values at the time it runs.
func (s *Session) forwardFormData(id string, ev *dom.Event, detail any) {
	ev.PreventDefault()
	payload := protocol.EventPayload{Type: ev.Type, Detail: detail, FormData: [][2]string{}}
	if ev.Target != nil {
		if form := s.doc.Form(ev.Target); form != nil {
			payload.FormData = dom.FormData(form)
		}
	}
	s.trigger(id, payload)
}

// BindForward forwards every event of typ dispatched on the element with
// the given id. The listener is removed when the element is unbound, or
// when it leaves the document if it was never bound.
func (s *Session) BindForward(id, typ string, detail any) {
	s.post(func() {
		if b, ok := s.registry.Get(id); ok {
			b.Forward(typ, detail)
			return
		}
		n := s.doc.GetElementByID(id)
		if n == nil {
			s.logger.Warn("forward target not found", "id", id, "event", typ)
			return
		}
		s.unbound[n] = append(s.unbound[n], s.doc.AddEventListener(n, typ, func(ev *dom.Event) {
			s.forward(id, ev, detail)
		}))
	})
}

// dropUnbound removes the forwarders added to n while it was not bound.
func (s *Session) dropUnbound(n *html.Node) {
	removers, ok := s.unbound[n]
	if !ok {
		return
	}
	delete(s.unbound, n)
	for _, remove := range removers {
		remove()
	}
}
