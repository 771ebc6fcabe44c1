package client

import (
	"strings"

	"github.com/vango-dev/live/pkg/dom"
	"github.com/vango-dev/live/pkg/protocol"
	"golang.org/x/net/html"
)

// observeDocument subscribes the tracker to document mutations.
func (s *Session) observeDocument() {
	s.stopObserve = s.doc.Observe(s.handleMutations)
}

// scan binds every marker element currently in the document, one bind per
// element. Bindings whose element left the document without a record are
// dropped.
func (s *Session) scan() {
	for _, id := range s.registry.IDs() {
		b, _ := s.registry.Get(id)
		if !s.doc.Contains(b.node) || !s.isMarked(b.node) {
			s.registry.remove(b)
			b.dispose()
		}
	}

	for _, n := range s.doc.ElementsByClassName(s.config.MarkerClass) {
		if b := s.registry.lookup(n); b != nil {
			if b.ID == dom.ID(n) {
				b.Data = dom.Dataset(n)
				s.emitBind(b)
				continue
			}
			s.unbind(b)
		}
		s.bind(n)
	}
	s.metrics.setBound(s.registry.Len())
}

// handleMutations turns membership transitions into bind and unbind.
// Removals run first so an element moved within one batch stays bound.
func (s *Session) handleMutations(records []dom.MutationRecord) {
	var added []*html.Node
	for _, r := range records {
		switch r.Type {
		case dom.ChildList:
			for _, n := range r.Removed {
				s.unbindDetached(n)
			}
			added = append(added, r.Added...)
		case dom.Attributes:
			switch r.AttributeName {
			case "class", "id":
				s.handleAttribute(r)
			}
		}
	}

	for _, root := range added {
		if !s.doc.Contains(root) {
			continue
		}
		dom.Walk(root, func(n *html.Node) {
			if s.isMarked(n) && s.registry.lookup(n) == nil {
				s.bind(n)
			}
		})
	}
	s.metrics.setBound(s.registry.Len())
}

func (s *Session) unbindDetached(root *html.Node) {
	if s.doc.Contains(root) {
		return
	}
	dom.Walk(root, func(n *html.Node) {
		s.dropUnbound(n)
		if b := s.registry.lookup(n); b != nil {
			s.unbind(b)
		}
	})
}

func (s *Session) handleAttribute(r dom.MutationRecord) {
	n := r.Target
	if !s.doc.Contains(n) {
		return
	}
	b := s.registry.lookup(n)
	marked := s.isMarked(n)

	switch {
	case b != nil && !marked:
		s.unbind(b)
	case b != nil && b.ID != dom.ID(n):
		s.unbind(b)
		s.bind(n)
	case b == nil && marked:
		s.bind(n)
	}
}

func (s *Session) isMarked(n *html.Node) bool {
	return n.Type == html.ElementNode && dom.HasClass(n, s.config.MarkerClass)
}

// bind registers n, sends bind and starts its controllers.
func (s *Session) bind(n *html.Node) {
	id := dom.ID(n)
	if id == "" {
		s.logger.Warn("live element has no id, not binding", "tag", n.Data)
		return
	}
	if prev, ok := s.registry.Get(id); ok && prev.node != n {
		if s.doc.Contains(prev.node) {
			s.logger.Warn("duplicate live element id, not binding", "id", id)
			return
		}
		s.unbind(prev)
	}

	b := &Binding{ID: id, Data: dom.Dataset(n), session: s, node: n}
	s.registry.add(b)
	s.emitBind(b)
	s.startControllers(b)
}

// unbind removes b, runs its teardown and sends unbind.
func (s *Session) unbind(b *Binding) {
	s.registry.remove(b)
	b.dispose()

	data, err := protocol.EncodeUnbind(b.ID)
	if err != nil {
		s.logger.Error("encode unbind failed", "id", b.ID, "error", err)
		return
	}
	s.send(data)
}

func (s *Session) emitBind(b *Binding) {
	data, err := protocol.EncodeBind(b.ID, b.Data)
	if err != nil {
		s.logger.Error("encode bind failed", "id", b.ID, "error", err)
		return
	}
	s.send(data)
}

func (s *Session) startControllers(b *Binding) {
	names, ok := dom.Attr(b.node, s.config.ControllerAttribute)
	if !ok {
		return
	}
	for _, name := range strings.Fields(names) {
		c, ok := s.controllers[name]
		if !ok {
			s.logger.Debug("unknown controller", "id", b.ID, "controller", name)
			continue
		}
		s.runController(name, c, b)
	}
}

func (s *Session) runController(name string, c Controller, b *Binding) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("controller panic", "id", b.ID, "controller", name, "panic", r)
		}
	}()
	c(b)
}
