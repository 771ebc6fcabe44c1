package client

import (
	"sort"

	"github.com/vango-dev/live/pkg/dom"
	"golang.org/x/net/html"
)

// Binding is a bound element. It is owned by the session loop.
type Binding struct {
	// ID is the element id the server knows the element by.
	ID string

	// Data is the element's dataset at bind time.
	Data map[string]string

	session   *Session
	node      *html.Node
	disposers []func()
}

// Node returns the bound element.
func (b *Binding) Node() *html.Node {
	return b.node
}

// Document returns the session's document.
func (b *Binding) Document() *dom.Document {
	return b.session.doc
}

// OnUnbind registers fn to run when the element is unbound. Disposers run
// in reverse order of registration.
func (b *Binding) OnUnbind(fn func()) {
	b.disposers = append(b.disposers, fn)
}

// Listen adds an event listener that is removed on unbind.
func (b *Binding) Listen(typ string, fn dom.Listener) {
	b.OnUnbind(b.session.doc.AddEventListener(b.node, typ, fn))
}

// Forward forwards every event of typ on the element to the server until
// the element is unbound.
func (b *Binding) Forward(typ string, detail any) {
	b.Listen(typ, func(ev *dom.Event) {
		b.session.forward(b.ID, ev, detail)
	})
}

// ForwardFormData forwards every event of typ together with the element's
// form data until the element is unbound.
func (b *Binding) ForwardFormData(typ string, detail any) {
	b.Listen(typ, func(ev *dom.Event) {
		b.session.forwardFormData(b.ID, ev, detail)
	})
}

func (b *Binding) dispose() {
	for i := len(b.disposers) - 1; i >= 0; i-- {
		b.disposers[i]()
	}
	b.disposers = nil
}

// Controller starts behaviour for a bound element whose controller
// attribute names it. Teardown is registered with Binding.OnUnbind.
type Controller func(b *Binding)

// Registry maps bound ids to their bindings.
type Registry struct {
	byID   map[string]*Binding
	byNode map[*html.Node]*Binding
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[string]*Binding),
		byNode: make(map[*html.Node]*Binding),
	}
}

// Get returns the binding for id.
func (r *Registry) Get(id string) (*Binding, bool) {
	b, ok := r.byID[id]
	return b, ok
}

func (r *Registry) lookup(n *html.Node) *Binding {
	return r.byNode[n]
}

func (r *Registry) add(b *Binding) {
	r.byID[b.ID] = b
	r.byNode[b.node] = b
}

func (r *Registry) remove(b *Binding) {
	if r.byID[b.ID] == b {
		delete(r.byID, b.ID)
	}
	if r.byNode[b.node] == b {
		delete(r.byNode, b.node)
	}
}

// Len returns the number of bindings.
func (r *Registry) Len() int {
	return len(r.byID)
}

// IDs returns the bound ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
