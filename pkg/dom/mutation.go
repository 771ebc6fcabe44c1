package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// MutationType identifies the kind of a MutationRecord.
type MutationType uint8

const (
	ChildList     MutationType = iota // Children added or removed
	Attributes                        // An attribute changed
	CharacterData                     // Text node data changed
)

// String returns the MutationObserver name of the type.
func (t MutationType) String() string {
	switch t {
	case ChildList:
		return "childList"
	case Attributes:
		return "attributes"
	case CharacterData:
		return "characterData"
	default:
		return "unknown"
	}
}

// MutationRecord describes one change to the document.
type MutationRecord struct {
	Type    MutationType
	Target  *html.Node
	Added   []*html.Node
	Removed []*html.Node

	// AttributeName and OldValue are set for Attributes records. HadOld is
	// false when the attribute did not exist before.
	AttributeName string
	OldValue      string
	HadOld        bool
}

type observer struct {
	id int
	fn func([]MutationRecord)
}

// Observe registers fn for mutation records. The returned function removes
// the observer.
func (d *Document) Observe(fn func([]MutationRecord)) func() {
	d.nextObs++
	o := &observer{id: d.nextObs, fn: fn}
	d.observers = append(d.observers, o)
	return func() {
		for i, cur := range d.observers {
			if cur == o {
				d.observers = append(d.observers[:i:i], d.observers[i+1:]...)
				return
			}
		}
	}
}

// Batch runs fn and delivers the records it produces once, after fn
// returns. Batches nest.
func (d *Document) Batch(fn func()) {
	d.batchDepth++
	defer func() {
		d.batchDepth--
		if d.batchDepth == 0 {
			d.deliver()
		}
	}()
	fn()
}

func (d *Document) record(r MutationRecord) {
	if len(d.observers) == 0 {
		return
	}
	d.pending = append(d.pending, r)
	if d.batchDepth == 0 {
		d.deliver()
	}
}

func (d *Document) deliver() {
	if len(d.pending) == 0 {
		return
	}
	records := d.pending
	d.pending = nil
	observers := append([]*observer(nil), d.observers...)
	for _, o := range observers {
		o.fn(records)
	}
}

// InsertBefore inserts child into parent before ref, or at the end when ref
// is nil. An attached child is moved.
func (d *Document) InsertBefore(parent, child, ref *html.Node) {
	if child == ref {
		return
	}
	if child.Parent != nil {
		d.Remove(child)
	}
	parent.InsertBefore(child, ref)
	d.record(MutationRecord{Type: ChildList, Target: parent, Added: []*html.Node{child}})
}

// Append inserts nodes at the end of parent's children.
func (d *Document) Append(parent *html.Node, nodes ...*html.Node) {
	d.Batch(func() {
		for _, n := range nodes {
			d.InsertBefore(parent, n, nil)
		}
	})
}

// Prepend inserts nodes, in order, before parent's first child.
func (d *Document) Prepend(parent *html.Node, nodes ...*html.Node) {
	d.Batch(func() {
		ref := parent.FirstChild
		for _, n := range nodes {
			if n == ref {
				ref = ref.NextSibling
				continue
			}
			d.InsertBefore(parent, n, ref)
		}
	})
}

// Remove detaches n from its parent. Detached nodes are ignored.
func (d *Document) Remove(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	parent.RemoveChild(n)
	d.record(MutationRecord{Type: ChildList, Target: parent, Removed: []*html.Node{n}})
}

// ReplaceWith replaces n with nodes.
func (d *Document) ReplaceWith(n *html.Node, nodes ...*html.Node) error {
	parent := n.Parent
	if parent == nil {
		return ErrNoParent
	}
	d.Batch(func() {
		ref := n.NextSibling
		d.Remove(n)
		for _, c := range nodes {
			if c == ref {
				ref = ref.NextSibling
			}
			d.InsertBefore(parent, c, ref)
		}
	})
	return nil
}

// ReplaceChildren removes every child of parent and appends nodes.
func (d *Document) ReplaceChildren(parent *html.Node, nodes ...*html.Node) {
	d.Batch(func() {
		for c := parent.FirstChild; c != nil; {
			next := c.NextSibling
			d.Remove(c)
			c = next
		}
		d.Append(parent, nodes...)
	})
}

// SetInnerHTML replaces the children of n with parsed markup.
func (d *Document) SetInnerHTML(n *html.Node, markup string) error {
	nodes, err := ParseFragment(markup)
	if err != nil {
		return err
	}
	d.ReplaceChildren(n, nodes...)
	return nil
}

// SetText replaces the children of n with a single text node.
func (d *Document) SetText(n *html.Node, text string) {
	d.ReplaceChildren(n, &html.Node{Type: html.TextNode, Data: text})
}

// SetData changes the data of a text or comment node.
func (d *Document) SetData(n *html.Node, data string) {
	if n.Data == data {
		return
	}
	old := n.Data
	n.Data = data
	d.record(MutationRecord{Type: CharacterData, Target: n, OldValue: old, HadOld: true})
}

// SetAttribute sets an attribute on an element.
func (d *Document) SetAttribute(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			if a.Val == val {
				return
			}
			n.Attr[i].Val = val
			d.record(MutationRecord{Type: Attributes, Target: n, AttributeName: key, OldValue: a.Val, HadOld: true})
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
	d.record(MutationRecord{Type: Attributes, Target: n, AttributeName: key})
}

// RemoveAttribute removes an attribute from an element.
func (d *Document) RemoveAttribute(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i:i], n.Attr[i+1:]...)
			d.record(MutationRecord{Type: Attributes, Target: n, AttributeName: key, OldValue: a.Val, HadOld: true})
			return
		}
	}
}

// AddClass adds class to the element's class list.
func (d *Document) AddClass(n *html.Node, class string) {
	if HasClass(n, class) {
		return
	}
	d.SetAttribute(n, "class", joinClasses(append(Classes(n), class)))
}

// RemoveClass removes class from the element's class list.
func (d *Document) RemoveClass(n *html.Node, class string) {
	if !HasClass(n, class) {
		return
	}
	var kept []string
	for _, c := range Classes(n) {
		if c != class {
			kept = append(kept, c)
		}
	}
	d.SetAttribute(n, "class", joinClasses(kept))
}

func joinClasses(classes []string) string {
	return strings.Join(classes, " ")
}
