package dom

import (
	"golang.org/x/net/html"
)

// Morpher transforms live nodes into new content through a Document, so
// every change is observed.
type Morpher interface {
	// Morph transforms target into content. target is kept when it is
	// compatible with content and replaced by a clone otherwise.
	Morph(d *Document, target, content *html.Node)

	// MorphChildren transforms the children of target into nodes.
	MorphChildren(d *Document, target *html.Node, nodes []*html.Node)
}

// DefaultMorpher matches children by id, then by position, and patches
// matched nodes in place. Content nodes are never adopted; new nodes are
// inserted as clones.
type DefaultMorpher struct{}

var _ Morpher = DefaultMorpher{}

// Morph implements Morpher.
func (m DefaultMorpher) Morph(d *Document, target, content *html.Node) {
	if !compatible(target, content) {
		_ = d.ReplaceWith(target, Clone(content))
		return
	}

	switch target.Type {
	case html.TextNode, html.CommentNode:
		d.SetData(target, content.Data)
	case html.ElementNode:
		m.morphAttrs(d, target, content)
		var children []*html.Node
		for c := content.FirstChild; c != nil; c = c.NextSibling {
			children = append(children, c)
		}
		m.MorphChildren(d, target, children)
	}
}

// MorphChildren implements Morpher.
func (m DefaultMorpher) MorphChildren(d *Document, target *html.Node, nodes []*html.Node) {
	d.Batch(func() {
		cur := target.FirstChild
		for _, next := range nodes {
			match := m.match(cur, next)
			if match == nil {
				d.InsertBefore(target, Clone(next), cur)
				continue
			}
			if match == cur {
				cur = cur.NextSibling
			} else {
				d.InsertBefore(target, match, cur)
			}
			m.Morph(d, match, next)
		}

		for cur != nil {
			stale := cur
			cur = cur.NextSibling
			d.Remove(stale)
		}
	})
}

// match finds the existing node, at or after cur, that next should morph.
func (DefaultMorpher) match(cur, next *html.Node) *html.Node {
	if id := ID(next); id != "" && next.Type == html.ElementNode {
		for c := cur; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && ID(c) == id && c.Data == next.Data {
				return c
			}
		}
		return nil
	}
	if cur != nil && compatible(cur, next) && ID(cur) == "" {
		return cur
	}
	return nil
}

func (DefaultMorpher) morphAttrs(d *Document, target, content *html.Node) {
	for _, a := range content.Attr {
		if a.Namespace != "" {
			continue
		}
		if v, ok := Attr(target, a.Key); !ok || v != a.Val {
			d.SetAttribute(target, a.Key, a.Val)
		}
	}

	var stale []string
	for _, a := range target.Attr {
		if a.Namespace != "" {
			continue
		}
		if _, ok := Attr(content, a.Key); !ok {
			stale = append(stale, a.Key)
		}
	}
	for _, key := range stale {
		d.RemoveAttribute(target, key)
	}
}

// compatible reports whether a can be patched into b.
func compatible(a, b *html.Node) bool {
	if a.Type != b.Type {
		return false
	}
	if a.Type == html.ElementNode {
		return a.Data == b.Data && a.Namespace == b.Namespace
	}
	return true
}
