package dom

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ReadyState mirrors document.readyState.
type ReadyState string

const (
	Loading     ReadyState = "loading"
	Interactive ReadyState = "interactive"
	Complete    ReadyState = "complete"
)

// Document is a mutable HTML document.
type Document struct {
	root  *html.Node
	url   *url.URL
	ready ReadyState

	hidden bool

	observers  []*observer
	nextObs    int
	batchDepth int
	pending    []MutationRecord

	listeners map[*html.Node][]*listener
	nextLis   int

	selectors map[string]cascadia.SelectorGroup
}

// Option configures a Document.
type Option func(*Document)

// WithURL sets the document location.
func WithURL(u *url.URL) Option {
	return func(d *Document) {
		d.url = u
	}
}

// WithReadyState sets the initial ready state. Parsed documents start
// Complete.
func WithReadyState(s ReadyState) Option {
	return func(d *Document) {
		d.ready = s
	}
}

// WithHidden sets the initial visibility.
func WithHidden(hidden bool) Option {
	return func(d *Document) {
		d.hidden = hidden
	}
}

// Parse parses a complete HTML document.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return newDocument(root, opts...), nil
}

// ParseString parses a complete HTML document from a string.
func ParseString(s string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(s), opts...)
}

// New returns an empty document with html, head and body elements.
func New(opts ...Option) *Document {
	d, _ := ParseString("<!DOCTYPE html><html><head></head><body></body></html>", opts...)
	return d
}

func newDocument(root *html.Node, opts ...Option) *Document {
	d := &Document{
		root:      root,
		ready:     Complete,
		listeners: make(map[*html.Node][]*listener),
		selectors: make(map[string]cascadia.SelectorGroup),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.url == nil {
		d.url = &url.URL{Scheme: "http", Host: "localhost", Path: "/"}
	}
	return d
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// URL returns the document location.
func (d *Document) URL() *url.URL {
	return d.url
}

// Body returns the body element, or nil.
func (d *Document) Body() *html.Node {
	var body *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			body = n
			return false
		}
		return body == nil
	})
	return body
}

// Contains reports whether n is attached to the document.
func (d *Document) Contains(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.root {
			return true
		}
	}
	return false
}

// GetElementByID returns the first element with the given id, or nil.
func (d *Document) GetElementByID(id string) *html.Node {
	if id == "" {
		return nil
	}
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && ID(n) == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// QuerySelectorAll returns every element matching sel in document order.
func (d *Document) QuerySelectorAll(sel string) ([]*html.Node, error) {
	group, err := d.compile(sel)
	if err != nil {
		return nil, err
	}
	return cascadia.QueryAll(d.root, group), nil
}

// QuerySelector returns the first element matching sel, or nil.
func (d *Document) QuerySelector(sel string) (*html.Node, error) {
	group, err := d.compile(sel)
	if err != nil {
		return nil, err
	}
	return cascadia.Query(d.root, group), nil
}

// ElementsByClassName returns every element carrying class in document order.
func (d *Document) ElementsByClassName(class string) []*html.Node {
	return ElementsByClassName(d.root, class)
}

// ElementsByClassName returns every element under n, n included, carrying
// class.
func ElementsByClassName(n *html.Node, class string) []*html.Node {
	var out []*html.Node
	walk(n, func(c *html.Node) bool {
		if c.Type == html.ElementNode && HasClass(c, class) {
			out = append(out, c)
		}
		return true
	})
	return out
}

func (d *Document) compile(sel string) (cascadia.SelectorGroup, error) {
	if group, ok := d.selectors[sel]; ok {
		return group, nil
	}
	group, err := cascadia.ParseGroup(sel)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidSelector, sel, err)
	}
	d.selectors[sel] = group
	return group, nil
}

// walk visits n and its descendants depth-first. Returning false from fn
// skips the node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		walk(c, fn)
		c = next
	}
}

// Walk visits n and every descendant in document order.
func Walk(n *html.Node, fn func(*html.Node)) {
	walk(n, func(c *html.Node) bool {
		fn(c)
		return true
	})
}
