package script

import (
	"strings"

	"github.com/vango-dev/live/pkg/dom"
	"golang.org/x/net/html"
)

// Element is the view of a document element a script can reach.
type Element interface {
	ID() string
	TagName() string
	TextContent() string
	SetTextContent(string)
	InnerHTML() string
	SetInnerHTML(string) error
	Dataset() map[string]string
	GetAttribute(name string) (string, bool)
	SetAttribute(name, value string)
	RemoveAttribute(name string)
}

// DocumentElement adapts a node of a dom.Document. Writes go through the
// document so they produce mutation records.
type DocumentElement struct {
	doc  *dom.Document
	node *html.Node
}

// NewElement returns the Element view of n.
func NewElement(d *dom.Document, n *html.Node) *DocumentElement {
	return &DocumentElement{doc: d, node: n}
}

func (e *DocumentElement) ID() string              { return dom.ID(e.node) }
func (e *DocumentElement) TagName() string         { return strings.ToUpper(e.node.Data) }
func (e *DocumentElement) TextContent() string     { return dom.TextContent(e.node) }
func (e *DocumentElement) SetTextContent(s string) { e.doc.SetText(e.node, s) }
func (e *DocumentElement) InnerHTML() string       { return dom.InnerHTML(e.node) }

func (e *DocumentElement) SetInnerHTML(s string) error {
	return e.doc.SetInnerHTML(e.node, s)
}

func (e *DocumentElement) Dataset() map[string]string {
	return dom.Dataset(e.node)
}

func (e *DocumentElement) GetAttribute(name string) (string, bool) {
	return dom.Attr(e.node, name)
}

func (e *DocumentElement) SetAttribute(name, value string) {
	e.doc.SetAttribute(e.node, name, value)
}

func (e *DocumentElement) RemoveAttribute(name string) {
	e.doc.RemoveAttribute(e.node, name)
}
