package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Form returns the form associated with n: n itself, the form named by its
// form attribute, or its nearest form ancestor.
func (d *Document) Form(n *html.Node) *html.Node {
	if IsElement(n, atom.Form) {
		return n
	}
	if id, ok := Attr(n, "form"); ok {
		if f := d.GetElementByID(id); IsElement(f, atom.Form) {
			return f
		}
	}
	for p := n; p != nil; p = p.Parent {
		if IsElement(p, atom.Form) {
			return p
		}
	}
	return nil
}

// FormData returns the successful controls of form as name/value pairs in
// tree order, the way new FormData(form) enumerates them.
func FormData(form *html.Node) [][2]string {
	var pairs [][2]string
	walk(form, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		name, ok := Attr(n, "name")
		if !ok || name == "" {
			return true
		}
		if _, disabled := Attr(n, "disabled"); disabled {
			return true
		}

		switch n.DataAtom {
		case atom.Input:
			typ, _ := Attr(n, "type")
			typ = strings.ToLower(typ)
			switch typ {
			case "submit", "button", "reset", "image", "file":
				return true
			case "checkbox", "radio":
				if _, checked := Attr(n, "checked"); !checked {
					return true
				}
				val, ok := Attr(n, "value")
				if !ok {
					val = "on"
				}
				pairs = append(pairs, [2]string{name, val})
			default:
				val, _ := Attr(n, "value")
				pairs = append(pairs, [2]string{name, val})
			}
		case atom.Textarea:
			pairs = append(pairs, [2]string{name, TextContent(n)})
		case atom.Select:
			pairs = append(pairs, selectValues(n, name)...)
			return false
		}
		return true
	})
	return pairs
}

func selectValues(sel *html.Node, name string) [][2]string {
	_, multiple := Attr(sel, "multiple")
	var options, selected []*html.Node
	Walk(sel, func(n *html.Node) {
		if IsElement(n, atom.Option) {
			options = append(options, n)
			if _, ok := Attr(n, "selected"); ok {
				selected = append(selected, n)
			}
		}
	})
	if len(selected) == 0 && !multiple && len(options) > 0 {
		selected = options[:1]
	}
	if !multiple && len(selected) > 1 {
		selected = selected[len(selected)-1:]
	}

	pairs := make([][2]string, 0, len(selected))
	for _, o := range selected {
		val, ok := Attr(o, "value")
		if !ok {
			val = strings.TrimSpace(TextContent(o))
		}
		pairs = append(pairs, [2]string{name, val})
	}
	return pairs
}
