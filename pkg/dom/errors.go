package dom

import "errors"

var (
	// ErrInvalidSelector is returned when a selector does not compile.
	ErrInvalidSelector = errors.New("dom: invalid selector")

	// ErrNoParent is returned when a node that must be attached has no parent.
	ErrNoParent = errors.New("dom: node has no parent")

	// ErrNotElement is returned when an element is required.
	ErrNotElement = errors.New("dom: not an element")
)
