package protocol

// Op identifies an inbound operation.
type Op uint8

const (
	OpUpdate        Op = 0x01 // Morph an element's content by id
	OpReplace       Op = 0x02 // Morph every selector match into new markup
	OpPrepend       Op = 0x03 // Insert markup before every match's children
	OpAppend        Op = 0x04 // Insert markup after every match's children
	OpRemove        Op = 0x05 // Remove every selector match
	OpDispatchEvent Op = 0x06 // Dispatch a custom event on every match
	OpScript        Op = 0x07 // Evaluate source against an element
)

var opNames = map[Op]string{
	OpUpdate:        "update",
	OpReplace:       "replace",
	OpPrepend:       "prepend",
	OpAppend:        "append",
	OpRemove:        "remove",
	OpDispatchEvent: "dispatchEvent",
	OpScript:        "script",
}

var opsByName = func() map[string]Op {
	m := make(map[string]Op, len(opNames))
	for op, name := range opNames {
		m[name] = op
	}
	return m
}()

// String returns the wire name of the operation.
func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether op belongs to the closed operation set.
func (op Op) Valid() bool {
	_, ok := opNames[op]
	return ok
}

// ParseOp returns the operation with the given wire name.
func ParseOp(name string) (Op, bool) {
	op, ok := opsByName[name]
	return op, ok
}

// Ops returns every operation in wire order.
func Ops() []Op {
	return []Op{OpUpdate, OpReplace, OpPrepend, OpAppend, OpRemove, OpDispatchEvent, OpScript}
}
