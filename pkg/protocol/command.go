package protocol

import (
	"bytes"
	"encoding/json"
)

// Options is the trailing options object of an inbound frame.
type Options struct {
	// Reply is the raw reply token. Any JSON value is accepted and echoed
	// back verbatim in the Reply.
	Reply json.RawMessage `json:"reply,omitempty"`
}

// WantsReply reports whether the token is truthy. false, null, 0 and ""
// do not request a reply.
func (o Options) WantsReply() bool {
	t := bytes.TrimSpace(o.Reply)
	if len(t) == 0 {
		return false
	}
	switch string(t) {
	case "false", "null", "0", `""`, "-0", "0.0":
		return false
	}
	return true
}

// Command is a decoded server → client operation. The set of
// implementations is closed: Update, Replace, Prepend, Append, Remove,
// DispatchEvent and Script.
type Command interface {
	// Op returns the operation kind.
	Op() Op

	// Options returns the trailing options of the frame.
	Options() Options

	command()
}

// Update morphs the content of the element with the given id.
type Update struct {
	ID   string
	HTML string
	Opts Options
}

// Replace morphs every element matching Selector into a fresh copy of HTML.
type Replace struct {
	Selector string
	HTML     string
	Opts     Options
}

// Prepend inserts a fresh copy of HTML at the start of every match.
type Prepend struct {
	Selector string
	HTML     string
	Opts     Options
}

// Append inserts a fresh copy of HTML at the end of every match.
type Append struct {
	Selector string
	HTML     string
	Opts     Options
}

// Remove removes every element matching Selector.
type Remove struct {
	Selector string
	Opts     Options
}

// EventInit mirrors the CustomEvent constructor dictionary.
type EventInit struct {
	Detail     json.RawMessage `json:"detail,omitempty"`
	Bubbles    bool            `json:"bubbles,omitempty"`
	Cancelable bool            `json:"cancelable,omitempty"`
	Composed   bool            `json:"composed,omitempty"`
}

// DispatchEvent dispatches a custom event on every element matching Selector.
type DispatchEvent struct {
	Selector string
	Type     string
	Init     EventInit
	Opts     Options
}

// Script evaluates Source with the element identified by ID in scope.
type Script struct {
	ID     string
	Source string
	Opts   Options
}

func (*Update) Op() Op        { return OpUpdate }
func (*Replace) Op() Op       { return OpReplace }
func (*Prepend) Op() Op       { return OpPrepend }
func (*Append) Op() Op        { return OpAppend }
func (*Remove) Op() Op        { return OpRemove }
func (*DispatchEvent) Op() Op { return OpDispatchEvent }
func (*Script) Op() Op        { return OpScript }

func (c *Update) Options() Options        { return c.Opts }
func (c *Replace) Options() Options       { return c.Opts }
func (c *Prepend) Options() Options       { return c.Opts }
func (c *Append) Options() Options        { return c.Opts }
func (c *Remove) Options() Options        { return c.Opts }
func (c *DispatchEvent) Options() Options { return c.Opts }
func (c *Script) Options() Options        { return c.Opts }

func (*Update) command()        {}
func (*Replace) command()       {}
func (*Prepend) command()       {}
func (*Append) command()        {}
func (*Remove) command()        {}
func (*DispatchEvent) command() {}
func (*Script) command()        {}

// Target returns the id or selector a command applies to.
func Target(cmd Command) string {
	switch c := cmd.(type) {
	case *Update:
		return c.ID
	case *Replace:
		return c.Selector
	case *Prepend:
		return c.Selector
	case *Append:
		return c.Selector
	case *Remove:
		return c.Selector
	case *DispatchEvent:
		return c.Selector
	case *Script:
		return c.ID
	default:
		return ""
	}
}

// WithReply returns a copy of cmd whose options request a reply with token.
func WithReply(cmd Command, token json.RawMessage) Command {
	opts := Options{Reply: token}
	switch c := cmd.(type) {
	case *Update:
		cp := *c
		cp.Opts = opts
		return &cp
	case *Replace:
		cp := *c
		cp.Opts = opts
		return &cp
	case *Prepend:
		cp := *c
		cp.Opts = opts
		return &cp
	case *Append:
		cp := *c
		cp.Opts = opts
		return &cp
	case *Remove:
		cp := *c
		cp.Opts = opts
		return &cp
	case *DispatchEvent:
		cp := *c
		cp.Opts = opts
		return &cp
	case *Script:
		cp := *c
		cp.Opts = opts
		return &cp
	}
	return cmd
}
