package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeCommand decodes an inbound frame into a Command.
//
// Any failure is returned as *Error so callers can log the code and keep
// processing later frames.
func DecodeCommand(data []byte) (Command, error) {
	if len(data) > MaxFrameSize {
		return nil, newError(ErrFrameTooLarge, "", fmt.Sprintf("%d bytes exceeds %d", len(data), MaxFrameSize), nil)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, newError(ErrMalformedFrame, "", "frame is not a JSON array", err)
	}
	if len(raw) == 0 {
		return nil, newError(ErrMalformedFrame, "", "empty frame", nil)
	}

	var name string
	if err := json.Unmarshal(raw[0], &name); err != nil {
		return nil, newError(ErrMalformedFrame, "", "operation name is not a string", err)
	}

	op, ok := ParseOp(name)
	if !ok {
		return nil, newError(ErrUnknownOperation, name, "unknown operation", nil)
	}

	r := &argReader{op: name, args: raw[1:]}
	var err error

	switch op {
	case OpUpdate:
		c := &Update{}
		if err := r.expect(2, 3); err != nil {
			return nil, err
		}
		if c.ID, c.HTML, c.Opts, err = r.pair("id", "html"); err != nil {
			return nil, err
		}
		return c, nil

	case OpReplace:
		c := &Replace{}
		if err := r.expect(2, 3); err != nil {
			return nil, err
		}
		if c.Selector, c.HTML, c.Opts, err = r.pair("selector", "html"); err != nil {
			return nil, err
		}
		return c, nil

	case OpPrepend:
		c := &Prepend{}
		if err := r.expect(2, 3); err != nil {
			return nil, err
		}
		if c.Selector, c.HTML, c.Opts, err = r.pair("selector", "html"); err != nil {
			return nil, err
		}
		return c, nil

	case OpAppend:
		c := &Append{}
		if err := r.expect(2, 3); err != nil {
			return nil, err
		}
		if c.Selector, c.HTML, c.Opts, err = r.pair("selector", "html"); err != nil {
			return nil, err
		}
		return c, nil

	case OpRemove:
		c := &Remove{}
		if err := r.expect(1, 2); err != nil {
			return nil, err
		}
		if c.Selector, err = r.string(0, "selector"); err != nil {
			return nil, err
		}
		if c.Opts, err = r.options(1); err != nil {
			return nil, err
		}
		return c, nil

	case OpDispatchEvent:
		c := &DispatchEvent{}
		if err := r.expect(2, 4); err != nil {
			return nil, err
		}
		if c.Selector, err = r.string(0, "selector"); err != nil {
			return nil, err
		}
		if c.Type, err = r.string(1, "type"); err != nil {
			return nil, err
		}
		if c.Init, err = r.eventInit(2); err != nil {
			return nil, err
		}
		// The event init dictionary doubles as the options object unless
		// an explicit one follows it.
		if c.Opts, err = r.options(2); err != nil {
			return nil, err
		}
		if len(r.args) == 4 {
			if c.Opts, err = r.options(3); err != nil {
				return nil, err
			}
		}
		return c, nil

	case OpScript:
		c := &Script{}
		if err := r.expect(2, 3); err != nil {
			return nil, err
		}
		if c.ID, c.Source, c.Opts, err = r.pair("id", "source"); err != nil {
			return nil, err
		}
		return c, nil
	}

	// Unreachable while ParseOp and this switch agree.
	return nil, newError(ErrUnknownOperation, name, "operation has no decoder", nil)
}

// EncodeCommand encodes a Command into its inbound frame form. It is the
// inverse of DecodeCommand and is used by servers and tests.
func EncodeCommand(cmd Command) ([]byte, error) {
	var frame []any
	switch c := cmd.(type) {
	case *Update:
		frame = []any{OpUpdate.String(), c.ID, c.HTML}
	case *Replace:
		frame = []any{OpReplace.String(), c.Selector, c.HTML}
	case *Prepend:
		frame = []any{OpPrepend.String(), c.Selector, c.HTML}
	case *Append:
		frame = []any{OpAppend.String(), c.Selector, c.HTML}
	case *Remove:
		frame = []any{OpRemove.String(), c.Selector}
	case *DispatchEvent:
		frame = []any{OpDispatchEvent.String(), c.Selector, c.Type, c.Init}
	case *Script:
		frame = []any{OpScript.String(), c.ID, c.Source}
	default:
		return nil, newError(ErrUnknownOperation, fmt.Sprintf("%T", cmd), "cannot encode command", nil)
	}
	if opts := cmd.Options(); len(opts.Reply) > 0 {
		frame = append(frame, opts)
	}
	return json.Marshal(frame)
}

// argReader reads positional arguments of one frame.
type argReader struct {
	op   string
	args []json.RawMessage
}

func (r *argReader) expect(min, max int) error {
	if n := len(r.args); n < min || n > max {
		return newError(ErrInvalidArgument, r.op,
			fmt.Sprintf("got %d arguments, want %d to %d", n, min, max), nil)
	}
	return nil
}

func (r *argReader) string(i int, name string) (string, error) {
	var s string
	if err := json.Unmarshal(r.args[i], &s); err != nil {
		return "", newError(ErrInvalidArgument, r.op, name+" must be a string", err)
	}
	return s, nil
}

// pair reads two string arguments followed by optional options.
func (r *argReader) pair(first, second string) (string, string, Options, error) {
	a, err := r.string(0, first)
	if err != nil {
		return "", "", Options{}, err
	}
	b, err := r.string(1, second)
	if err != nil {
		return "", "", Options{}, err
	}
	opts, err := r.options(2)
	return a, b, opts, err
}

func (r *argReader) options(i int) (Options, error) {
	var opts Options
	if i >= len(r.args) || isNull(r.args[i]) {
		return opts, nil
	}
	if !isObject(r.args[i]) {
		return opts, newError(ErrInvalidArgument, r.op, "options must be an object", nil)
	}
	if err := json.Unmarshal(r.args[i], &opts); err != nil {
		return opts, newError(ErrInvalidArgument, r.op, "invalid options", err)
	}
	return opts, nil
}

func (r *argReader) eventInit(i int) (EventInit, error) {
	var init EventInit
	if i >= len(r.args) || isNull(r.args[i]) {
		return init, nil
	}
	if !isObject(r.args[i]) {
		return init, newError(ErrInvalidArgument, r.op, "event init must be an object", nil)
	}
	if err := json.Unmarshal(r.args[i], &init); err != nil {
		return init, newError(ErrInvalidArgument, r.op, "invalid event init", err)
	}
	return init, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isObject(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '{'
}
