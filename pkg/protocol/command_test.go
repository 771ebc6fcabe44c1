package protocol

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  Command
	}{
		{
			name:  "update",
			frame: `["update","my","<p>Goodbye World!</p>"]`,
			want:  &Update{ID: "my", HTML: "<p>Goodbye World!</p>"},
		},
		{
			name:  "update_with_reply",
			frame: `["update","my","<p>Goodbye World!</p>",{"reply":true}]`,
			want:  &Update{ID: "my", HTML: "<p>Goodbye World!</p>", Opts: Options{Reply: json.RawMessage(`true`)}},
		},
		{
			name:  "replace",
			frame: `["replace","#a .b","<b>x</b>"]`,
			want:  &Replace{Selector: "#a .b", HTML: "<b>x</b>"},
		},
		{
			name:  "prepend",
			frame: `["prepend","#list","<li>0</li>",{"reply":"t1"}]`,
			want:  &Prepend{Selector: "#list", HTML: "<li>0</li>", Opts: Options{Reply: json.RawMessage(`"t1"`)}},
		},
		{
			name:  "append",
			frame: `["append","#list","<li>9</li>"]`,
			want:  &Append{Selector: "#list", HTML: "<li>9</li>"},
		},
		{
			name:  "remove",
			frame: `["remove","#gone"]`,
			want:  &Remove{Selector: "#gone"},
		},
		{
			name:  "remove_null_options",
			frame: `["remove","#gone",null]`,
			want:  &Remove{Selector: "#gone"},
		},
		{
			name:  "dispatch_event_bare",
			frame: `["dispatchEvent","#btn","ping"]`,
			want:  &DispatchEvent{Selector: "#btn", Type: "ping"},
		},
		{
			name:  "dispatch_event_init_carries_reply",
			frame: `["dispatchEvent","#btn","ping",{"detail":{"n":1},"bubbles":true,"reply":7}]`,
			want: &DispatchEvent{
				Selector: "#btn",
				Type:     "ping",
				Init:     EventInit{Detail: json.RawMessage(`{"n":1}`), Bubbles: true},
				Opts:     Options{Reply: json.RawMessage(`7`)},
			},
		},
		{
			name:  "dispatch_event_explicit_options",
			frame: `["dispatchEvent","#btn","ping",{"cancelable":true},{"reply":"r"}]`,
			want: &DispatchEvent{
				Selector: "#btn",
				Type:     "ping",
				Init:     EventInit{Cancelable: true},
				Opts:     Options{Reply: json.RawMessage(`"r"`)},
			},
		},
		{
			name:  "script",
			frame: `["script","counter","return 1 + 1",{"reply":1}]`,
			want:  &Script{ID: "counter", Source: "return 1 + 1", Opts: Options{Reply: json.RawMessage(`1`)}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeCommand([]byte(tc.frame))
			if err != nil {
				t.Fatalf("DecodeCommand() error = %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("DecodeCommand() = %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestDecodeCommandErrors(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		code  ErrorCode
		op    string
	}{
		{"not_json", `{{`, ErrMalformedFrame, ""},
		{"object", `{"op":"update"}`, ErrMalformedFrame, ""},
		{"empty_array", `[]`, ErrMalformedFrame, ""},
		{"numeric_name", `[1,"a"]`, ErrMalformedFrame, ""},
		{"unknown_op", `["explode","#a"]`, ErrUnknownOperation, "explode"},
		{"case_sensitive", `["Update","a","b"]`, ErrUnknownOperation, "Update"},
		{"missing_args", `["update","a"]`, ErrInvalidArgument, "update"},
		{"extra_args", `["remove","#a",{},1]`, ErrInvalidArgument, "remove"},
		{"wrong_type", `["update",1,"b"]`, ErrInvalidArgument, "update"},
		{"options_not_object", `["append","#a","b",true]`, ErrInvalidArgument, "append"},
		{"init_not_object", `["dispatchEvent","#a","x","y"]`, ErrInvalidArgument, "dispatchEvent"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeCommand([]byte(tc.frame))
			if err == nil {
				t.Fatal("DecodeCommand() should fail")
			}
			var perr *Error
			if !errors.As(err, &perr) {
				t.Fatalf("error type = %T, want *Error", err)
			}
			if perr.Code != tc.code {
				t.Errorf("Code = %v, want %v", perr.Code, tc.code)
			}
			if perr.Op != tc.op {
				t.Errorf("Op = %q, want %q", perr.Op, tc.op)
			}
		})
	}
}

func TestDecodeCommandTooLarge(t *testing.T) {
	frame := `["update","a","` + strings.Repeat("x", MaxFrameSize) + `"]`
	_, err := DecodeCommand([]byte(frame))
	if !errors.Is(err, &Error{Code: ErrFrameTooLarge}) {
		t.Fatalf("DecodeCommand() error = %v, want FrameTooLarge", err)
	}
}

func TestEncodeCommandRoundTrip(t *testing.T) {
	cmds := []Command{
		&Update{ID: "a", HTML: "<p>1</p>"},
		&Replace{Selector: ".x", HTML: "<i></i>", Opts: Options{Reply: json.RawMessage(`"tok"`)}},
		&Prepend{Selector: "#l", HTML: "<li>a</li>"},
		&Append{Selector: "#l", HTML: "<li>z</li>", Opts: Options{Reply: json.RawMessage(`true`)}},
		&Remove{Selector: "#gone"},
		&DispatchEvent{Selector: "#b", Type: "ping", Init: EventInit{Bubbles: true}, Opts: Options{Reply: json.RawMessage(`1`)}},
		&Script{ID: "a", Source: "return this.id"},
	}

	for _, cmd := range cmds {
		t.Run(cmd.Op().String(), func(t *testing.T) {
			data, err := EncodeCommand(cmd)
			if err != nil {
				t.Fatalf("EncodeCommand() error = %v", err)
			}
			got, err := DecodeCommand(data)
			if err != nil {
				t.Fatalf("DecodeCommand(%s) error = %v", data, err)
			}
			if !reflect.DeepEqual(got, cmd) {
				t.Errorf("round trip = %#v, want %#v", got, cmd)
			}
		})
	}
}

func TestOptionsWantsReply(t *testing.T) {
	tests := []struct {
		reply string
		want  bool
	}{
		{"", false},
		{"false", false},
		{"null", false},
		{"0", false},
		{`""`, false},
		{"true", true},
		{"1", true},
		{`"abc"`, true},
		{`{"n":1}`, true},
		{"[]", true},
	}

	for _, tc := range tests {
		opts := Options{Reply: json.RawMessage(tc.reply)}
		if got := opts.WantsReply(); got != tc.want {
			t.Errorf("WantsReply(%q) = %v, want %v", tc.reply, got, tc.want)
		}
	}
}

func TestTarget(t *testing.T) {
	if got := Target(&Update{ID: "my"}); got != "my" {
		t.Errorf("Target(update) = %q, want %q", got, "my")
	}
	if got := Target(&Remove{Selector: ".x"}); got != ".x" {
		t.Errorf("Target(remove) = %q, want %q", got, ".x")
	}
}

func TestOpString(t *testing.T) {
	for _, op := range Ops() {
		parsed, ok := ParseOp(op.String())
		if !ok || parsed != op {
			t.Errorf("ParseOp(%q) = %v, %v; want %v", op.String(), parsed, ok, op)
		}
		if !op.Valid() {
			t.Errorf("%v.Valid() = false", op)
		}
	}
	if got := Op(0xFF).String(); got != "unknown" {
		t.Errorf("Op(0xFF).String() = %q, want %q", got, "unknown")
	}
}

func TestWithReply(t *testing.T) {
	orig := &Script{ID: "my", Source: "return 1"}
	cmd := WithReply(orig, json.RawMessage(`"t1"`))

	if len(orig.Opts.Reply) != 0 {
		t.Fatalf("original modified: %s", orig.Opts.Reply)
	}
	data, err := EncodeCommand(cmd)
	if err != nil {
		t.Fatalf("EncodeCommand: %v", err)
	}
	if want := `["script","my","return 1",{"reply":"t1"}]`; string(data) != want {
		t.Errorf("EncodeCommand = %s, want %s", data, want)
	}
}
