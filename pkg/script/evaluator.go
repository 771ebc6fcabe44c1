package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dop251/goja"
)

var (
	// ErrTimeout is returned when a script runs past its deadline.
	ErrTimeout = errors.New("script: timeout")

	// ErrNotFunction is returned when the source does not compile to a
	// function body.
	ErrNotFunction = errors.New("script: source is not a function body")
)

// EvalError wraps an exception raised by a script.
type EvalError struct {
	Message string
	Err     error
}

func (e *EvalError) Error() string {
	return "script: " + e.Message
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// Evaluator runs source with el in scope and returns its result.
type Evaluator interface {
	Eval(ctx context.Context, el Element, source string) (any, error)
}

// Goja evaluates scripts with the goja JavaScript engine. The zero value is
// usable and has no timeout.
type Goja struct {
	// Timeout bounds a single evaluation. Zero means no limit beyond ctx.
	Timeout time.Duration

	// Logger receives console output. Defaults to slog.Default().
	Logger *slog.Logger
}

var _ Evaluator = (*Goja)(nil)

// NewGoja returns a goja evaluator with the given timeout.
func NewGoja(timeout time.Duration, logger *slog.Logger) *Goja {
	return &Goja{Timeout: timeout, Logger: logger}
}

// Eval implements Evaluator. A fresh runtime is used per call.
func (g *Goja) Eval(ctx context.Context, el Element, source string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vm := goja.New()
	logger := g.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := installConsole(vm, logger); err != nil {
		return nil, err
	}

	this, err := elementObject(vm, el)
	if err != nil {
		return nil, err
	}
	if err := vm.Set("element", this); err != nil {
		return nil, err
	}

	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	wrapped, err := vm.RunString("(function(){\n" + source + "\n})")
	if err != nil {
		return nil, convertError(ctx, err)
	}
	fn, ok := goja.AssertFunction(wrapped)
	if !ok {
		return nil, ErrNotFunction
	}

	result, err := fn(this)
	if err != nil {
		return nil, convertError(ctx, err)
	}
	return export(result), nil
}

func export(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v.Export()
}

func convertError(ctx context.Context, err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	var exception *goja.Exception
	if errors.As(err, &exception) {
		return &EvalError{Message: exception.Value().String(), Err: err}
	}

	var syntax *goja.CompilerSyntaxError
	if errors.As(err, &syntax) {
		return &EvalError{Message: syntax.Error(), Err: err}
	}
	return fmt.Errorf("script: %w", err)
}

func installConsole(vm *goja.Runtime, logger *slog.Logger) error {
	console := vm.NewObject()
	write := func(level slog.Level) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			args := make([]any, 0, len(call.Arguments))
			for _, a := range call.Arguments {
				args = append(args, a.String())
			}
			logger.Log(context.Background(), level, "script console", "args", args)
			return goja.Undefined()
		}
	}
	if err := console.Set("log", write(slog.LevelInfo)); err != nil {
		return err
	}
	if err := console.Set("error", write(slog.LevelError)); err != nil {
		return err
	}
	return vm.Set("console", console)
}

func elementObject(vm *goja.Runtime, el Element) (*goja.Object, error) {
	obj := vm.NewObject()

	getter := func(fn func() any) goja.Value {
		return vm.ToValue(func(goja.FunctionCall) goja.Value {
			return vm.ToValue(fn())
		})
	}
	setter := func(fn func(string)) goja.Value {
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			fn(call.Argument(0).String())
			return goja.Undefined()
		})
	}

	props := []struct {
		name string
		get  goja.Value
		set  goja.Value
	}{
		{"id", getter(func() any { return el.ID() }), nil},
		{"tagName", getter(func() any { return el.TagName() }), nil},
		{"textContent", getter(func() any { return el.TextContent() }), setter(el.SetTextContent)},
		{"innerHTML", getter(func() any { return el.InnerHTML() }), setter(func(s string) {
			if err := el.SetInnerHTML(s); err != nil {
				panic(vm.NewGoError(err))
			}
		})},
		{"dataset", getter(func() any { return el.Dataset() }), nil},
	}
	for _, p := range props {
		if err := obj.DefineAccessorProperty(p.name, p.get, p.set, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
			return nil, err
		}
	}

	methods := map[string]func(goja.FunctionCall) goja.Value{
		"getAttribute": func(call goja.FunctionCall) goja.Value {
			v, ok := el.GetAttribute(call.Argument(0).String())
			if !ok {
				return goja.Null()
			}
			return vm.ToValue(v)
		},
		"setAttribute": func(call goja.FunctionCall) goja.Value {
			el.SetAttribute(call.Argument(0).String(), call.Argument(1).String())
			return goja.Undefined()
		},
		"removeAttribute": func(call goja.FunctionCall) goja.Value {
			el.RemoveAttribute(call.Argument(0).String())
			return goja.Undefined()
		},
	}
	for name, fn := range methods {
		if err := obj.Set(name, fn); err != nil {
			return nil, err
		}
	}
	return obj, nil
}
