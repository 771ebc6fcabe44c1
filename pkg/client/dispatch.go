package client

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/vango-dev/live/pkg/dom"
	"github.com/vango-dev/live/pkg/protocol"
	"github.com/vango-dev/live/pkg/script"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

// handleFrame decodes and applies one inbound frame. Frames that do not
// decode are logged and skipped; the connection stays open.
func (s *Session) handleFrame(data []byte) {
	s.metrics.recordFrameReceived()

	cmd, err := protocol.DecodeCommand(data)
	if err != nil {
		code := protocol.ErrUnknown
		var perr *protocol.Error
		if errors.As(err, &perr) {
			code = perr.Code
		}
		s.metrics.recordProtocolError(code.String())
		s.logger.Error("protocol error", "code", code.String(), "error", err)
		return
	}
	s.apply(cmd)
}

// apply runs cmd, then replies if the command asked for it. Mutations are
// batched so the tracker sees net membership changes before the reply is
// sent.
func (s *Session) apply(cmd protocol.Command) {
	op := cmd.Op().String()
	target := protocol.Target(cmd)

	ctx, span := s.tracer.Start(s.ctx, "live."+op,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("live.op", op),
			attribute.String("live.target", target),
		),
	)
	defer span.End()

	start := s.clock.Now()
	var value any
	var err error
	s.doc.Batch(func() {
		value, err = s.execute(ctx, cmd)
	})

	status := "ok"
	if err != nil {
		status = "error"
		err = &OperationError{Op: op, Target: target, Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("operation failed", "op", op, "target", target, "error", err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	s.metrics.recordOperation(op, status, s.clock.Now().Sub(start))

	opts := cmd.Options()
	if !opts.WantsReply() {
		return
	}
	reply := protocol.Reply{Token: opts.Reply}
	if err != nil || cmd.Op() == protocol.OpScript {
		reply.HasValue = true
		if err == nil {
			reply.Value = value
		}
	}
	data, encErr := protocol.EncodeReply(reply)
	if encErr != nil {
		// A script result that cannot be encoded replies null.
		s.logger.Warn("encode reply failed", "op", op, "error", encErr)
		data, _ = protocol.EncodeReply(protocol.Reply{Token: opts.Reply, HasValue: true})
	}
	s.send(data)
}

func (s *Session) execute(ctx context.Context, cmd protocol.Command) (any, error) {
	switch c := cmd.(type) {
	case *protocol.Update:
		n := s.doc.GetElementByID(c.ID)
		if n == nil {
			return nil, ErrElementNotFound
		}
		nodes, err := dom.ParseFragment(c.HTML)
		if err != nil {
			return nil, err
		}
		s.morpher.MorphChildren(s.doc, n, nodes)
		return nil, nil

	case *protocol.Replace:
		return nil, s.eachMatch(c.Selector, c.HTML, func(n *html.Node, nodes []*html.Node) {
			if len(nodes) == 1 && nodes[0].Type == html.ElementNode {
				s.morpher.Morph(s.doc, n, nodes[0])
				return
			}
			_ = s.doc.ReplaceWith(n, dom.CloneAll(nodes)...)
		})

	case *protocol.Prepend:
		return nil, s.eachMatch(c.Selector, c.HTML, func(n *html.Node, nodes []*html.Node) {
			s.doc.Prepend(n, dom.CloneAll(nodes)...)
		})

	case *protocol.Append:
		return nil, s.eachMatch(c.Selector, c.HTML, func(n *html.Node, nodes []*html.Node) {
			s.doc.Append(n, dom.CloneAll(nodes)...)
		})

	case *protocol.Remove:
		matches, err := s.doc.QuerySelectorAll(c.Selector)
		if err != nil {
			return nil, err
		}
		for _, n := range matches {
			if s.doc.Contains(n) {
				s.doc.Remove(n)
			}
		}
		return nil, nil

	case *protocol.DispatchEvent:
		matches, err := s.doc.QuerySelectorAll(c.Selector)
		if err != nil {
			return nil, err
		}
		var detail any
		if len(c.Init.Detail) > 0 {
			if err := json.Unmarshal(c.Init.Detail, &detail); err != nil {
				return nil, err
			}
		}
		for _, n := range matches {
			s.doc.DispatchEvent(n, &dom.Event{
				Type:       c.Type,
				Detail:     detail,
				Bubbles:    c.Init.Bubbles,
				Cancelable: c.Init.Cancelable,
				Composed:   c.Init.Composed,
			})
		}
		return nil, nil

	case *protocol.Script:
		n := s.doc.GetElementByID(c.ID)
		if n == nil {
			return nil, ErrElementNotFound
		}
		return s.evaluator.Eval(ctx, script.NewElement(s.doc, n), c.Source)
	}

	return nil, &protocol.Error{Code: protocol.ErrUnknownOperation, Op: cmd.Op().String()}
}

// eachMatch parses markup once and calls fn for every element matching
// selector that is still attached. fn must clone the nodes it inserts.
func (s *Session) eachMatch(selector, markup string, fn func(n *html.Node, nodes []*html.Node)) error {
	matches, err := s.doc.QuerySelectorAll(selector)
	if err != nil {
		return err
	}
	nodes, err := dom.ParseFragment(markup)
	if err != nil {
		return err
	}
	for _, n := range matches {
		if !s.doc.Contains(n) {
			continue
		}
		fn(n, nodes)
	}
	return nil
}
