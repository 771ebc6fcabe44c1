package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"runtime/debug"
	"sync"

	"github.com/vango-dev/live/pkg/dom"
	"github.com/vango-dev/live/pkg/script"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

// Session is a live connection between a document and a server.
//
// All session state is owned by one loop goroutine. Exported methods are
// safe for concurrent use: the asynchronous ones (Connect, Disconnect,
// Send, Trigger, Forward, ...) queue work and return, the synchronous ones
// (Do, Sync, Close and the accessors) wait for the loop. Synchronous methods
// must not be called from code already running on the loop, such as event
// listeners and controllers.
type Session struct {
	url       string
	doc       *dom.Document
	config    *Config
	logger    *slog.Logger
	dialer    Dialer
	evaluator script.Evaluator
	morpher   dom.Morpher
	metrics   *Metrics
	tracer    trace.Tracer
	clock     Clock

	ctx    context.Context
	cancel context.CancelFunc

	// Owned by the loop.
	sock        *socket
	nextSock    uint64
	failures    int
	outbox      *Outbox
	registry    *Registry
	controllers map[string]Controller
	unbound     map[*html.Node][]func()
	retry       *scheduler
	stopObserve func()
	stopVisible func()
	stopping    bool

	queue     taskQueue
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Option configures a Session.
type Option func(*Session)

// WithConfig sets the session configuration. The config is cloned.
func WithConfig(cfg *Config) Option {
	return func(s *Session) {
		s.config = cfg.Clone()
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithDialer sets the socket dialer.
func WithDialer(d Dialer) Option {
	return func(s *Session) {
		s.dialer = d
	}
}

// WithEvaluator sets the evaluator for script operations.
func WithEvaluator(e script.Evaluator) Option {
	return func(s *Session) {
		s.evaluator = e
	}
}

// WithMorpher sets the morph implementation.
func WithMorpher(m dom.Morpher) Option {
	return func(s *Session) {
		s.morpher = m
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithTracer sets the tracer. Default: otel.Tracer("live").
func WithTracer(t trace.Tracer) Option {
	return func(s *Session) {
		s.tracer = t
	}
}

// WithClock sets the clock used for reconnect scheduling.
func WithClock(c Clock) Option {
	return func(s *Session) {
		s.clock = c
	}
}

// WithController registers a controller under name.
func WithController(name string, c Controller) Option {
	return func(s *Session) {
		s.controllers[name] = c
	}
}

// New creates a session for doc that talks to the ws:// or wss:// socketURL.
//
// The session starts tracking the document immediately and connects unless
// the document is hidden.
func New(socketURL string, doc *dom.Document, opts ...Option) (*Session, error) {
	u, err := url.Parse(socketURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("%w: scheme %q", ErrInvalidURL, u.Scheme)
	}

	s := &Session{
		url:         u.String(),
		doc:         doc,
		config:      DefaultConfig(),
		controllers: make(map[string]Controller),
		unbound:     make(map[*html.Node][]func()),
		registry:    NewRegistry(),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("url", s.url)
	if s.dialer == nil {
		s.dialer = NewWebSocketDialer(s.config)
	}
	if s.evaluator == nil {
		s.evaluator = script.NewGoja(s.config.ScriptTimeout, s.logger)
	}
	if s.morpher == nil {
		s.morpher = dom.DefaultMorpher{}
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("live")
	}
	if s.clock == nil {
		s.clock = realClock{}
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.outbox = NewOutbox(s.config.MaxOutbox)
	s.retry = newScheduler(s.clock, s.post)
	s.queue.notify = make(chan struct{}, 1)

	go s.loop()
	s.post(s.start)
	return s, nil
}

// URL returns the socket URL.
func (s *Session) URL() string {
	return s.url
}

// Document returns the session's document. Use Do to access it.
func (s *Session) Document() *dom.Document {
	return s.doc
}

// start wires the tracker and visibility handling, then applies the
// current visibility once.
func (s *Session) start() {
	s.observeDocument()
	s.stopVisible = s.doc.OnVisibilityChange(s.handleVisibility)
	s.handleVisibility(s.doc.Hidden())
}

func (s *Session) handleVisibility(hidden bool) {
	if hidden {
		s.disconnect()
	} else {
		s.connect()
	}
}

// RegisterController registers a controller under name. Elements bound
// afterwards start it when their controller attribute lists name.
func (s *Session) RegisterController(name string, c Controller) {
	s.post(func() {
		s.controllers[name] = c
	})
}

// Do runs fn on the session loop and waits for it. Mutations fn makes are
// tracked before Do returns.
func (s *Session) Do(fn func(d *dom.Document)) error {
	return s.call(func() {
		fn(s.doc)
	})
}

// Sync waits until every task queued before it has run.
func (s *Session) Sync() error {
	return s.call(func() {})
}

// Connected reports whether a socket is open.
func (s *Session) Connected() bool {
	var open bool
	_ = s.call(func() {
		open = s.sock != nil && s.sock.conn != nil
	})
	return open
}

// Failures returns the consecutive failure count.
func (s *Session) Failures() int {
	var n int
	_ = s.call(func() {
		n = s.failures
	})
	return n
}

// OutboxLen returns the number of buffered messages.
func (s *Session) OutboxLen() int {
	var n int
	_ = s.call(func() {
		n = s.outbox.Len()
	})
	return n
}

// Bound returns the ids of bound elements in sorted order.
func (s *Session) Bound() []string {
	var ids []string
	_ = s.call(func() {
		ids = s.registry.IDs()
	})
	return ids
}

// Close disconnects, stops tracking and stops the loop. It is idempotent.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.post(s.shutdown)
		<-s.done
		s.cancel()
		s.wg.Wait()
	})
	return nil
}

// Done is closed when the session loop has stopped.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) shutdown() {
	s.disconnect()
	s.retry.cancel()
	if s.stopObserve != nil {
		s.stopObserve()
	}
	if s.stopVisible != nil {
		s.stopVisible()
	}
	for _, id := range s.registry.IDs() {
		b, _ := s.registry.Get(id)
		s.registry.remove(b)
		b.dispose()
	}
	for n := range s.unbound {
		s.dropUnbound(n)
	}
	s.stopping = true
}

// call runs fn on the loop and waits for it.
func (s *Session) call(fn func()) error {
	ran := make(chan struct{})
	if !s.post(func() {
		defer close(ran)
		fn()
	}) {
		return ErrSessionClosed
	}
	select {
	case <-ran:
		return nil
	case <-s.done:
		select {
		case <-ran:
			return nil
		default:
			return ErrSessionClosed
		}
	}
}

// post queues fn for the loop. It returns false once the loop has stopped.
func (s *Session) post(fn func()) bool {
	return s.queue.push(fn)
}

func (s *Session) loop() {
	defer close(s.done)
	defer s.queue.close()

	for range s.queue.notify {
		for _, task := range s.queue.take() {
			s.run(task)
			if s.stopping {
				return
			}
		}
	}
}

// run executes one task with panic recovery.
func (s *Session) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	task()
}

// taskQueue is an unbounded FIFO of loop tasks. Socket goroutines and
// timers must never block on the loop, so pushes do not wait.
type taskQueue struct {
	mu     sync.Mutex
	tasks  []func()
	closed bool
	notify chan struct{}
}

func (q *taskQueue) push(fn func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.tasks = append(q.tasks, fn)
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

func (q *taskQueue) take() []func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	tasks := q.tasks
	q.tasks = nil
	return tasks
}

func (q *taskQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.tasks = nil
}
