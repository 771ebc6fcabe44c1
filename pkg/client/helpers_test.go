package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vango-dev/live/pkg/dom"
)

const waitFor = 2 * time.Second
const tick = 5 * time.Millisecond

var errDial = errors.New("dial refused")

// fakeConn is an in-memory socket. The test plays the server: Push queues a
// frame for the client, Sent returns what the client wrote.
type fakeConn struct {
	in     chan []byte
	fail   chan error
	closed chan struct{}
	once   sync.Once

	mu   sync.Mutex
	sent []string
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan []byte, 64),
		fail:   make(chan error, 1),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case data := <-c.in:
		return data, nil
	case err := <-c.fail:
		return nil, err
	case <-c.closed:
		return nil, io.EOF
	}
}

func (c *fakeConn) WriteMessage(data []byte) error {
	select {
	case <-c.closed:
		return io.ErrClosedPipe
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, string(data))
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) Push(frame string) {
	c.in <- []byte(frame)
}

func (c *fakeConn) Fail(err error) {
	c.fail <- err
}

func (c *fakeConn) Sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

func (c *fakeConn) IsClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// fakeDialer hands out fakeConns. The first failN dials fail.
type fakeDialer struct {
	mu    sync.Mutex
	failN int
	dials int
	conns []*fakeConn
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.failN > 0 {
		d.failN--
		return nil, errDial
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// Conn waits for the i-th successful dial.
func (d *fakeDialer) Conn(t *testing.T, i int) *fakeConn {
	t.Helper()
	var c *fakeConn
	require.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		if len(d.conns) > i {
			c = d.conns[i]
			return true
		}
		return false
	}, waitFor, tick, "no connection #%d", i)
	return c
}

// fakeClock fires timers only when advanced.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *fakeClock
	at    time.Time
	fn    func()
	done  bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.done
	t.done = true
	return active
}

// Advance moves the clock forward and runs the timers that came due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.done && !t.at.After(c.now) {
			t.done = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.fn()
	}
}

// Pending returns the delays of active timers, shortest first.
func (c *fakeClock) Pending() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []time.Duration
	for _, t := range c.timers {
		if !t.done {
			out = append(out, t.at.Sub(c.now))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type harness struct {
	sess   *Session
	dialer *fakeDialer
	clock  *fakeClock
}

func newHarness(t *testing.T, markup string, opts ...Option) *harness {
	t.Helper()
	return newHarnessDoc(t, mustDoc(t, markup), opts...)
}

func newHarnessDoc(t *testing.T, doc *dom.Document, opts ...Option) *harness {
	t.Helper()
	return newHarnessDialer(t, doc, &fakeDialer{}, opts...)
}

func newHarnessDialer(t *testing.T, doc *dom.Document, d *fakeDialer, opts ...Option) *harness {
	t.Helper()
	h := &harness{dialer: d, clock: newFakeClock()}
	base := []Option{
		WithDialer(h.dialer),
		WithClock(h.clock),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	sess, err := New("ws://localhost/live", doc, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	h.sess = sess
	return h
}

func mustDoc(t *testing.T, markup string, opts ...dom.Option) *dom.Document {
	t.Helper()
	d, err := dom.ParseString(markup, opts...)
	require.NoError(t, err)
	return d
}

// waitSent waits until conn has written at least n messages and returns
// them.
func waitSent(t *testing.T, c *fakeConn, n int) []string {
	t.Helper()
	var sent []string
	require.Eventually(t, func() bool {
		sent = c.Sent()
		return len(sent) >= n
	}, waitFor, tick, "want %d messages, have %v", n, c.Sent())
	return sent
}

// waitPending waits for exactly one scheduled reconnect and returns its
// delay.
func waitPending(t *testing.T, c *fakeClock) time.Duration {
	t.Helper()
	var pending []time.Duration
	require.Eventually(t, func() bool {
		pending = c.Pending()
		return len(pending) == 1
	}, waitFor, tick, "no reconnect scheduled")
	return pending[0]
}

// connected waits for the first socket to open.
func (h *harness) connected(t *testing.T) *fakeConn {
	t.Helper()
	c := h.dialer.Conn(t, 0)
	require.Eventually(t, h.sess.Connected, waitFor, tick)
	return c
}
