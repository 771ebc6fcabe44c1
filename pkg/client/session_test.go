package client

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vango-dev/live/pkg/dom"
)

func TestNewRejectsInvalidURL(t *testing.T) {
	doc := mustDoc(t, "<p></p>")
	for _, u := range []string{"http://localhost/live", "localhost:8080", "://bad"} {
		_, err := New(u, doc)
		assert.ErrorIs(t, err, ErrInvalidURL, "url %q", u)
	}
}

func TestBindOnOpen(t *testing.T) {
	h := newHarness(t, `<div id="a" class="live" data-x="1"></div>
		<p class="live">no id</p>
		<span id="b" class="other live"></span>`)
	c := h.connected(t)

	sent := waitSent(t, c, 2)
	require.Len(t, sent, 2)
	assert.JSONEq(t, `["bind","a",{"x":"1"}]`, sent[0])
	assert.JSONEq(t, `["bind","b",{}]`, sent[1])
	assert.Equal(t, []string{"a", "b"}, h.sess.Bound())
}

func TestSingleSocket(t *testing.T) {
	h := newHarness(t, `<p>x</p>`)
	h.connected(t)

	for i := 0; i < 5; i++ {
		h.sess.Connect()
	}
	require.NoError(t, h.sess.Sync())
	assert.Equal(t, 1, h.dialer.Dials())
}

func TestReconnectBackoff(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	h := newHarnessDialer(t, mustDoc(t, `<p>x</p>`), &fakeDialer{failN: 2}, WithMetrics(m))

	assert.Equal(t, 400*time.Millisecond, waitPending(t, h.clock))
	assert.Equal(t, 1, h.sess.Failures())

	h.clock.Advance(400 * time.Millisecond)
	require.Eventually(t, func() bool { return h.dialer.Dials() == 2 }, waitFor, tick)
	assert.Equal(t, 900*time.Millisecond, waitPending(t, h.clock))
	assert.Equal(t, 2, h.sess.Failures())

	h.clock.Advance(900 * time.Millisecond)
	h.connected(t)
	assert.Equal(t, 0, h.sess.Failures())
	assert.Empty(t, h.clock.Pending())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.connects))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.connectFailures))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.reconnects))
}

func TestServerCloseReconnects(t *testing.T) {
	h := newHarness(t, `<p>x</p>`)
	c0 := h.connected(t)

	c0.Close()
	assert.Equal(t, 100*time.Millisecond, waitPending(t, h.clock))
	assert.Equal(t, 0, h.sess.Failures())

	h.clock.Advance(100 * time.Millisecond)
	c1 := h.dialer.Conn(t, 1)
	require.Eventually(t, h.sess.Connected, waitFor, tick)

	// A transport error counts as a failure before the close.
	c1.Fail(errors.New("connection reset"))
	assert.Equal(t, 400*time.Millisecond, waitPending(t, h.clock))
	assert.Equal(t, 1, h.sess.Failures())
	assert.True(t, c1.IsClosed())
}

func TestDisconnectCancelsReconnect(t *testing.T) {
	h := newHarness(t, `<p>x</p>`)
	c0 := h.connected(t)

	c0.Close()
	waitPending(t, h.clock)

	h.sess.Disconnect()
	require.NoError(t, h.sess.Sync())
	assert.Empty(t, h.clock.Pending())

	h.clock.Advance(time.Minute)
	require.NoError(t, h.sess.Sync())
	assert.Equal(t, 1, h.dialer.Dials())
	assert.False(t, h.sess.Connected())
}

func TestDisconnectDoesNotReconnect(t *testing.T) {
	h := newHarness(t, `<p>x</p>`)
	c0 := h.connected(t)

	h.sess.Disconnect()
	require.NoError(t, h.sess.Sync())
	assert.True(t, c0.IsClosed())

	// The read loop's close arrives after the handle was cleared.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, h.sess.Sync())
	assert.Empty(t, h.clock.Pending())
	assert.False(t, h.sess.Connected())
}

func TestOutboxFlushedInOrderAfterReconnect(t *testing.T) {
	h := newHarness(t, `<div id="a" class="live"></div>`)
	c0 := h.connected(t)
	waitSent(t, c0, 1)

	h.sess.Disconnect()
	h.sess.Send([]byte(`"first"`))
	h.sess.Send([]byte(`"second"`))
	require.NoError(t, h.sess.Sync())
	assert.Equal(t, 2, h.sess.OutboxLen())

	h.sess.Connect()
	c1 := h.dialer.Conn(t, 1)
	sent := waitSent(t, c1, 3)
	require.Len(t, sent, 3)
	assert.JSONEq(t, `["bind","a",{}]`, sent[0])
	assert.Equal(t, `"first"`, sent[1])
	assert.Equal(t, `"second"`, sent[2])
	assert.Equal(t, 0, h.sess.OutboxLen())
	assert.Len(t, c0.Sent(), 1)
}

func TestBoundedOutboxDropsOldest(t *testing.T) {
	cfg := DefaultConfig().WithMaxOutbox(2)
	h := newHarness(t, `<p>x</p>`, WithConfig(cfg))
	h.connected(t)

	h.sess.Disconnect()
	for _, m := range []string{`1`, `2`, `3`} {
		h.sess.Send([]byte(m))
	}
	require.NoError(t, h.sess.Sync())
	assert.Equal(t, 2, h.sess.OutboxLen())

	h.sess.Connect()
	c1 := h.dialer.Conn(t, 1)
	assert.Equal(t, []string{`2`, `3`}, waitSent(t, c1, 2))
}

func TestTriggerConnects(t *testing.T) {
	h := newHarness(t, `<div id="a" class="live"></div>`)
	h.connected(t)

	h.sess.Disconnect()
	require.NoError(t, h.sess.Sync())

	h.sess.Trigger("a", map[string]string{"k": "v"})
	c1 := h.dialer.Conn(t, 1)
	sent := waitSent(t, c1, 2)
	assert.JSONEq(t, `["bind","a",{}]`, sent[0])
	assert.JSONEq(t, `{"id":"a","event":{"k":"v"}}`, sent[1])
}

func TestVisibility(t *testing.T) {
	h := newHarness(t, `<p>x</p>`)
	c0 := h.connected(t)

	require.NoError(t, h.sess.Do(func(d *dom.Document) { d.SetHidden(true) }))
	assert.True(t, c0.IsClosed())
	assert.False(t, h.sess.Connected())
	assert.Empty(t, h.clock.Pending())

	require.NoError(t, h.sess.Do(func(d *dom.Document) { d.SetHidden(false) }))
	h.dialer.Conn(t, 1)
	require.Eventually(t, h.sess.Connected, waitFor, tick)
	assert.Equal(t, 2, h.dialer.Dials())
}

func TestHiddenAtStart(t *testing.T) {
	h := newHarnessDoc(t, mustDoc(t, `<p>x</p>`, dom.WithHidden(true)))
	require.NoError(t, h.sess.Sync())
	assert.Equal(t, 0, h.dialer.Dials())

	require.NoError(t, h.sess.Do(func(d *dom.Document) { d.SetHidden(false) }))
	h.connected(t)
}

func TestBindWaitsForContentLoaded(t *testing.T) {
	doc := mustDoc(t, `<div id="a" class="live"></div>`, dom.WithReadyState(dom.Loading))
	h := newHarnessDoc(t, doc)
	c := h.connected(t)

	require.NoError(t, h.sess.Sync())
	assert.Empty(t, c.Sent())

	require.NoError(t, h.sess.Do(func(d *dom.Document) { d.SetReadyState(dom.Interactive) }))
	sent := waitSent(t, c, 1)
	assert.JSONEq(t, `["bind","a",{}]`, sent[0])
}

func TestPendingAttachRemovedOnDisconnect(t *testing.T) {
	doc := mustDoc(t, `<div id="a" class="live"></div>`, dom.WithReadyState(dom.Loading))
	h := newHarnessDoc(t, doc)
	h.connected(t)

	rootListeners := func() int {
		var n int
		require.NoError(t, h.sess.Do(func(d *dom.Document) { n = d.ListenerCount(d.Root()) }))
		return n
	}
	// Visibility listener plus the pending attach.
	assert.Equal(t, 2, rootListeners())

	for i := 1; i <= 3; i++ {
		h.sess.Disconnect()
		require.NoError(t, h.sess.Sync())
		assert.Equal(t, 1, rootListeners())

		h.sess.Connect()
		h.dialer.Conn(t, i)
		require.Eventually(t, h.sess.Connected, waitFor, tick)
		assert.Equal(t, 2, rootListeners())
	}

	c := h.dialer.Conn(t, 3)
	require.NoError(t, h.sess.Do(func(d *dom.Document) { d.SetReadyState(dom.Interactive) }))
	require.NoError(t, h.sess.Sync())
	assert.Equal(t, []string{`["bind","a",{}]`}, c.Sent())
	assert.Equal(t, 1, rootListeners())
}

func TestStaleSocketEventsIgnored(t *testing.T) {
	h := newHarness(t, `<p>x</p>`)
	h.connected(t)

	require.NoError(t, h.sess.call(func() {
		stale := &socket{id: 999, cancel: func() {}}
		h.sess.handleError(stale, errDial)
		h.sess.handleClose(stale)
		h.sess.handleOpen(stale, newFakeConn())
	}))
	assert.Equal(t, 0, h.sess.Failures())
	assert.True(t, h.sess.Connected())
	assert.Empty(t, h.clock.Pending())
}

func TestTaskPanicRecovered(t *testing.T) {
	h := newHarness(t, `<p>x</p>`)

	require.NoError(t, h.sess.Do(func(*dom.Document) { panic("boom") }))
	require.NoError(t, h.sess.Sync())
}

func TestClose(t *testing.T) {
	h := newHarness(t, `<div id="a" class="live"></div>`)
	c := h.connected(t)

	require.NoError(t, h.sess.Close())
	require.NoError(t, h.sess.Close())
	assert.True(t, c.IsClosed())

	select {
	case <-h.sess.Done():
	default:
		t.Fatal("loop still running")
	}
	assert.ErrorIs(t, h.sess.Sync(), ErrSessionClosed)
	assert.ErrorIs(t, h.sess.Do(func(*dom.Document) {}), ErrSessionClosed)
	assert.False(t, h.sess.Connected())
}
