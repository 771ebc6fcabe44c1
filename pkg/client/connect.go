package client

import (
	"context"
	"errors"
	"io"
)

// socket is one connection attempt. The session holds at most one; events
// from any other socket are stale and ignored.
type socket struct {
	id     uint64
	conn   Conn // nil until open
	cancel context.CancelFunc
	detach func() // removes a pending attach
}

func (sock *socket) close() {
	sock.cancel()
	if sock.detach != nil {
		sock.detach()
		sock.detach = nil
	}
	if sock.conn != nil {
		_ = sock.conn.Close()
	}
}

// Connect opens a socket unless one exists. Dialing happens in the
// background.
func (s *Session) Connect() {
	s.post(s.connect)
}

// Disconnect closes the socket without scheduling a reconnect and cancels
// any pending reconnect.
func (s *Session) Disconnect() {
	s.post(s.disconnect)
}

// Send writes a raw message, buffering it in the outbox when it cannot be
// written.
func (s *Session) Send(data []byte) {
	s.post(func() {
		s.send(data)
	})
}

func (s *Session) connect() {
	if s.sock != nil || s.stopping {
		return
	}
	s.retry.cancel()

	s.nextSock++
	ctx, cancel := context.WithCancel(s.ctx)
	sock := &socket{id: s.nextSock, cancel: cancel}
	s.sock = sock
	s.logger.Debug("connecting", "socket", sock.id, "failures", s.failures)

	s.wg.Add(1)
	go s.runSocket(ctx, sock)
}

func (s *Session) disconnect() {
	s.retry.cancel()
	if s.sock == nil {
		return
	}
	// Clear the handle first so the close that follows is not mistaken for
	// a dropped connection.
	sock := s.sock
	s.sock = nil
	sock.close()
	s.logger.Debug("disconnected", "socket", sock.id)
}

// runSocket dials and then reads until the socket fails. It only talks to
// the loop through post.
func (s *Session) runSocket(ctx context.Context, sock *socket) {
	defer s.wg.Done()

	conn, err := s.dialer.Dial(ctx, s.url)
	if err != nil {
		s.post(func() {
			s.handleError(sock, err)
			s.handleClose(sock)
		})
		return
	}
	if !s.post(func() { s.handleOpen(sock, conn) }) {
		_ = conn.Close()
		return
	}

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			s.post(func() {
				if !errors.Is(err, io.EOF) {
					s.handleError(sock, err)
				}
				s.handleClose(sock)
			})
			return
		}
		s.post(func() { s.handleMessage(sock, data) })
	}
}

func (s *Session) handleOpen(sock *socket, conn Conn) {
	if s.sock != sock {
		_ = conn.Close()
		return
	}
	sock.conn = conn
	s.failures = 0
	s.metrics.recordConnect()
	s.logger.Info("connected", "socket", sock.id)

	s.attach()
}

// attach binds the document and flushes the outbox, once the document has
// finished loading.
func (s *Session) attach() {
	sock := s.sock
	sock.detach = s.doc.OnContentLoaded(func() {
		sock.detach = nil
		if s.sock != sock {
			return
		}
		s.scan()
		s.flush()
	})
}

func (s *Session) handleMessage(sock *socket, data []byte) {
	if s.sock != sock {
		return
	}
	s.handleFrame(data)
}

func (s *Session) handleError(sock *socket, err error) {
	if s.sock != sock {
		return
	}
	s.failures++
	s.metrics.recordConnectFailure()
	s.logger.Debug("socket error", "socket", sock.id, "failures", s.failures, "error", err)
}

func (s *Session) handleClose(sock *socket) {
	if s.sock != sock {
		return
	}
	s.sock = nil
	sock.close()
	s.scheduleReconnect()
}

func (s *Session) scheduleReconnect() {
	if s.stopping {
		return
	}
	delay := Backoff(s.failures, s.config.BackoffBase, s.config.BackoffCeiling)
	s.metrics.recordReconnect()
	s.logger.Info("connection lost, reconnecting", "delay", delay, "failures", s.failures)
	s.retry.schedule(delay, s.connect)
}

// send writes data or buffers it.
func (s *Session) send(data []byte) {
	if err := s.write(data); err == nil {
		return
	}
	if evicted := s.outbox.Push(data); evicted != nil {
		s.metrics.recordOutboxEvicted()
		s.logger.Warn("outbox full, dropped oldest message", "capacity", s.config.MaxOutbox)
	}
	s.metrics.setOutboxDepth(s.outbox.Len())
}

func (s *Session) write(data []byte) error {
	if s.sock == nil || s.sock.conn == nil {
		return ErrNotConnected
	}
	if err := s.sock.conn.WriteMessage(data); err != nil {
		s.logger.Debug("write failed", "socket", s.sock.id, "error", err)
		return err
	}
	s.metrics.recordFrameSent()
	return nil
}

// flush re-sends buffered messages in order. A message that fails again
// goes back to the outbox, behind the ones already re-buffered.
func (s *Session) flush() {
	if s.outbox.Len() == 0 {
		return
	}
	for _, data := range s.outbox.Drain() {
		s.send(data)
	}
	s.metrics.setOutboxDepth(s.outbox.Len())
}
