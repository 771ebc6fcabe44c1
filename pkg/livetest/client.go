package livetest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vango-dev/live/pkg/protocol"
)

// ErrClientClosed is returned once the client has disconnected.
var ErrClientClosed = errors.New("livetest: client closed")

const writeTimeout = 5 * time.Second

// Client is one connected live client as seen by the server.
type Client struct {
	conn   *websocket.Conn
	logger *slog.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	bound   map[string]map[string]string
	pending map[string]chan *protocol.ReplyMessage

	messages chan protocol.Message
	done     chan struct{}
	once     sync.Once
}

func newClient(conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		conn:     conn,
		logger:   logger,
		bound:    make(map[string]map[string]string),
		pending:  make(map[string]chan *protocol.ReplyMessage),
		messages: make(chan protocol.Message, 256),
		done:     make(chan struct{}),
	}
}

// Send encodes and sends cmd.
func (c *Client) Send(cmd protocol.Command) error {
	data, err := protocol.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	return c.SendRaw(data)
}

// SendRaw sends one text frame as is.
func (c *Client) SendRaw(data []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Call sends cmd with a fresh reply token and waits for the reply.
func (c *Client) Call(ctx context.Context, cmd protocol.Command) (*protocol.ReplyMessage, error) {
	token, err := json.Marshal(uuid.NewString())
	if err != nil {
		return nil, err
	}
	ch := make(chan *protocol.ReplyMessage, 1)

	c.mu.Lock()
	c.pending[string(token)] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, string(token))
		c.mu.Unlock()
	}()

	if err := c.Send(protocol.WithReply(cmd, token)); err != nil {
		return nil, err
	}

	select {
	case reply := <-ch:
		return reply, nil
	case <-c.done:
		return nil, ErrClientClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Next returns the next message that did not answer a Call.
func (c *Client) Next(ctx context.Context) (protocol.Message, error) {
	select {
	case m := <-c.messages:
		return m, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		// Drain what arrived before the close.
		select {
		case m := <-c.messages:
			return m, nil
		default:
			return nil, ErrClientClosed
		}
	}
}

// Bound returns the ids the client has bound and not unbound, sorted.
func (c *Client) Bound() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.bound))
	for id := range c.bound {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Data returns the dataset sent with the bind of id.
func (c *Client) Data(id string) (map[string]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.bound[id]
	return d, ok
}

// Done is closed when the client disconnects.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close closes the connection.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		c.conn.Close()
	})
}

func (c *Client) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		m, err := protocol.DecodeMessage(data)
		if err != nil {
			c.logger.Warn("malformed client message", "error", err)
			continue
		}
		c.logger.Debug("client message", "message", string(data))
		c.handle(m)
	}
}

func (c *Client) handle(m protocol.Message) {
	c.mu.Lock()
	switch m := m.(type) {
	case *protocol.Bind:
		c.bound[m.ID] = m.Data
	case *protocol.Unbind:
		delete(c.bound, m.ID)
	case *protocol.ReplyMessage:
		if ch, ok := c.pending[string(bytes.TrimSpace(m.Token))]; ok {
			c.mu.Unlock()
			select {
			case ch <- m:
			default:
			}
			return
		}
	}
	c.mu.Unlock()

	select {
	case c.messages <- m:
	default:
		c.logger.Warn("message buffer full, dropping message")
	}
}
