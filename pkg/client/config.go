package client

import (
	"fmt"
	"time"

	"github.com/vango-dev/live/pkg/protocol"
)

// Config holds configuration for a Session.
type Config struct {
	// Tracking

	// MarkerClass is the class that marks elements for binding.
	// Default: "live".
	MarkerClass string

	// ControllerAttribute names the attribute listing controllers to start
	// on a bound element.
	// Default: "data-controller".
	ControllerAttribute string

	// Reconnect

	// BackoffBase is the delay unit of the reconnect backoff.
	// Default: 100 milliseconds.
	BackoffBase time.Duration

	// BackoffCeiling caps the reconnect delay.
	// Default: 60 seconds.
	BackoffCeiling time.Duration

	// Transport

	// HandshakeTimeout is the maximum time for the WebSocket handshake.
	// Default: 10 seconds.
	HandshakeTimeout time.Duration

	// WriteTimeout is the maximum time to wait when sending a frame.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// MaxMessageSize is the maximum size of an incoming frame.
	// Default: protocol.MaxFrameSize.
	MaxMessageSize int64

	// Limits

	// MaxOutbox bounds the number of buffered messages. When full the
	// oldest message is dropped. 0 means no limit.
	// Default: 0.
	MaxOutbox int

	// ScriptTimeout bounds a single script operation. 0 means no limit.
	// Default: 5 seconds.
	ScriptTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MarkerClass:         "live",
		ControllerAttribute: "data-controller",
		BackoffBase:         100 * time.Millisecond,
		BackoffCeiling:      60 * time.Second,
		HandshakeTimeout:    10 * time.Second,
		WriteTimeout:        10 * time.Second,
		MaxMessageSize:      protocol.MaxFrameSize,
		MaxOutbox:           0,
		ScriptTimeout:       5 * time.Second,
	}
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// WithMarkerClass sets the marker class.
func (c *Config) WithMarkerClass(class string) *Config {
	c.MarkerClass = class
	return c
}

// WithBackoff sets the reconnect backoff base and ceiling.
func (c *Config) WithBackoff(base, ceiling time.Duration) *Config {
	c.BackoffBase = base
	c.BackoffCeiling = ceiling
	return c
}

// WithMaxOutbox sets the outbox bound.
func (c *Config) WithMaxOutbox(n int) *Config {
	c.MaxOutbox = n
	return c
}

// WithScriptTimeout sets the script timeout.
func (c *Config) WithScriptTimeout(d time.Duration) *Config {
	c.ScriptTimeout = d
	return c
}

// WithWriteTimeout sets the write timeout.
func (c *Config) WithWriteTimeout(d time.Duration) *Config {
	c.WriteTimeout = d
	return c
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.MarkerClass == "":
		return fmt.Errorf("%w: MarkerClass is empty", ErrInvalidConfig)
	case c.BackoffBase <= 0:
		return fmt.Errorf("%w: BackoffBase must be positive", ErrInvalidConfig)
	case c.BackoffCeiling < c.BackoffBase:
		return fmt.Errorf("%w: BackoffCeiling %v is below BackoffBase %v", ErrInvalidConfig, c.BackoffCeiling, c.BackoffBase)
	case c.MaxOutbox < 0:
		return fmt.Errorf("%w: MaxOutbox must not be negative", ErrInvalidConfig)
	case c.MaxMessageSize < 0:
		return fmt.Errorf("%w: MaxMessageSize must not be negative", ErrInvalidConfig)
	}
	return nil
}
