// Package live connects a document to a live server.
//
// This is the recommended import for most programs:
//
//	import "github.com/vango-dev/live"
//
// Usage:
//
//	doc, _ := dom.ParseString(page, dom.WithURL(u))
//	sess, err := live.Start(doc)
//	if err != nil {
//	    return err
//	}
//	defer sess.Close()
//
// The socket URL is the path "live" resolved against the document URL with
// the scheme rewritten to ws or wss. Use WithBase and WithPath to change it.
package live

import (
	"fmt"
	"net/url"

	"github.com/vango-dev/live/pkg/client"
	"github.com/vango-dev/live/pkg/dom"
)

// =============================================================================
// Re-exports
// =============================================================================

// Session is a live connection between a document and a server.
type Session = client.Session

// Binding is a bound element.
type Binding = client.Binding

// Controller starts behaviour for a bound element.
type Controller = client.Controller

// Config holds session configuration.
type Config = client.Config

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return client.DefaultConfig()
}

// DefaultPath is the socket path resolved against the base URL.
const DefaultPath = "live"

// =============================================================================
// Start
// =============================================================================

type options struct {
	base    string
	path    string
	session []client.Option
}

// Option configures Start.
type Option func(*options)

// WithBase sets the URL the socket path is resolved against. Default: the
// document URL.
func WithBase(base string) Option {
	return func(o *options) {
		o.base = base
	}
}

// WithPath sets the socket path. Default: "live".
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// WithSessionOptions passes options through to the session.
func WithSessionOptions(opts ...client.Option) Option {
	return func(o *options) {
		o.session = append(o.session, opts...)
	}
}

// Start creates a session for doc. The session connects in the background
// unless the document is hidden.
func Start(doc *dom.Document, opts ...Option) (*Session, error) {
	o := options{path: DefaultPath}
	for _, opt := range opts {
		opt(&o)
	}

	base := doc.URL()
	if o.base != "" {
		u, err := url.Parse(o.base)
		if err != nil {
			return nil, fmt.Errorf("%w: base: %v", client.ErrInvalidURL, err)
		}
		base = u
	}

	socketURL, err := SocketURL(base, o.path)
	if err != nil {
		return nil, err
	}
	return client.New(socketURL, doc, o.session...)
}

// SocketURL resolves path against base and rewrites http to ws and https to
// wss. ws and wss bases are kept.
func SocketURL(base *url.URL, path string) (string, error) {
	if base == nil {
		return "", fmt.Errorf("%w: no base URL", client.ErrInvalidURL)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("%w: path: %v", client.ErrInvalidURL, err)
	}

	u := base.ResolveReference(ref)
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("%w: scheme %q", client.ErrInvalidURL, u.Scheme)
	}
	u.Fragment = ""
	return u.String(), nil
}
