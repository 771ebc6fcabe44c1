package live

import (
	"errors"
	"net/url"
	"testing"

	"github.com/vango-dev/live/pkg/client"
	"github.com/vango-dev/live/pkg/dom"
)

func TestSocketURL(t *testing.T) {
	tests := []struct {
		base string
		path string
		want string
	}{
		{"http://localhost/", "live", "ws://localhost/live"},
		{"https://example.com/app/page", "live", "wss://example.com/app/live"},
		{"https://example.com/app/page", "/live", "wss://example.com/live"},
		{"http://localhost:8080/a/b?q=1#frag", "../socket", "ws://localhost:8080/socket"},
		{"ws://localhost:9000/", "live", "ws://localhost:9000/live"},
		{"http://localhost/", "wss://other.example/live", "wss://other.example/live"},
	}

	for _, tt := range tests {
		base, err := url.Parse(tt.base)
		if err != nil {
			t.Fatalf("url.Parse(%q): %v", tt.base, err)
		}
		got, err := SocketURL(base, tt.path)
		if err != nil {
			t.Errorf("SocketURL(%q, %q) error: %v", tt.base, tt.path, err)
			continue
		}
		if got != tt.want {
			t.Errorf("SocketURL(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}

func TestSocketURLRejectsScheme(t *testing.T) {
	base, _ := url.Parse("file:///tmp/page.html")
	if _, err := SocketURL(base, "live"); !errors.Is(err, client.ErrInvalidURL) {
		t.Errorf("SocketURL(file) error = %v, want ErrInvalidURL", err)
	}
	if _, err := SocketURL(nil, "live"); !errors.Is(err, client.ErrInvalidURL) {
		t.Errorf("SocketURL(nil) error = %v, want ErrInvalidURL", err)
	}
}

func TestStartDefaults(t *testing.T) {
	doc := dom.New(dom.WithHidden(true))
	sess, err := Start(doc)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer sess.Close()

	if got, want := sess.URL(), "ws://localhost/live"; got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}

func TestStartOptions(t *testing.T) {
	doc := dom.New(dom.WithHidden(true))
	sess, err := Start(doc,
		WithBase("https://example.com/app/"),
		WithPath("socket"),
		WithSessionOptions(client.WithConfig(DefaultConfig().WithMarkerClass("sync"))))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer sess.Close()

	if got, want := sess.URL(), "wss://example.com/app/socket"; got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}
