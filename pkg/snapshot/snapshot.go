// Package snapshot persists rendered documents.
//
// A snapshot is the serialized HTML of a document at one point in time. The
// CLI writes one when a session ends so the final state of a page can be
// inspected or diffed.
//
// # Locations
//
//	page.html             local file
//	file:///tmp/page.html local file
//	s3://bucket/key.html  S3 object
//
// Use Parse to split a location and Open to build the matching Sink.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidLocation is returned when a location cannot be parsed.
var ErrInvalidLocation = errors.New("snapshot: invalid location")

// Sink is the interface for snapshot storage backends.
type Sink interface {
	// Put stores data, replacing any previous snapshot at the same location.
	Put(ctx context.Context, data []byte) error

	// String describes the location for logs.
	String() string
}

// Location is a parsed snapshot target.
type Location struct {
	// Scheme is "file" or "s3".
	Scheme string

	// Path is the file path for the file scheme.
	Path string

	// Bucket and Key address the object for the s3 scheme.
	Bucket string
	Key    string
}

// Parse splits a snapshot location. Strings without a scheme are file
// paths.
func Parse(loc string) (Location, error) {
	if loc == "" {
		return Location{}, fmt.Errorf("%w: empty", ErrInvalidLocation)
	}
	if !strings.Contains(loc, "://") {
		return Location{Scheme: "file", Path: loc}, nil
	}

	u, err := url.Parse(loc)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %v", ErrInvalidLocation, err)
	}
	switch u.Scheme {
	case "file":
		if u.Path == "" {
			return Location{}, fmt.Errorf("%w: %q has no path", ErrInvalidLocation, loc)
		}
		return Location{Scheme: "file", Path: u.Path}, nil
	case "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return Location{}, fmt.Errorf("%w: %q needs s3://bucket/key", ErrInvalidLocation, loc)
		}
		return Location{Scheme: "s3", Bucket: u.Host, Key: key}, nil
	}
	return Location{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLocation, u.Scheme)
}

// String returns the location in the form Parse accepts.
func (l Location) String() string {
	if l.Scheme == "s3" {
		return "s3://" + l.Bucket + "/" + l.Key
	}
	return l.Path
}

// Open returns the sink for loc. client is used for s3 locations and may be
// nil otherwise.
func Open(loc string, client PutObjectAPI) (Sink, error) {
	l, err := Parse(loc)
	if err != nil {
		return nil, err
	}
	if l.Scheme == "s3" {
		if client == nil {
			return nil, fmt.Errorf("%w: %s requires an S3 client", ErrInvalidLocation, l)
		}
		return NewS3Sink(client, l.Bucket, l.Key), nil
	}
	return NewFileSink(l.Path), nil
}
