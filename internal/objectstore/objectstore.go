// Package objectstore publishes files to object storage addressed by URI.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
)

// Location is a parsed object URI.
type Location struct {
	Scheme string
	Bucket string
	Key    string
}

func (l Location) String() string {
	if l.Scheme == SchemeFile {
		return "file://" + l.Key
	}
	return l.Scheme + "://" + l.Bucket + "/" + l.Key
}

// Supported schemes.
const (
	SchemeS3   = "s3"
	SchemeGCS  = "gs"
	SchemeFile = "file"
)

// ParseURI accepts s3://bucket/key, gs://bucket/key, file:///path or a bare
// filesystem path.
func ParseURI(uri string) (Location, error) {
	if uri == "" {
		return Location{}, fmt.Errorf("empty object uri")
	}
	if !strings.Contains(uri, "://") {
		return Location{Scheme: SchemeFile, Key: uri}, nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return Location{}, fmt.Errorf("invalid object uri %q: %w", uri, err)
	}

	switch u.Scheme {
	case SchemeFile:
		if u.Path == "" {
			return Location{}, fmt.Errorf("invalid object uri (no path): %s", uri)
		}
		return Location{Scheme: SchemeFile, Key: u.Path}, nil
	case SchemeS3, SchemeGCS:
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return Location{}, fmt.Errorf("invalid object uri (no bucket or object path): %s", uri)
		}
		return Location{Scheme: u.Scheme, Bucket: u.Host, Key: key}, nil
	default:
		return Location{}, fmt.Errorf("unsupported object uri scheme %q", u.Scheme)
	}
}

// Filename returns the last element of the object key,
// e.g. "s3://bucket/ramp/ramp_bills.parquet" → "ramp_bills.parquet".
func (l Location) Filename() string {
	return path.Base(l.Key)
}

// Backend writes one object, replacing whatever is stored there.
type Backend interface {
	Put(ctx context.Context, loc Location, body io.Reader) error
}

// Publisher stores a body at a URI.
type Publisher interface {
	Publish(ctx context.Context, uri string, body io.Reader) error
}

// Router dispatches to a backend by URI scheme.
type Router struct {
	backends map[string]Backend
}

// NewRouter wires the default backends for s3://, gs:// and local files.
func NewRouter() *Router {
	return &Router{backends: map[string]Backend{
		SchemeS3:   NewS3Backend(),
		SchemeGCS:  NewGCSBackend(),
		SchemeFile: &FileBackend{},
	}}
}

// Register replaces the backend for a scheme.
func (r *Router) Register(scheme string, b Backend) {
	if r.backends == nil {
		r.backends = map[string]Backend{}
	}
	r.backends[scheme] = b
}

// Publish overwrites the object at uri with body.
func (r *Router) Publish(ctx context.Context, uri string, body io.Reader) error {
	loc, err := ParseURI(uri)
	if err != nil {
		return err
	}
	b, ok := r.backends[loc.Scheme]
	if !ok {
		return fmt.Errorf("no backend registered for scheme %q", loc.Scheme)
	}
	if err := b.Put(ctx, loc, body); err != nil {
		return fmt.Errorf("publish %s: %w", loc, err)
	}
	return nil
}
