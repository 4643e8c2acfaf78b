package apfed

import (
	"fmt"
	"net/url"
)

// ObjectId is a validated, absolute URL tagged with the local target type T
// that it dereferences to. Equality of two ObjectId values is URL equality.
// The type parameter never appears in the value's representation; it only
// threads the intended target type through the type system so that
// fetch.Dereference[T] can be called without a second type argument at the
// call site.
type ObjectId[T any] struct {
	raw string
}

// NewObjectId validates raw as an absolute URL whose scheme is https, or
// http when cfg permits plain HTTP for that host (debug mode, or the host
// was named via WithAllowHTTP).
func NewObjectId[T any](raw string, cfg *Config) (ObjectId[T], error) {
	u, err := url.Parse(raw)
	if err != nil {
		return ObjectId[T]{}, fmt.Errorf("%w: invalid url %q: %v", ErrDeserializationFailed, raw, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return ObjectId[T]{}, fmt.Errorf("%w: url %q is not absolute", ErrDeserializationFailed, raw)
	}
	switch u.Scheme {
	case "https":
	case "http":
		if cfg == nil || !cfg.AllowsPlainHTTP(u.Host) {
			return ObjectId[T]{}, fmt.Errorf("%w: plain http not permitted for host %q", ErrUrlBlocked, u.Host)
		}
	default:
		return ObjectId[T]{}, fmt.Errorf("%w: unsupported scheme %q", ErrDeserializationFailed, u.Scheme)
	}
	return ObjectId[T]{raw: u.String()}, nil
}

// String returns the underlying URL.
func (id ObjectId[T]) String() string { return id.raw }

// Host returns the URL's host component.
func (id ObjectId[T]) Host() string {
	u, err := url.Parse(id.raw)
	if err != nil {
		return ""
	}
	return u.Host
}

// Equal reports whether two ObjectId values refer to the same URL.
func (id ObjectId[T]) Equal(other ObjectId[T]) bool { return id.raw == other.raw }

// IsZero reports whether id was never initialized via NewObjectId.
func (id ObjectId[T]) IsZero() bool { return id.raw == "" }
