// Package store defines the storage backend contract the domain
// repository consumes, plus two implementations: [FileStore] persists
// objects as content files with YAML attribute sidecars under a root
// directory, and [MemStore] keeps everything in memory for tests and
// embedding.
//
// A backend stores opaque objects: raw content plus a flat string
// attribute set. It knows nothing about domains; the repository layers
// meaning (kind, domain-id, locale, category) on top via attributes.
// Object names are opaque and machine-generated because domain
// identifiers may contain characters that are illegal in a storage
// path; the domain id is recoverable only via attributes.
package store

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound indicates the requested object does not exist.
var ErrNotFound = errors.New("object not found")

// Object identifies a stored item. The ID is opaque, machine-generated
// and stable for the life of the object.
type Object struct {
	// ID is the backend identifier, also used as the storage name.
	ID string

	// MimeType is the content type recorded at creation.
	MimeType string
}

// Backend is the storage contract the repository consumes.
//
// Implementations must be safe for concurrent use. Calls accept a
// context and pass it through to underlying I/O where applicable; the
// repository itself defines no cancellation semantics on top.
type Backend interface {
	// ListChildren enumerates every object under the storage root.
	// Order is unspecified.
	ListChildren(ctx context.Context) ([]Object, error)

	// GetObject fetches an object by id. Absence is reported via the
	// bool, not an error.
	GetObject(ctx context.Context, id string) (Object, bool, error)

	// GetAttributes returns the attribute set attached to an object.
	// The returned map is the caller's to mutate.
	GetAttributes(ctx context.Context, id string) (map[string]string, error)

	// SetAttributes replaces the attribute set attached to an object.
	SetAttributes(ctx context.Context, id string, attrs map[string]string) error

	// CreateObject persists a new object under the given name with the
	// given content. The name becomes the object's ID and must not
	// collide with an existing object.
	CreateObject(ctx context.Context, name string, content []byte, mimeType string) (Object, error)

	// UpdateObject replaces the content of an existing object,
	// preserving its attributes.
	UpdateObject(ctx context.Context, obj Object, content []byte) (Object, error)

	// DeleteObject removes an object and its attributes. Deleting a
	// missing object returns ErrNotFound.
	DeleteObject(ctx context.Context, id string) error

	// ReadContent streams an object's content. The caller closes the
	// returned reader.
	ReadContent(ctx context.Context, id string) (io.ReadCloser, error)
}
