// Package store persists serialized instance state. Two backends are
// provided: DiskStore for local files and S3Store for object storage.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the named snapshot does not exist.
var ErrNotFound = errors.New("store: snapshot not found")

// Store is a named blob of serialized state. Implementations must be safe
// for concurrent use.
type Store interface {
	// Save writes text under name, replacing any previous content.
	Save(ctx context.Context, name, text string) error

	// Load reads the content saved under name, or ErrNotFound.
	Load(ctx context.Context, name string) (string, error)

	// List returns the saved names in lexical order.
	List(ctx context.Context) ([]string, error)
}
