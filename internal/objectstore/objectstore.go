// Package objectstore reads and writes CV documents and processed artifacts
// in Google Cloud Storage or on the local filesystem.
package objectstore

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no object exists at the location.
var ErrNotFound = errors.New("object not found")

// ErrInvalidLocation is returned when a location cannot name an object in the
// store, e.g. it is empty or escapes the filesystem root.
var ErrInvalidLocation = errors.New("invalid object location")

// Store is a flat key/value blob store.
type Store interface {
	Put(ctx context.Context, location string, data []byte) error
	Get(ctx context.Context, location string) ([]byte, error)
	// Delete removes the object; deleting a missing object is not an error.
	Delete(ctx context.Context, location string) error
	Close() error
}

// Driver selects a backend.
type Driver string

const (
	DriverGCS Driver = "gcs"
	DriverFS  Driver = "fs"
)

// Config selects and configures the backend.
type Config struct {
	Driver Driver
	// Bucket is the default GCS bucket for locations without a gs:// prefix.
	Bucket string
	// Root is the base directory of the filesystem backend.
	Root string
}

// Open creates the store selected by cfg.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverGCS:
		return NewGCSStore(ctx, cfg.Bucket)
	case DriverFS, "":
		return NewFSStore(cfg.Root)
	default:
		return nil, fmt.Errorf("unknown object store driver %q", cfg.Driver)
	}
}

// ProfileArtifactKey is where the processed profile of a user is archived.
func ProfileArtifactKey(userID string) string {
	return "processed/" + userID + "/profile.json"
}
