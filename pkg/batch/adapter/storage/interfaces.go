// Package storage defines the object storage abstraction used for reference documents
// and generated artifacts.
package storage

import (
	"context"
	"io"

	coreAdapter "github.com/tigerroll/rlsgen/pkg/batch/core/adapter"
)

// StorageExecutor defines generic storage operations. Object names are slash separated
// and relative to the connection's root.
type StorageExecutor interface {
	// Upload stores data under objectName, replacing any existing object, and returns
	// the location it was written to. Readers never observe a partially written object.
	Upload(ctx context.Context, objectName string, data io.Reader) (string, error)
	// Download opens objectName. The caller closes the returned reader.
	Download(ctx context.Context, objectName string) (io.ReadCloser, error)
	// ListObjects calls fn for every object under prefix, in lexical order.
	ListObjects(ctx context.Context, prefix string, fn func(objectName string) error) error
}

// StorageConnection represents a generic data storage connection.
type StorageConnection interface {
	coreAdapter.ResourceConnection // Inherits Close(), Type(), Name()
	StorageExecutor
}
