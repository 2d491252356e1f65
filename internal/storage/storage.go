// Package storage reads objects from an S3-compatible bucket. It is the source
// side of bucket imports; DocsFlow never writes to the bucket.
package storage

import (
	"context"
	"io"
	"time"
)

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a read-only, S3-compatible object storage client interface.
// Methods use context and streaming readers; no local disk is used.
type Storage interface {
	// List returns every object under prefix, recursively, in key order.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Stat returns object info without downloading content.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
}
