// Package storage abstracts the publish target behind a small key/value
// object interface with S3 and local-directory backends.
package storage

import (
	"context"
	"errors"
	"io"
)

// Store errors.
var (
	// ErrNotExist is returned by Get and Head when the key is absent.
	ErrNotExist = errors.New("object does not exist")
	// ErrBucketAccess indicates the storage target itself is unreachable.
	ErrBucketAccess = errors.New("storage target not accessible")
)

// Store is a publish target. All operations are blocking; the pipeline
// performs them one at a time.
type Store interface {
	// Put writes one object. size is the exact byte length of body.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// Get reads one object fully.
	Get(ctx context.Context, key string) ([]byte, error)
	// Head checks object existence without reading it.
	Head(ctx context.Context, key string) error
	// Description identifies the target for logs and summaries.
	Description() string
}
