// Package storage is the blob-store seam for uploaded print documents.
// Callers address blobs by a relative path and get back a serveable URL.
package storage

import (
	"context"
	"io"
)

type Store interface {
	Put(ctx context.Context, path string, r io.Reader) (url string, err error)
	Delete(ctx context.Context, path string) error
}
