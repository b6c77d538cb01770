// Package storage provides scratch space for intermediate media files and the
// sink that exports land in. It defines the Storage interface (port) and
// implementations for local disk and S3.
package storage

import (
	"context"
	"io"
	"strings"
)

// Storage defines scratch-file handling and export delivery.
type Storage interface {
	// TempFile creates an empty temporary file whose name ends with ext and
	// returns its path. External tools overwrite it in place.
	TempFile(ctx context.Context, name, ext string) (path string, err error)

	// LoadTemp reads a temporary file and returns a reader.
	// The caller is responsible for closing the returned ReadCloser.
	LoadTemp(ctx context.Context, path string) (io.ReadCloser, error)

	// CleanupTemp removes the specified temporary files.
	// It continues cleanup even if some files fail to delete.
	CleanupTemp(ctx context.Context, paths []string) error

	// Put writes data to dest and returns where it ended up. dest is a local
	// path or, for S3-backed storage, an s3://bucket/key URI. A failed write
	// never leaves a partial file at dest.
	Put(ctx context.Context, dest string, data io.Reader) (location string, err error)
}

// IsRemote reports whether dest names an object store location.
func IsRemote(dest string) bool {
	return strings.HasPrefix(dest, s3Scheme)
}
