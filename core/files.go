package core

import (
	"context"
	"io"
)

// Storage backends
const (
	FilesB2    = "b2"
	FilesLocal = "local"
)

// FileStorage is any service that can store uploaded files and serve them by URL.
type FileStorage interface {
	// Upload stores r under key and returns its public URL.
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}
