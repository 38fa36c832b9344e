// Package blob stores uploaded documents and generated PDFs under flat keys.
package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned by Open when no object has the key.
	ErrNotFound = errors.New("blob: not found")
	// ErrExists is returned by Put when the key is already taken.
	ErrExists = errors.New("blob: already exists")
	// ErrInvalidKey is returned for keys that are not a single path element.
	ErrInvalidKey = errors.New("blob: invalid key")
)

// Bucket is a flat namespace of immutable objects.
type Bucket interface {
	// Put stores r under key. It never overwrites.
	Put(ctx context.Context, key string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Sweep deletes objects created before the cutoff and reports how many.
	Sweep(ctx context.Context, before time.Time) (int, error)
}

// ValidKey reports whether key is a plain file name: non-empty, no path
// separators, no parent references and not hidden.
func ValidKey(key string) bool {
	if key == "" || strings.HasPrefix(key, ".") {
		return false
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return false
	}
	return !strings.ContainsRune(key, 0)
}
