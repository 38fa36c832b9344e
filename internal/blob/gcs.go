package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// GCS is a Bucket backed by a Cloud Storage bucket. Keys live under prefix.
type GCS struct {
	bucket *storage.BucketHandle
	prefix string
}

// NewGCS wraps bucket. prefix is prepended to every key, e.g. "uploads/".
func NewGCS(bucket *storage.BucketHandle, prefix string) *GCS {
	return &GCS{bucket: bucket, prefix: prefix}
}

func (g *GCS) object(key string) *storage.ObjectHandle {
	return g.bucket.Object(g.prefix + key)
}

func (g *GCS) Put(ctx context.Context, key string, r io.Reader) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}

	w := g.object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		if isPreconditionFailed(err) {
			return ErrExists
		}
		return fmt.Errorf("write to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		if isPreconditionFailed(err) {
			return ErrExists
		}
		return fmt.Errorf("finalize GCS write: %w", err)
	}
	return nil
}

func (g *GCS) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if !ValidKey(key) {
		return nil, ErrNotFound
	}
	rc, err := g.object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open GCS object: %w", err)
	}
	return rc, nil
}

func (g *GCS) Sweep(ctx context.Context, before time.Time) (int, error) {
	it := g.bucket.Objects(ctx, &storage.Query{Prefix: g.prefix})
	removed := 0
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return removed, fmt.Errorf("list GCS objects: %w", err)
		}
		if !attrs.Created.Before(before) {
			continue
		}
		err = g.bucket.Object(attrs.Name).If(storage.Conditions{GenerationMatch: attrs.Generation}).Delete(ctx)
		if err != nil && !errors.Is(err, storage.ErrObjectNotExist) && !isPreconditionFailed(err) {
			return removed, fmt.Errorf("delete %s: %w", attrs.Name, err)
		}
		removed++
	}
	return removed, nil
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}
