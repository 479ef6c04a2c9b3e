// Package content stores file payloads. Each uploaded file becomes one
// immutable object addressed by a content ref of the form "<owner>/<uuid>".
//
// Backends:
//   - FSStore: one file per object under a root directory
//   - S3Store: one object per ref in an S3-compatible bucket
//   - MemoryStore: map-backed, for tests and throwaway deployments
package content

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/cloudrive/internal/common"
	"github.com/google/uuid"
)

// ObjectInfo describes a stored object as seen by Walk.
type ObjectInfo struct {
	Ref     string
	Size    int64
	ModTime time.Time
}

// Store is implemented by every content backend.
//
// Put streams r to a new object owned by owner and returns its ref and the
// number of bytes written; it never holds the whole payload in memory
// (MemoryStore excepted). Open fails with common.ErrorNotFound for unknown
// refs. Remove is idempotent. Backend failures wrap common.ErrorIO.
type Store interface {
	Put(ctx context.Context, owner string, r io.Reader) (ref string, size int64, err error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Remove(ctx context.Context, ref string) error
	// Walk calls fn for every committed object. Returning an error from fn
	// stops the walk.
	Walk(ctx context.Context, fn func(ObjectInfo) error) error
}

// NewRef mints a fresh ref for owner.
func NewRef(owner string) (string, error) {
	if err := validateComponent(owner); err != nil {
		return "", err
	}
	return owner + "/" + uuid.NewString(), nil
}

// ParseRef splits ref into owner and object id. Anything but two clean path
// components is rejected so refs cannot escape the storage root.
func ParseRef(ref string) (owner, id string, err error) {
	owner, id, ok := strings.Cut(ref, "/")
	if !ok {
		return "", "", fmt.Errorf("%w: malformed content ref %q", common.ErrorNotFound, ref)
	}
	if validateComponent(owner) != nil || validateComponent(id) != nil {
		return "", "", fmt.Errorf("%w: malformed content ref %q", common.ErrorNotFound, ref)
	}
	return owner, id, nil
}

func validateComponent(s string) error {
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, "/\\\x00") || strings.HasPrefix(s, ".") {
		return fmt.Errorf("%w: invalid path component %q", common.ErrorValidation, s)
	}
	return nil
}

// ctxReader fails reads once ctx is done, so a cancelled upload stops
// between chunks instead of draining the source.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
