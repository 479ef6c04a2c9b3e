package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/cloudrive/internal/common"
	"github.com/dmitrijs2005/cloudrive/internal/filex"
)

const tempPrefix = ".upload-"

// FSStore keeps objects as <root>/<owner>/<id>.
type FSStore struct {
	root string
}

// NewFSStore creates root if needed. A relative root is resolved once,
// against the working directory at startup.
func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		return nil, errors.New("storage root is required")
	}
	abs, err := filex.EnsureDir(root, 0o750)
	if err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &FSStore{root: abs}, nil
}

func (s *FSStore) path(ref string) (string, error) {
	owner, id, err := ParseRef(ref)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, owner, id), nil
}

// Put writes into a temp file in the owner directory and renames it into
// place once the whole stream has been copied.
func (s *FSStore) Put(ctx context.Context, owner string, r io.Reader) (string, int64, error) {
	ref, err := NewRef(owner)
	if err != nil {
		return "", 0, err
	}
	path, err := s.path(ref)
	if err != nil {
		return "", 0, err
	}
	dir := filepath.Dir(path)
	if _, err := filex.EnsureDir(dir, 0o750); err != nil {
		return "", 0, fmt.Errorf("%w: create dir for %s: %v", common.ErrorIO, ref, err)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return "", 0, fmt.Errorf("%w: create temp for %s: %v", common.ErrorIO, ref, err)
	}
	tmpName := tmp.Name()

	size, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: r})
	if err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", 0, fmt.Errorf("%w: write %s: %w", common.ErrorIO, ref, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", 0, fmt.Errorf("%w: close temp for %s: %v", common.ErrorIO, ref, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", 0, fmt.Errorf("%w: rename temp to %s: %v", common.ErrorIO, ref, err)
	}

	return ref, size, nil
}

func (s *FSStore) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	path, err := s.path(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("content %s: %w", ref, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("%w: open %s: %v", common.ErrorIO, ref, err)
	}
	return f, nil
}

func (s *FSStore) Remove(_ context.Context, ref string) error {
	path, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: delete %s: %v", common.ErrorIO, ref, err)
	}
	return nil
}

// Walk visits committed objects only; in-flight temp files are skipped.
func (s *FSStore) Walk(ctx context.Context, fn func(ObjectInfo) error) error {
	return filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%w: walk %s: %v", common.ErrorIO, path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		ref := filepath.ToSlash(rel)
		if _, _, err := ParseRef(ref); err != nil {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("%w: stat %s: %v", common.ErrorIO, ref, err)
		}
		return fn(ObjectInfo{Ref: ref, Size: info.Size(), ModTime: info.ModTime()})
	})
}
