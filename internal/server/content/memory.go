package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/cloudrive/internal/common"
)

type memObject struct {
	data    []byte
	modTime time.Time
}

// MemoryStore holds objects in a map.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memObject
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memObject), now: time.Now}
}

func (s *MemoryStore) Put(ctx context.Context, owner string, r io.Reader) (string, int64, error) {
	ref, err := NewRef(owner)
	if err != nil {
		return "", 0, err
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, &ctxReader{ctx: ctx, r: r})
	if err != nil {
		return "", 0, fmt.Errorf("%w: write %s: %w", common.ErrorIO, ref, err)
	}

	s.mu.Lock()
	s.objects[ref] = memObject{data: buf.Bytes(), modTime: s.now()}
	s.mu.Unlock()
	return ref, n, nil
}

func (s *MemoryStore) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	if _, _, err := ParseRef(ref); err != nil {
		return nil, err
	}
	s.mu.RLock()
	obj, ok := s.objects[ref]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("content %s: %w", ref, common.ErrorNotFound)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *MemoryStore) Remove(_ context.Context, ref string) error {
	if _, _, err := ParseRef(ref); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.objects, ref)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Walk(ctx context.Context, fn func(ObjectInfo) error) error {
	s.mu.RLock()
	infos := make([]ObjectInfo, 0, len(s.objects))
	for ref, obj := range s.objects {
		infos = append(infos, ObjectInfo{Ref: ref, Size: int64(len(obj.data)), ModTime: obj.modTime})
	}
	s.mu.RUnlock()

	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(info); err != nil {
			return err
		}
	}
	return nil
}

// Len reports the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
