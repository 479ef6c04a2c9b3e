package content

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/dmitrijs2005/cloudrive/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRef(t *testing.T) {
	owner, id, err := ParseRef("alice/123")
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)
	assert.Equal(t, "123", id)

	for _, bad := range []string{"", "alice", "alice/", "/x", "a/b/c", "../x", "a/..", "a/.hidden", `a\b/c`, "a/b\x00"} {
		_, _, err := ParseRef(bad)
		assert.Error(t, err, "ref %q", bad)
	}
}

func TestNewRef(t *testing.T) {
	ref, err := NewRef("alice")
	require.NoError(t, err)
	owner, _, err := ParseRef(ref)
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)

	other, err := NewRef("alice")
	require.NoError(t, err)
	assert.NotEqual(t, ref, other)

	_, err = NewRef("../etc")
	assert.Error(t, err)
}

// errReader yields some bytes and then fails.
type errReader struct {
	data []byte
	err  error
}

func (r *errReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

// storeContract runs the behaviour every backend must share.
func storeContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("put then open", func(t *testing.T) {
		payload := []byte("0123456789")
		ref, size, err := s.Put(ctx, "alice", bytes.NewReader(payload))
		require.NoError(t, err)
		assert.Equal(t, int64(10), size)

		rc, err := s.Open(ctx, ref)
		require.NoError(t, err)
		defer rc.Close()
		got, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("empty payload", func(t *testing.T) {
		ref, size, err := s.Put(ctx, "alice", bytes.NewReader(nil))
		require.NoError(t, err)
		assert.Zero(t, size)
		rc, err := s.Open(ctx, ref)
		require.NoError(t, err)
		rc.Close()
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		ref, _, err := s.Put(ctx, "bob", bytes.NewReader([]byte("x")))
		require.NoError(t, err)

		require.NoError(t, s.Remove(ctx, ref))
		require.NoError(t, s.Remove(ctx, ref))

		_, err = s.Open(ctx, ref)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("unknown ref", func(t *testing.T) {
		_, err := s.Open(ctx, "alice/does-not-exist")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("failed stream", func(t *testing.T) {
		boom := errors.New("client went away")
		_, _, err := s.Put(ctx, "alice", &errReader{data: []byte("partial"), err: boom})
		assert.ErrorIs(t, err, common.ErrorIO)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, _, err := s.Put(cctx, "alice", bytes.NewReader([]byte("data")))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("walk sees committed objects", func(t *testing.T) {
		ref, _, err := s.Put(ctx, "carol", bytes.NewReader([]byte("abc")))
		require.NoError(t, err)

		found := false
		err = s.Walk(ctx, func(info ObjectInfo) error {
			if info.Ref == ref {
				found = true
				assert.Equal(t, int64(3), info.Size)
				assert.False(t, info.ModTime.IsZero())
			}
			return nil
		})
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("walk stops on callback error", func(t *testing.T) {
		stop := errors.New("stop")
		err := s.Walk(ctx, func(ObjectInfo) error { return stop })
		assert.ErrorIs(t, err, stop)
	})
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	storeContract(t, s)
	assert.Positive(t, s.Len())
}
