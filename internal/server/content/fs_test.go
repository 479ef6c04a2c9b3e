package content

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStore(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	storeContract(t, s)
}

func TestFSStore_Layout(t *testing.T) {
	root := t.TempDir()
	s, err := NewFSStore(root)
	require.NoError(t, err)

	ref, _, err := s.Put(context.Background(), "alice", bytes.NewReader([]byte("hello")))
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(ref)))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestFSStore_FailedPutLeavesNoFiles(t *testing.T) {
	root := t.TempDir()
	s, err := NewFSStore(root)
	require.NoError(t, err)

	_, _, err = s.Put(context.Background(), "alice", &errReader{data: []byte("partial"), err: errors.New("boom")})
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(root, "alice"))
	require.NoError(t, err)
	assert.Empty(t, entries, "temp file must be removed")
}

func TestFSStore_WalkSkipsTempFiles(t *testing.T) {
	root := t.TempDir()
	s, err := NewFSStore(root)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "alice"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "alice", tempPrefix+"123"), []byte("x"), 0o600))

	var refs []string
	require.NoError(t, s.Walk(context.Background(), func(info ObjectInfo) error {
		refs = append(refs, info.Ref)
		return nil
	}))
	assert.Empty(t, refs)
}

func TestFSStore_RejectsEscapingRefs(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Open(context.Background(), "../../etc/passwd")
	assert.Error(t, err)
	assert.Error(t, s.Remove(context.Background(), "../x"))
}

func TestNewFSStore_RequiresRoot(t *testing.T) {
	_, err := NewFSStore("")
	assert.Error(t, err)
}
