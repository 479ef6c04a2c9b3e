package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/cloudrive/internal/cryptox"
	"github.com/dmitrijs2005/cloudrive/internal/logging"
	"github.com/dmitrijs2005/cloudrive/internal/server/content"
	"github.com/dmitrijs2005/cloudrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cloudrive/internal/server/sessions"
)

var testHashParams = cryptox.Params{Time: 1, Memory: 8, Threads: 1, KeyLen: 16, SaltLen: 8}

type fixture struct {
	rm     *repomanager.MemoryRepositoryManager
	store  *content.MemoryStore
	users  *UserService
	tree   *TreeService
	shares *ShareService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rm := repomanager.NewMemoryRepositoryManager()
	store := content.NewMemoryStore()
	log := logging.Nop()

	users := NewUserService(rm, sessions.NewRegistry([]byte("test-secret"), 0, log), log, WithHashParams(testHashParams))

	return &fixture{
		rm:     rm,
		store:  store,
		users:  users,
		tree:   NewTreeService(rm, store, log),
		shares: NewShareService(rm, log),
	}
}

// putContent stores payload and returns its ref and size.
func (f *fixture) putContent(t *testing.T, owner, payload string) (string, int64) {
	t.Helper()
	ref, size, err := f.store.Put(context.Background(), owner, strings.NewReader(payload))
	if err != nil {
		t.Fatalf("put content: %v", err)
	}
	return ref, size
}

// failingRemoveStore refuses every Remove.
type failingRemoveStore struct {
	content.Store
	removed []string
}

func (s *failingRemoveStore) Remove(_ context.Context, ref string) error {
	s.removed = append(s.removed, ref)
	return errors.New("disk on fire")
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time { return c.t }
