package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/cloudrive/internal/server/repositories/nodes"
	"github.com/dmitrijs2005/cloudrive/internal/server/repositories/shares"
	"github.com/dmitrijs2005/cloudrive/internal/server/repositories/users"
)

// MemoryRepositoryManager keeps everything in process memory. WithOwnerLock
// serializes callers per owner but cannot roll back partial writes.
type MemoryRepositoryManager struct {
	users  *users.MemoryRepository
	nodes  *nodes.MemoryRepository
	shares *shares.MemoryRepository
	locks  sync.Map // owner id -> *sync.Mutex
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:  users.NewMemoryRepository(),
		nodes:  nodes.NewMemoryRepository(),
		shares: shares.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Users() users.Repository { return m.users }

func (m *MemoryRepositoryManager) Nodes() nodes.Repository { return m.nodes }

func (m *MemoryRepositoryManager) Shares() shares.Repository { return m.shares }

func (m *MemoryRepositoryManager) WithOwnerLock(ctx context.Context, ownerID string, fn OwnerTxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v, _ := m.locks.LoadOrStore(ownerID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	return fn(ctx, m.nodes)
}

func (m *MemoryRepositoryManager) Close() error { return nil }
