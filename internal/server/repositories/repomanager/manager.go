// Package repomanager bundles the repositories of one backing store and the
// per-owner transaction boundary used by structural tree mutations.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/cloudrive/internal/server/repositories/nodes"
	"github.com/dmitrijs2005/cloudrive/internal/server/repositories/shares"
	"github.com/dmitrijs2005/cloudrive/internal/server/repositories/users"
)

// OwnerTxFunc runs inside WithOwnerLock with a nodes repository bound to the
// transaction.
type OwnerTxFunc func(ctx context.Context, nodes nodes.Repository) error

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	// Nodes returns a repository outside any transaction, for reads.
	Nodes() nodes.Repository
	Shares() shares.Repository
	// WithOwnerLock runs fn atomically with respect to every other
	// WithOwnerLock call for the same owner. An error from fn rolls back all
	// of its writes where the store supports it.
	WithOwnerLock(ctx context.Context, ownerID string, fn OwnerTxFunc) error
	Close() error
}
