// Package nodes persists the per-owner file and directory tree.
package nodes

import (
	"context"

	"github.com/dmitrijs2005/cloudrive/internal/server/models"
)

// Repository is flat row access to nodes; tree rules live in the service
// layer. Lookups of absent rows fail with common.ErrorNotFound.
type Repository interface {
	// Create inserts node and fills Seq, CreatedAt and UpdatedAt.
	Create(ctx context.Context, node *models.Node) (*models.Node, error)
	Get(ctx context.Context, id string) (*models.Node, error)
	// ListChildren returns direct children of parentID (nil for the owner's
	// root) ordered by creation.
	ListChildren(ctx context.Context, ownerID string, parentID *string) ([]*models.Node, error)
	Rename(ctx context.Context, id string, name string) error
	Move(ctx context.Context, id string, parentID *string) error
	// Delete removes a single row. Rows that still have children are
	// rejected by the store.
	Delete(ctx context.Context, id string) error
	ContentRefExists(ctx context.Context, ref string) (bool, error)
}
