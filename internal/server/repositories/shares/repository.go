// Package shares persists public share tokens. The relation has no foreign
// key to nodes and may live in a different database.
package shares

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cloudrive/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, share *models.Share) (*models.Share, error)
	// GetByToken fails with common.ErrorNotFound. Expiry is not checked here.
	GetByToken(ctx context.Context, token string) (*models.Share, error)
	// DeleteByToken succeeds when no row matches.
	DeleteByToken(ctx context.Context, token string) error
	// DeleteExpired removes shares whose expiry is at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
