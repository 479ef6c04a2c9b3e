// Package users persists registered accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/cloudrive/internal/server/models"
)

// Repository stores users. Create fails with common.ErrorDuplicateUsername
// when the name is taken; GetUserByLogin fails with common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}
