// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, logout and bearer
// resolution on top of the credential store and the session registry.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cloudrive/internal/common"
	"github.com/dmitrijs2005/cloudrive/internal/cryptox"
	"github.com/dmitrijs2005/cloudrive/internal/logging"
	"github.com/dmitrijs2005/cloudrive/internal/server/models"
	"github.com/dmitrijs2005/cloudrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cloudrive/internal/server/sessions"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type credentials struct {
	Username string `validate:"required,max=64"`
	Password string `validate:"required,max=1024"`
}

// UserService provides authentication-related operations:
// - Register: create users with an argon2id password hash
// - Login: verify credentials and open a session
// - Logout: end a session
// - Authenticate: resolve a bearer token to a user id
type UserService struct {
	repomanager repomanager.RepositoryManager
	sessions    *sessions.Registry
	hashParams  cryptox.Params
	log         logging.Logger
}

// UserOption customizes a UserService.
type UserOption func(*UserService)

// WithHashParams overrides the argon2id cost used for new passwords.
func WithHashParams(p cryptox.Params) UserOption {
	return func(s *UserService) { s.hashParams = p }
}

// NewUserService constructs a UserService.
func NewUserService(m repomanager.RepositoryManager, s *sessions.Registry, log logging.Logger, opts ...UserOption) *UserService {
	svc := &UserService{
		repomanager: m,
		sessions:    s,
		hashParams:  cryptox.DefaultParams,
		log:         log.With("module", "users"),
	}
	for _, o := range opts {
		o(svc)
	}
	return svc
}

// Register creates a new user. A taken name yields
// common.ErrorDuplicateUsername.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	hash, err := cryptox.HashPasswordWithParams([]byte(password), s.hashParams)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{ID: uuid.NewString(), UserName: username, PasswordHash: hash}
	u, err := s.repomanager.Users().Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorDuplicateUsername) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Login verifies credentials and returns a fresh bearer token. An unknown
// user and a wrong password both yield common.ErrorInvalidCredentials.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	if err := validateCredentials(username, password); err != nil {
		return "", common.ErrorInvalidCredentials
	}

	user, err := s.repomanager.Users().GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			cryptox.VerifyDummy([]byte(password))
			return "", common.ErrorInvalidCredentials
		}
		return "", common.ErrorInternal
	}

	ok, err := cryptox.VerifyPassword([]byte(password), user.PasswordHash)
	if err != nil {
		s.log.Error(ctx, "stored password hash unreadable", "user_id", user.ID, "error", err)
		return "", common.ErrorInternal
	}
	if !ok {
		return "", common.ErrorInvalidCredentials
	}

	token, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// Logout ends the session behind token. Unknown tokens are ignored.
func (s *UserService) Logout(ctx context.Context, token string) {
	s.sessions.Revoke(ctx, token)
}

// Authenticate resolves token to a user id or fails with
// common.ErrorUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", common.ErrorUnauthorized
	}
	userID, ok := s.sessions.Resolve(ctx, token)
	if !ok {
		return "", common.ErrorUnauthorized
	}
	return userID, nil
}

// ActiveSessions is the number of live sessions.
func (s *UserService) ActiveSessions() int {
	return s.sessions.Len()
}

func validateCredentials(username, password string) error {
	if err := validate.Struct(credentials{Username: username, Password: password}); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	return nil
}
