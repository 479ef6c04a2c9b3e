package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/cloudrive/internal/common"
	"github.com/dmitrijs2005/cloudrive/internal/logging"
	"github.com/dmitrijs2005/cloudrive/internal/server/models"
	"github.com/dmitrijs2005/cloudrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cloudrive/internal/server/repositories/users"
	"github.com/dmitrijs2005/cloudrive/internal/server/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_RegisterLoginLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.Register(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.True(t, strings.HasPrefix(u.PasswordHash, "$argon2id$"))
	assert.NotContains(t, u.PasswordHash, "s3cret")

	token, err := f.users.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)

	userID, err := f.users.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)
	assert.Equal(t, 1, f.users.ActiveSessions())

	f.users.Logout(ctx, token)
	_, err = f.users.Authenticate(ctx, token)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.Equal(t, 0, f.users.ActiveSessions())
}

func TestUserService_MultipleSessionsPerUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Register(ctx, "alice", "pw")
	require.NoError(t, err)

	t1, err := f.users.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	t2, err := f.users.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)

	f.users.Logout(ctx, t1)
	_, err = f.users.Authenticate(ctx, t2)
	assert.NoError(t, err, "logging out one session keeps the other")
}

func TestUserService_Register_Duplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Register(ctx, "alice", "pw")
	require.NoError(t, err)

	_, err = f.users.Register(ctx, "alice", "other")
	assert.ErrorIs(t, err, common.ErrorDuplicateUsername)
}

func TestUserService_Register_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"empty username", "", "pw"},
		{"empty password", "bob", ""},
		{"long username", strings.Repeat("u", 65), "pw"},
		{"long password", "bob", strings.Repeat("p", 1025)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.Register(ctx, tt.username, tt.password)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}
}

func TestUserService_Login_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Register(ctx, "alice", "pw")
	require.NoError(t, err)

	_, err = f.users.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, common.ErrorInvalidCredentials)

	_, err = f.users.Login(ctx, "nobody", "pw")
	assert.ErrorIs(t, err, common.ErrorInvalidCredentials, "unknown user looks like a wrong password")

	_, err = f.users.Login(ctx, "", "")
	assert.ErrorIs(t, err, common.ErrorInvalidCredentials)
}

func TestUserService_Authenticate_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Authenticate(ctx, "")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = f.users.Authenticate(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

type brokenUsersRepo struct{}

func (brokenUsersRepo) Create(context.Context, *models.User) (*models.User, error) {
	return nil, errors.New("db error: connection reset")
}

func (brokenUsersRepo) GetUserByLogin(context.Context, string) (*models.User, error) {
	return nil, errors.New("db error: connection reset")
}

type brokenUsersManager struct {
	*repomanager.MemoryRepositoryManager
}

func (brokenUsersManager) Users() users.Repository { return brokenUsersRepo{} }

var _ repomanager.RepositoryManager = brokenUsersManager{}

func TestUserService_RepositoryFailures(t *testing.T) {
	log := logging.Nop()
	rm := brokenUsersManager{repomanager.NewMemoryRepositoryManager()}
	svc := NewUserService(rm, sessions.NewRegistry([]byte("k"), 0, log), log, WithHashParams(testHashParams))
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "pw")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorDuplicateUsername)

	_, err = svc.Login(ctx, "alice", "pw")
	assert.ErrorIs(t, err, common.ErrorInternal)
}
