package service

import (
	"context"
	"testing"

	"storetrack/internal/imagestore"
	"storetrack/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newUserFixture(t *testing.T) (UserService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewUserService(
		repository.NewUserRepository(db),
		repository.NewGroupRepository(db),
		repository.NewAuditRepository(db),
		imagestore.New(t.TempDir()),
	)
	return svc, db
}

func registerAlice(t *testing.T, svc UserService) *UserResponse {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterRequest{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "correct-horse",
		ConfirmPassword: "correct-horse",
	})
	require.NoError(t, err)
	return user
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newUserFixture(t)
	ctx := context.Background()

	user := registerAlice(t, svc)
	assert.Equal(t, "alice", user.Username)

	tokens, err := svc.Login(ctx, LoginRequest{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.Token)
	assert.NotEmpty(t, tokens.RefreshToken)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newUserFixture(t)
	registerAlice(t, svc)

	_, err := svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _ := newUserFixture(t)

	_, err := svc.Login(context.Background(), LoginRequest{Username: "nobody", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterPasswordMismatch(t *testing.T) {
	svc, _ := newUserFixture(t)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username:        "bob",
		Email:           "bob@example.com",
		Password:        "one-password",
		ConfirmPassword: "another-password",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newUserFixture(t)
	registerAlice(t, svc)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username:        "alice",
		Email:           "other@example.com",
		Password:        "correct-horse",
		ConfirmPassword: "correct-horse",
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _ := newUserFixture(t)
	ctx := context.Background()
	registerAlice(t, svc)

	tokens, err := svc.Login(ctx, LoginRequest{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	// The spent token no longer works.
	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateUserRequiresOldPassword(t *testing.T) {
	svc, _ := newUserFixture(t)
	user := registerAlice(t, svc)

	_, err := svc.UpdateUser(context.Background(), user.ID, UpdateUserRequest{
		OldPassword: "not-the-password",
		FirstName:   "Alice",
	}, nil)
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := svc.UpdateUser(context.Background(), user.ID, UpdateUserRequest{
		OldPassword: "correct-horse",
		FirstName:   "Alice",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.FirstName)
}
