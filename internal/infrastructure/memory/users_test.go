package memory

import (
	"context"
	"testing"

	"github.com/go-account-api/internal/domain"
	"github.com/go-account-api/internal/pkg/password"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserStoreCreate_PolicyRejection(t *testing.T) {
	store := NewUserStore(8)
	_, err := store.Create(context.Background(), "a@b.com", "short")
	require.Error(t, err)
	var policyErr *domain.CredentialPolicyError
	require.ErrorAs(t, err, &policyErr)
	assert.NotEmpty(t, policyErr.Reasons)
}

func TestUserStoreCreate_DuplicateEmail(t *testing.T) {
	store := NewUserStore(8)
	ctx := context.Background()
	_, err := store.Create(ctx, "a@b.com", "password1")
	require.NoError(t, err)
	_, err = store.Create(ctx, "a@b.com", "password1")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUserStore_ConfirmEmailAndRoles(t *testing.T) {
	store := NewUserStore(8)
	ctx := context.Background()
	u, err := store.Create(ctx, "a@b.com", "password1")
	require.NoError(t, err)
	assert.False(t, u.EmailConfirmed)

	require.NoError(t, store.ConfirmEmail(ctx, u.UserID))
	got, err := store.FindByID(ctx, u.UserID)
	require.NoError(t, err)
	assert.True(t, got.EmailConfirmed)

	require.NoError(t, store.AddRole(ctx, u.UserID, domain.RoleBasic))
	// Re-granting is a no-op, not a duplicate.
	require.NoError(t, store.AddRole(ctx, u.UserID, domain.RoleBasic))
	roles, err := store.GetRoles(ctx, u.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.RoleBasic}, roles)
}

func TestUserStoreResetPassword(t *testing.T) {
	store := NewUserStore(8)
	ctx := context.Background()
	u, err := store.Create(ctx, "a@b.com", "password1")
	require.NoError(t, err)

	require.Error(t, store.ResetPassword(ctx, u.UserID, "2short"))

	require.NoError(t, store.ResetPassword(ctx, u.UserID, "brandnew99"))
	got, err := store.FindByID(ctx, u.UserID)
	require.NoError(t, err)
	assert.True(t, password.Verify(got.PasswordHash, "brandnew99"))
	assert.False(t, password.Verify(got.PasswordHash, "password1"))
}

func TestUserStoreCheckPassword(t *testing.T) {
	store := NewUserStore(8)
	ctx := context.Background()
	u, err := store.Create(ctx, "a@b.com", "password1")
	require.NoError(t, err)

	require.NoError(t, store.CheckPassword(ctx, u.UserID, "password1"))
	assert.ErrorIs(t, store.CheckPassword(ctx, u.UserID, "password2"), domain.ErrUnauthorized)
	assert.ErrorIs(t, store.CheckPassword(ctx, "missing", "password1"), domain.ErrNotFound)
}
