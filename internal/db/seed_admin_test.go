package db

import (
	"context"
	"testing"

	"github.com/geocoder89/staroracle/internal/domain/user"
	"github.com/geocoder89/staroracle/internal/repo/memory"
	"github.com/geocoder89/staroracle/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureAdminUser_CreatesVerifiedAdminOnce(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	seed := AdminSeed{Email: " Admin@Example.com ", Password: "Sup3rSecret", Name: "Root"}

	created, err := EnsureAdminUser(ctx, store.Users(), store.Accounts(), seed)
	require.NoError(t, err)
	assert.True(t, created)

	u, err := store.Users().GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, u.Role)
	assert.True(t, u.Verified)
	assert.Nil(t, u.VerificationToken)
	assert.NoError(t, security.CheckPassword(u.PasswordHash, "Sup3rSecret"))

	created, err = EnsureAdminUser(ctx, store.Users(), store.Accounts(), seed)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, store.Counts().Users)
	assert.Equal(t, 0, store.Counts().Researchers)
}

func TestEnsureAdminUser_NoCredentialsIsNoop(t *testing.T) {
	store := memory.NewStore()

	created, err := EnsureAdminUser(context.Background(), store.Users(), store.Accounts(), AdminSeed{Email: "a@b.co"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 0, store.Counts().Users)
}
