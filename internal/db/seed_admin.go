package db

import (
	"context"
	"errors"

	"github.com/geocoder89/staroracle/internal/domain/user"
	"github.com/geocoder89/staroracle/internal/security"
)

type AdminSeed struct {
	Email    string
	Password string
	Name     string
}

type AdminAccounts interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type AdminRegistrar interface {
	Register(ctx context.Context, reg user.Registration) (user.Registration, error)
}

// EnsureAdminUser creates a verified admin account when none exists for the
// seed email. It is a no-op without credentials.
func EnsureAdminUser(ctx context.Context, users AdminAccounts, accounts AdminRegistrar, seed AdminSeed) (bool, error) {
	if seed.Email == "" || seed.Password == "" {
		return false, nil
	}

	req := user.RegisterRequest{
		Name:     seed.Name,
		Email:    seed.Email,
		Password: seed.Password,
		Role:     user.RoleAdmin,
	}

	reg := user.NewRegistration(req, "", "")

	_, err := users.GetByEmail(ctx, reg.User.Email)

	if err == nil {
		return false, nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return false, err
	}

	hash, err := security.HashPassword(seed.Password)

	if err != nil {
		return false, err
	}

	reg.User.PasswordHash = hash
	reg.User.Verified = true
	reg.User.VerificationToken = nil

	_, err = accounts.Register(ctx, reg)

	if errors.Is(err, user.ErrEmailTaken) {
		// another replica won the race
		return false, nil
	}

	return err == nil, err
}
